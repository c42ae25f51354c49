package providers

import (
	"context"
	"strings"
)

const wellKnownOpenIDConfiguration = "/.well-known/openid-configuration"

// normalizeOIDCDiscoveryEndpoint appends the well-known path when the
// configured endpoint is just the issuer URL.
func normalizeOIDCDiscoveryEndpoint(endpoint string) string {
	if strings.Contains(endpoint, ".well-known") {
		return endpoint
	}
	return strings.TrimRight(endpoint, "/") + wellKnownOpenIDConfiguration
}

// discoverOIDCEndpoints fetches the discovery document and fills in only the
// endpoints left unset by explicit configuration. Discovery never overrides
// an explicitly configured endpoint.
func discoverOIDCEndpoints(ctx context.Context, cfg *ProviderConfigForClientType) error {
	if cfg.OIDCDiscoveryEndpoint == "" {
		return nil
	}

	endpoint := normalizeOIDCDiscoveryEndpoint(cfg.OIDCDiscoveryEndpoint)
	doc, err := doGetJSON(ctx, endpoint, nil, nil)
	if err != nil {
		return err
	}

	if cfg.AuthorizationEndpoint == "" {
		if v, ok := doc["authorization_endpoint"].(string); ok {
			cfg.AuthorizationEndpoint = v
		}
	}
	if cfg.TokenEndpoint == "" {
		if v, ok := doc["token_endpoint"].(string); ok {
			cfg.TokenEndpoint = v
		}
	}
	if cfg.UserInfoEndpoint == "" {
		if v, ok := doc["userinfo_endpoint"].(string); ok {
			cfg.UserInfoEndpoint = v
		}
	}
	if cfg.JWKSURI == "" {
		if v, ok := doc["jwks_uri"].(string); ok {
			cfg.JWKSURI = v
		}
	}
	return nil
}
