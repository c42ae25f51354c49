package providers

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	appleAuthorizationEndpoint = "https://appleid.apple.com/auth/authorize"
	appleTokenEndpoint         = "https://appleid.apple.com/auth/token"
	appleJWKSURI               = "https://appleid.apple.com/auth/keys"
	appleOIDCDiscovery         = "https://appleid.apple.com/.well-known/openid-configuration"
	appleTokenAudience         = "https://appleid.apple.com"

	// Apple caps client-secret validity at six months.
	appleClientSecretLifetime = 180 * 24 * time.Hour
)

// appleProvider signs its own client secret: an ES256 JWT derived from the
// developer's key material in additionalConfig (privateKey, keyId, teamId).
// The key material is validated eagerly so a malformed key fails at
// construction, not at the first token exchange.
func appleProvider(input ProviderInput) (*TypeProvider, error) {
	if input.Config.Name == "" {
		input.Config.Name = "Apple"
	}

	for _, client := range input.Config.Clients {
		if _, err := appleClientSecret(client.ClientID, effectiveAdditionalConfig(input.Config, client)); err != nil {
			return nil, err
		}
	}

	p := newCustomProvider(input)

	oGetConfig := p.GetConfigForClientType
	p.GetConfigForClientType = func(ctx context.Context, clientType string) (ProviderConfigForClientType, error) {
		cfg, err := oGetConfig(ctx, clientType)
		if err != nil {
			return cfg, err
		}
		if cfg.AuthorizationEndpoint == "" {
			cfg.AuthorizationEndpoint = appleAuthorizationEndpoint
		}
		if cfg.TokenEndpoint == "" {
			cfg.TokenEndpoint = appleTokenEndpoint
		}
		if cfg.JWKSURI == "" {
			cfg.JWKSURI = appleJWKSURI
		}
		if cfg.OIDCDiscoveryEndpoint == "" {
			cfg.OIDCDiscoveryEndpoint = appleOIDCDiscovery
		}
		if cfg.Scope == nil {
			cfg.Scope = []string{"openid", "email"}
		}
		// Apple posts the auth response back instead of redirecting with
		// query params.
		cfg.AuthorizationEndpointQueryParams = withDefaultParams(map[string]string{
			"response_mode": "form_post",
		}, cfg.AuthorizationEndpointQueryParams)

		secret, err := appleClientSecret(cfg.ClientID, cfg.AdditionalConfig)
		if err != nil {
			return cfg, err
		}
		cfg.ClientSecret = secret
		return cfg, nil
	}

	return p, nil
}

func appleClientSecret(clientID string, additionalConfig map[string]any) (string, error) {
	keyID := additionalConfigString(additionalConfig, "keyId")
	teamID := additionalConfigString(additionalConfig, "teamId")
	privateKey := additionalConfigString(additionalConfig, "privateKey")

	if keyID == "" {
		return "", newConfigError("please provide the keyId in the additionalConfig of the Apple provider")
	}
	if teamID == "" {
		return "", newConfigError("please provide the teamId in the additionalConfig of the Apple provider")
	}
	if privateKey == "" {
		return "", newConfigError("please provide the privateKey in the additionalConfig of the Apple provider")
	}

	key, err := jwt.ParseECPrivateKeyFromPEM([]byte(privateKey))
	if err != nil {
		return "", newConfigError("invalid privateKey in the additionalConfig of the Apple provider: %v", err)
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodES256, jwt.MapClaims{
		"iss": teamID,
		"iat": now.Unix(),
		"exp": now.Add(appleClientSecretLifetime).Unix(),
		"aud": appleTokenAudience,
		"sub": GetActualClientIDFromDevelopmentClientID(clientID),
	})
	token.Header["kid"] = keyID

	signed, err := token.SignedString(key)
	if err != nil {
		return "", newConfigError("could not sign the Apple client secret: %v", err)
	}
	return signed, nil
}
