package providers

import (
	"context"
	"fmt"
)

// googleWorkspacesProvider is Google sign-in restricted to a hosted domain.
// additionalConfig.hd names the workspace domain; "*" (the default) accepts
// any workspace account and the id_token's hd claim is verified either way.
func googleWorkspacesProvider(input ProviderInput) *TypeProvider {
	if input.Config.Name == "" {
		input.Config.Name = "Google Workspaces"
	}

	p := newCustomProvider(input)

	oGetConfig := p.GetConfigForClientType
	p.GetConfigForClientType = func(ctx context.Context, clientType string) (ProviderConfigForClientType, error) {
		cfg, err := oGetConfig(ctx, clientType)
		if err != nil {
			return cfg, err
		}
		applyGoogleDefaults(&cfg)

		hd := additionalConfigString(cfg.AdditionalConfig, "hd")
		if hd == "" {
			hd = "*"
		}
		cfg.AuthorizationEndpointQueryParams = withDefaultParams(map[string]string{
			"hd": hd,
		}, cfg.AuthorizationEndpointQueryParams)

		if cfg.ValidateIDTokenPayload == nil {
			cfg.ValidateIDTokenPayload = func(ctx context.Context, payload map[string]any, cfg ProviderConfigForClientType) error {
				return validateHostedDomain(payload, hd)
			}
		}
		return cfg, nil
	}

	return p
}

func validateHostedDomain(payload map[string]any, expected string) error {
	actual, _ := payload["hd"].(string)
	if actual == "" {
		return fmt.Errorf("id_token is missing the hd claim: not a workspace account")
	}
	if expected != "*" && actual != expected {
		return fmt.Errorf("id_token hd claim %q does not match the configured domain %q", actual, expected)
	}
	return nil
}
