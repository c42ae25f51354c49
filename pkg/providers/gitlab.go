package providers

import (
	"context"
	"strings"
)

const gitlabDefaultBaseURL = "https://gitlab.com"

// gitlabProvider works against gitlab.com by default; self-hosted instances
// point additionalConfig.gitlabBaseUrl at their deployment and everything
// else comes from OIDC discovery.
func gitlabProvider(input ProviderInput) *TypeProvider {
	if input.Config.Name == "" {
		input.Config.Name = "Gitlab"
	}

	p := newCustomProvider(input)

	oGetConfig := p.GetConfigForClientType
	p.GetConfigForClientType = func(ctx context.Context, clientType string) (ProviderConfigForClientType, error) {
		cfg, err := oGetConfig(ctx, clientType)
		if err != nil {
			return cfg, err
		}
		if cfg.Scope == nil {
			cfg.Scope = []string{"openid", "email"}
		}
		if cfg.OIDCDiscoveryEndpoint == "" {
			baseURL := additionalConfigString(cfg.AdditionalConfig, "gitlabBaseUrl")
			if baseURL == "" {
				baseURL = gitlabDefaultBaseURL
			}
			cfg.OIDCDiscoveryEndpoint = strings.TrimRight(baseURL, "/")
		}
		return cfg, nil
	}

	return p
}
