package providers

import "context"

// oktaProvider resolves its endpoints entirely through OIDC discovery
// against the tenant's Okta org. additionalConfig.oktaDomain is required
// unless an oidcDiscoveryEndpoint was configured explicitly; the check runs
// at config-resolution time, before any network call.
func oktaProvider(input ProviderInput) *TypeProvider {
	if input.Config.Name == "" {
		input.Config.Name = "Okta"
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
			oktaDomain := additionalConfigString(cfg.AdditionalConfig, "oktaDomain")
			if oktaDomain == "" {
				return cfg, newConfigError("please provide the oktaDomain in the additionalConfig of the Okta provider")
			}
			cfg.OIDCDiscoveryEndpoint = oktaDomain
		}
		return cfg, nil
	}

	return p
}
