package providers

import (
	"context"
	"fmt"
)

// activeDirectoryProvider is Azure AD (Entra ID) sign-in via its OIDC
// v2.0 endpoints. additionalConfig.directoryId selects the tenant directory
// unless an oidcDiscoveryEndpoint was configured explicitly.
func activeDirectoryProvider(input ProviderInput) *TypeProvider {
	if input.Config.Name == "" {
		input.Config.Name = "Active Directory"
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
			directoryID := additionalConfigString(cfg.AdditionalConfig, "directoryId")
			if directoryID == "" {
				return cfg, newConfigError("please provide the directoryId in the additionalConfig of the Active Directory provider")
			}
			cfg.OIDCDiscoveryEndpoint = fmt.Sprintf("https://login.microsoftonline.com/%s/v2.0/", directoryID)
		}
		return cfg, nil
	}

	return p
}
