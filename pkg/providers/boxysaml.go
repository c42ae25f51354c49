package providers

import (
	"context"
	"strings"
)

// boxySAMLProvider bridges SAML identity providers through a BoxyHQ SAML
// Jackson instance, which exposes them over plain OAuth2. additionalConfig
// must carry boxyURL pointing at the Jackson deployment.
func boxySAMLProvider(input ProviderInput) *TypeProvider {
	if input.Config.Name == "" {
		input.Config.Name = "SAML"
	}
	if input.Config.UserInfoMap.FromUserInfoAPI.UserID == "" {
		input.Config.UserInfoMap.FromUserInfoAPI.UserID = "id"
	}

	p := newCustomProvider(input)

	oGetConfig := p.GetConfigForClientType
	p.GetConfigForClientType = func(ctx context.Context, clientType string) (ProviderConfigForClientType, error) {
		cfg, err := oGetConfig(ctx, clientType)
		if err != nil {
			return cfg, err
		}

		boxyURL := additionalConfigString(cfg.AdditionalConfig, "boxyURL")
		if boxyURL == "" {
			return cfg, newConfigError("please provide the boxyURL in the additionalConfig of the Boxy SAML provider")
		}
		boxyURL = strings.TrimRight(boxyURL, "/")

		if cfg.AuthorizationEndpoint == "" {
			cfg.AuthorizationEndpoint = boxyURL + "/api/oauth/authorize"
		}
		if cfg.TokenEndpoint == "" {
			cfg.TokenEndpoint = boxyURL + "/api/oauth/token"
		}
		if cfg.UserInfoEndpoint == "" {
			cfg.UserInfoEndpoint = boxyURL + "/api/oauth/userinfo"
		}
		return cfg, nil
	}

	return p
}
