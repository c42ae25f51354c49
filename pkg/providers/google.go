package providers

import "context"

const (
	googleAuthorizationEndpoint = "https://accounts.google.com/o/oauth2/v2/auth"
	googleTokenEndpoint         = "https://oauth2.googleapis.com/token"
	googleUserInfoEndpoint      = "https://openidconnect.googleapis.com/v1/userinfo"
	googleJWKSURI               = "https://www.googleapis.com/oauth2/v3/certs"
	googleOIDCDiscoveryEndpoint = "https://accounts.google.com/.well-known/openid-configuration"
)

func googleProvider(input ProviderInput) *TypeProvider {
	if input.Config.Name == "" {
		input.Config.Name = "Google"
	}

	p := newCustomProvider(input)

	oGetConfig := p.GetConfigForClientType
	p.GetConfigForClientType = func(ctx context.Context, clientType string) (ProviderConfigForClientType, error) {
		cfg, err := oGetConfig(ctx, clientType)
		if err != nil {
			return cfg, err
		}
		applyGoogleDefaults(&cfg)
		return cfg, nil
	}

	return p
}

func applyGoogleDefaults(cfg *ProviderConfigForClientType) {
	if cfg.AuthorizationEndpoint == "" {
		cfg.AuthorizationEndpoint = googleAuthorizationEndpoint
	}
	if cfg.TokenEndpoint == "" {
		cfg.TokenEndpoint = googleTokenEndpoint
	}
	if cfg.UserInfoEndpoint == "" {
		cfg.UserInfoEndpoint = googleUserInfoEndpoint
	}
	if cfg.JWKSURI == "" {
		cfg.JWKSURI = googleJWKSURI
	}
	if cfg.OIDCDiscoveryEndpoint == "" {
		cfg.OIDCDiscoveryEndpoint = googleOIDCDiscoveryEndpoint
	}
	if cfg.Scope == nil {
		cfg.Scope = []string{"openid", "email"}
	}
	cfg.AuthorizationEndpointQueryParams = withDefaultParams(map[string]string{
		"included_grant_scopes": "true",
		"access_type":           "offline",
	}, cfg.AuthorizationEndpointQueryParams)
}
