package providers

import "context"

const (
	discordAuthorizationEndpoint = "https://discord.com/oauth2/authorize"
	discordTokenEndpoint         = "https://discord.com/api/oauth2/token"
	discordUserInfoEndpoint      = "https://discord.com/api/users/@me"
)

func discordProvider(input ProviderInput) *TypeProvider {
	if input.Config.Name == "" {
		input.Config.Name = "Discord"
	}
	if input.Config.UserInfoMap.FromUserInfoAPI.UserID == "" {
		input.Config.UserInfoMap.FromUserInfoAPI.UserID = "id"
	}
	if input.Config.UserInfoMap.FromUserInfoAPI.EmailVerified == "" {
		input.Config.UserInfoMap.FromUserInfoAPI.EmailVerified = "verified"
	}

	p := newCustomProvider(input)

	oGetConfig := p.GetConfigForClientType
	p.GetConfigForClientType = func(ctx context.Context, clientType string) (ProviderConfigForClientType, error) {
		cfg, err := oGetConfig(ctx, clientType)
		if err != nil {
			return cfg, err
		}
		if cfg.AuthorizationEndpoint == "" {
			cfg.AuthorizationEndpoint = discordAuthorizationEndpoint
		}
		if cfg.TokenEndpoint == "" {
			cfg.TokenEndpoint = discordTokenEndpoint
		}
		if cfg.UserInfoEndpoint == "" {
			cfg.UserInfoEndpoint = discordUserInfoEndpoint
		}
		if cfg.Scope == nil {
			cfg.Scope = []string{"identify", "email"}
		}
		return cfg, nil
	}

	return p
}
