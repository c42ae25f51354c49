package providers

import (
	"context"
	"fmt"
)

const (
	linkedinAuthorizationEndpoint = "https://www.linkedin.com/oauth/v2/authorization"
	linkedinTokenEndpoint         = "https://www.linkedin.com/oauth/v2/accessToken"
	linkedinUserInfoEndpoint      = "https://api.linkedin.com/v2/userinfo"
)

func linkedinProvider(input ProviderInput) *TypeProvider {
	if input.Config.Name == "" {
		input.Config.Name = "LinkedIn"
	}

	p := newCustomProvider(input)

	oGetConfig := p.GetConfigForClientType
	p.GetConfigForClientType = func(ctx context.Context, clientType string) (ProviderConfigForClientType, error) {
		cfg, err := oGetConfig(ctx, clientType)
		if err != nil {
			return cfg, err
		}
		if cfg.AuthorizationEndpoint == "" {
			cfg.AuthorizationEndpoint = linkedinAuthorizationEndpoint
		}
		if cfg.TokenEndpoint == "" {
			cfg.TokenEndpoint = linkedinTokenEndpoint
		}
		if cfg.UserInfoEndpoint == "" {
			cfg.UserInfoEndpoint = linkedinUserInfoEndpoint
		}
		if cfg.Scope == nil {
			cfg.Scope = []string{"openid", "profile", "email"}
		}
		return cfg, nil
	}

	// LinkedIn's OIDC userinfo endpoint returns {sub, email, email_verified}
	// directly; no id_token verification is involved.
	p.GetUserInfo = func(ctx context.Context, oAuthTokens OAuthTokens) (UserInfo, error) {
		cfg := p.Config

		accessToken, _ := oAuthTokens["access_token"].(string)
		if accessToken == "" {
			return UserInfo{}, fmt.Errorf("access token is missing from the oauth tokens")
		}

		userInfo, err := doGetJSON(ctx, cfg.UserInfoEndpoint, map[string]string{
			"Authorization": "Bearer " + accessToken,
		}, nil)
		if err != nil {
			return UserInfo{}, err
		}

		raw := RawUserInfo{
			FromUserInfoAPI:    userInfo,
			FromIDTokenPayload: map[string]any{},
		}
		return normalizeUserInfo(ctx, cfg, input.TenantID, raw)
	}

	return p
}
