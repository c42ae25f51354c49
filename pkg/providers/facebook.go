package providers

import (
	"context"
	"fmt"
)

const (
	facebookAuthorizationEndpoint = "https://www.facebook.com/v12.0/dialog/oauth"
	facebookTokenEndpoint         = "https://graph.facebook.com/v12.0/oauth/access_token"
	facebookUserInfoEndpoint      = "https://graph.facebook.com/me"
)

func facebookProvider(input ProviderInput) *TypeProvider {
	if input.Config.Name == "" {
		input.Config.Name = "Facebook"
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
		if cfg.AuthorizationEndpoint == "" {
			cfg.AuthorizationEndpoint = facebookAuthorizationEndpoint
		}
		if cfg.TokenEndpoint == "" {
			cfg.TokenEndpoint = facebookTokenEndpoint
		}
		if cfg.UserInfoEndpoint == "" {
			cfg.UserInfoEndpoint = facebookUserInfoEndpoint
		}
		if cfg.Scope == nil {
			cfg.Scope = []string{"email"}
		}
		return cfg, nil
	}

	// The Graph API wants the access token and field selection as query
	// params, not a bearer header.
	p.GetUserInfo = func(ctx context.Context, oAuthTokens OAuthTokens) (UserInfo, error) {
		cfg := p.Config

		accessToken, _ := oAuthTokens["access_token"].(string)
		if accessToken == "" {
			return UserInfo{}, fmt.Errorf("access token is missing from the oauth tokens")
		}

		queryParams := map[string]string{
			"access_token": accessToken,
			"fields":       "id,email",
			"format":       "json",
		}
		applyParamOverlay(queryParams, cfg.UserInfoEndpointQueryParams)

		userInfo, err := doGetJSON(ctx, cfg.UserInfoEndpoint, nil, queryParams)
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
