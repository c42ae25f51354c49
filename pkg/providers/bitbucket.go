package providers

import (
	"context"
	"fmt"
)

const (
	bitbucketAuthorizationEndpoint = "https://bitbucket.org/site/oauth2/authorize"
	bitbucketTokenEndpoint         = "https://bitbucket.org/site/oauth2/access_token"
	bitbucketUserInfoEndpoint      = "https://api.bitbucket.org/2.0/user"
)

func bitbucketProvider(input ProviderInput) *TypeProvider {
	if input.Config.Name == "" {
		input.Config.Name = "Bitbucket"
	}

	p := newCustomProvider(input)

	oGetConfig := p.GetConfigForClientType
	p.GetConfigForClientType = func(ctx context.Context, clientType string) (ProviderConfigForClientType, error) {
		cfg, err := oGetConfig(ctx, clientType)
		if err != nil {
			return cfg, err
		}
		if cfg.AuthorizationEndpoint == "" {
			cfg.AuthorizationEndpoint = bitbucketAuthorizationEndpoint
		}
		if cfg.TokenEndpoint == "" {
			cfg.TokenEndpoint = bitbucketTokenEndpoint
		}
		if cfg.UserInfoEndpoint == "" {
			cfg.UserInfoEndpoint = bitbucketUserInfoEndpoint
		}
		if cfg.Scope == nil {
			cfg.Scope = []string{"account", "email"}
		}
		cfg.AuthorizationEndpointQueryParams = withDefaultParams(map[string]string{
			"audience": "api.atlassian.com",
		}, cfg.AuthorizationEndpointQueryParams)
		return cfg, nil
	}

	// User identity and emails live on two separate endpoints; the address
	// marked primary wins.
	p.GetUserInfo = func(ctx context.Context, oAuthTokens OAuthTokens) (UserInfo, error) {
		cfg := p.Config

		accessToken, _ := oAuthTokens["access_token"].(string)
		if accessToken == "" {
			return UserInfo{}, fmt.Errorf("access token is missing from the oauth tokens")
		}
		headers := map[string]string{"Authorization": "Bearer " + accessToken}

		user, err := doGetJSON(ctx, cfg.UserInfoEndpoint, headers, nil)
		if err != nil {
			return UserInfo{}, err
		}
		emailPage, err := doGetJSON(ctx, cfg.UserInfoEndpoint+"/emails", headers, nil)
		if err != nil {
			return UserInfo{}, err
		}

		result := UserInfo{
			RawUserInfoFromProvider: RawUserInfo{
				FromUserInfoAPI: map[string]any{
					"user":   user,
					"emails": emailPage,
				},
				FromIDTokenPayload: map[string]any{},
			},
		}

		uuid, _ := user["uuid"].(string)
		if uuid == "" {
			return UserInfo{}, fmt.Errorf("bitbucket user response is missing the uuid field")
		}
		result.ThirdPartyUserID = uuid

		values, _ := emailPage["values"].([]any)
		for _, v := range values {
			entry, ok := v.(map[string]any)
			if !ok {
				continue
			}
			primary, _ := entry["is_primary"].(bool)
			if !primary {
				continue
			}
			address, _ := entry["email"].(string)
			confirmed, _ := entry["is_confirmed"].(bool)
			if address != "" {
				result.Email = &EmailInfo{ID: address, IsVerified: confirmed}
			}
			break
		}

		if result.Email == nil && cfg.GenerateFakeEmail != nil {
			result.Email = &EmailInfo{
				ID:         cfg.GenerateFakeEmail(ctx, result.ThirdPartyUserID, input.TenantID),
				IsVerified: true,
			}
		}

		return result, nil
	}

	return p
}
