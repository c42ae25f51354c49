package providers

import (
	"context"
	"encoding/base64"
	"fmt"
)

const (
	twitterAuthorizationEndpoint = "https://twitter.com/i/oauth2/authorize"
	twitterTokenEndpoint         = "https://api.twitter.com/2/oauth2/token"
	twitterUserInfoEndpoint      = "https://api.twitter.com/2/users/me"
)

// twitterProvider targets the v2 OAuth2 API. Twitter requires PKCE for all
// clients and authenticates the token request with HTTP basic auth rather
// than body credentials.
func twitterProvider(input ProviderInput) *TypeProvider {
	if input.Config.Name == "" {
		input.Config.Name = "Twitter"
	}
	if input.Config.UserInfoMap.FromUserInfoAPI.UserID == "" {
		input.Config.UserInfoMap.FromUserInfoAPI.UserID = "data.id"
	}

	p := newCustomProvider(input)

	oGetConfig := p.GetConfigForClientType
	p.GetConfigForClientType = func(ctx context.Context, clientType string) (ProviderConfigForClientType, error) {
		cfg, err := oGetConfig(ctx, clientType)
		if err != nil {
			return cfg, err
		}
		if cfg.AuthorizationEndpoint == "" {
			cfg.AuthorizationEndpoint = twitterAuthorizationEndpoint
		}
		if cfg.TokenEndpoint == "" {
			cfg.TokenEndpoint = twitterTokenEndpoint
		}
		if cfg.UserInfoEndpoint == "" {
			cfg.UserInfoEndpoint = twitterUserInfoEndpoint
		}
		if cfg.Scope == nil {
			cfg.Scope = []string{"users.read", "tweet.read"}
		}
		cfg.ForcePKCE = true
		return cfg, nil
	}

	p.ExchangeAuthCodeForOAuthTokens = func(ctx context.Context, redirectURIInfo RedirectURIInfo) (OAuthTokens, error) {
		cfg := p.Config
		if cfg.TokenEndpoint == "" {
			return nil, newConfigError("provider %q is missing a tokenEndpoint", cfg.Name)
		}
		code, _ := redirectURIInfo.RedirectURIQueryParams["code"].(string)
		if code == "" {
			return nil, fmt.Errorf("redirect uri query params are missing the auth code")
		}

		clientID := cfg.ClientID
		redirectURI := redirectURIInfo.RedirectURIOnProviderDashboard
		if IsUsingDevelopmentClientID(cfg.ClientID) {
			clientID = GetActualClientIDFromDevelopmentClientID(cfg.ClientID)
			redirectURI = devOAuthRedirectURL
		}

		bodyParams := map[string]string{
			"client_id":    clientID,
			"redirect_uri": redirectURI,
			"code":         code,
			"grant_type":   "authorization_code",
		}
		if redirectURIInfo.PKCECodeVerifier != "" {
			bodyParams["code_verifier"] = redirectURIInfo.PKCECodeVerifier
		}
		applyParamOverlay(bodyParams, cfg.TokenEndpointBodyParams)

		basic := base64.StdEncoding.EncodeToString([]byte(clientID + ":" + cfg.ClientSecret))
		return postTokenRequest(ctx, cfg.TokenEndpoint, bodyParams, map[string]string{
			"Authorization": "Basic " + basic,
		})
	}

	return p
}
