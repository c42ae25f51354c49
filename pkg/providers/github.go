package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	githubAuthorizationEndpoint = "https://github.com/login/oauth/authorize"
	githubTokenEndpoint         = "https://github.com/login/oauth/access_token"
	githubUserInfoEndpoint      = "https://api.github.com/user"
)

func githubProvider(input ProviderInput) *TypeProvider {
	if input.Config.Name == "" {
		input.Config.Name = "Github"
	}

	p := newCustomProvider(input)

	oGetConfig := p.GetConfigForClientType
	p.GetConfigForClientType = func(ctx context.Context, clientType string) (ProviderConfigForClientType, error) {
		cfg, err := oGetConfig(ctx, clientType)
		if err != nil {
			return cfg, err
		}
		if cfg.AuthorizationEndpoint == "" {
			cfg.AuthorizationEndpoint = githubAuthorizationEndpoint
		}
		if cfg.TokenEndpoint == "" {
			cfg.TokenEndpoint = githubTokenEndpoint
		}
		if cfg.UserInfoEndpoint == "" {
			cfg.UserInfoEndpoint = githubUserInfoEndpoint
		}
		if cfg.Scope == nil {
			cfg.Scope = []string{"read:user", "user:email"}
		}
		if cfg.ValidateAccessToken == nil {
			cfg.ValidateAccessToken = validateGithubAccessToken
		}
		return cfg, nil
	}

	// GitHub has no OIDC user-info endpoint; user and email come from two
	// REST calls merged together.
	p.GetUserInfo = func(ctx context.Context, oAuthTokens OAuthTokens) (UserInfo, error) {
		cfg := p.Config

		accessToken, _ := oAuthTokens["access_token"].(string)
		if accessToken == "" {
			return UserInfo{}, fmt.Errorf("access token is missing from the oauth tokens")
		}
		if cfg.ValidateAccessToken != nil {
			if err := cfg.ValidateAccessToken(ctx, accessToken, cfg); err != nil {
				return UserInfo{}, err
			}
		}

		headers := map[string]string{
			"Authorization": "Bearer " + accessToken,
			"Accept":        "application/vnd.github.v3+json",
		}

		user, err := doGetJSON(ctx, cfg.UserInfoEndpoint, headers, nil)
		if err != nil {
			return UserInfo{}, err
		}
		emails, err := doGetJSONList(ctx, cfg.UserInfoEndpoint+"/emails", headers)
		if err != nil {
			return UserInfo{}, err
		}

		result := UserInfo{
			RawUserInfoFromProvider: RawUserInfo{
				FromUserInfoAPI: map[string]any{
					"user":   user,
					"emails": emails,
				},
				FromIDTokenPayload: map[string]any{},
			},
		}

		id, ok := user["id"]
		if !ok {
			return UserInfo{}, fmt.Errorf("github user response is missing the id field")
		}
		result.ThirdPartyUserID = stringifyField(id)

		for _, entry := range emails {
			primary, _ := entry["primary"].(bool)
			if !primary {
				continue
			}
			address, _ := entry["email"].(string)
			verified, _ := entry["verified"].(bool)
			if address != "" {
				result.Email = &EmailInfo{ID: address, IsVerified: verified}
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

// validateGithubAccessToken confirms the token was minted for this OAuth app
// by asking GitHub's token-check endpoint with the app's basic credentials.
func validateGithubAccessToken(ctx context.Context, accessToken string, cfg ProviderConfigForClientType) error {
	clientID := GetActualClientIDFromDevelopmentClientID(cfg.ClientID)
	apiBase := strings.TrimSuffix(cfg.UserInfoEndpoint, "/user")
	if apiBase == "" {
		apiBase = strings.TrimSuffix(githubUserInfoEndpoint, "/user")
	}
	endpoint := fmt.Sprintf("%s/applications/%s/token", apiBase, clientID)

	payload, err := json.Marshal(map[string]string{"access_token": accessToken})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.SetBasicAuth(clientID, cfg.ClientSecret)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := defaultHTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("github token validation request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return &ProviderAPIError{Endpoint: endpoint, StatusCode: resp.StatusCode, Body: string(body)}
	}

	var check struct {
		App struct {
			ClientID string `json:"client_id"`
		} `json:"app"`
	}
	if err := json.Unmarshal(body, &check); err != nil {
		return fmt.Errorf("decoding github token validation response: %w", err)
	}
	if check.App.ClientID != clientID {
		return fmt.Errorf("access token does not belong to this github oauth app")
	}
	return nil
}
