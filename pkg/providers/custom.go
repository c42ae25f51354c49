package providers

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// defaultHTTPClient is used for all provider-side calls (token exchange,
// user info, discovery, JWKS). Timeout and cancellation beyond this are the
// caller's business via ctx.
var defaultHTTPClient = &http.Client{Timeout: 10 * time.Second}

// newCustomProvider builds the generic OAuth2/OIDC provider. Every built-in
// provider wraps this implementation; unknown thirdPartyIds use it directly.
//
// The returned instance has no resolved Config yet. FetchAndSetConfig picks
// the client, runs OIDC discovery and writes Config exactly once before the
// instance is handed out; the flow methods read it from there.
func newCustomProvider(input ProviderInput) *TypeProvider {
	config := input.Config

	// Canonical OIDC field mapping unless configured otherwise.
	if config.UserInfoMap.FromUserInfoAPI.UserID == "" {
		config.UserInfoMap.FromUserInfoAPI.UserID = "sub"
	}
	if config.UserInfoMap.FromUserInfoAPI.Email == "" {
		config.UserInfoMap.FromUserInfoAPI.Email = "email"
	}
	if config.UserInfoMap.FromUserInfoAPI.EmailVerified == "" {
		config.UserInfoMap.FromUserInfoAPI.EmailVerified = "email_verified"
	}
	if config.UserInfoMap.FromIDTokenPayload.UserID == "" {
		config.UserInfoMap.FromIDTokenPayload.UserID = "sub"
	}
	if config.UserInfoMap.FromIDTokenPayload.Email == "" {
		config.UserInfoMap.FromIDTokenPayload.Email = "email"
	}
	if config.UserInfoMap.FromIDTokenPayload.EmailVerified == "" {
		config.UserInfoMap.FromIDTokenPayload.EmailVerified = "email_verified"
	}

	p := &TypeProvider{
		ID: config.ThirdPartyID,
	}
	jwks := newJWKSCache(defaultHTTPClient)

	p.GetConfigForClientType = func(ctx context.Context, clientType string) (ProviderConfigForClientType, error) {
		client, err := resolveClient(config, clientType)
		if err != nil {
			return ProviderConfigForClientType{}, err
		}
		return configForClient(config, client), nil
	}

	p.GetAuthorisationRedirectURL = func(ctx context.Context, redirectURIOnProviderDashboard string) (AuthorisationRedirect, error) {
		return authorisationRedirectURL(p.Config, redirectURIOnProviderDashboard)
	}

	p.ExchangeAuthCodeForOAuthTokens = func(ctx context.Context, redirectURIInfo RedirectURIInfo) (OAuthTokens, error) {
		return exchangeAuthCodeForTokens(ctx, p.Config, redirectURIInfo)
	}

	p.GetUserInfo = func(ctx context.Context, oAuthTokens OAuthTokens) (UserInfo, error) {
		return userInfoFromTokens(ctx, p.Config, input.TenantID, oAuthTokens, jwks)
	}

	return p
}

// resolveClient picks the client config for a clientType. With no clientType
// the provider must have exactly one client; otherwise the match must be
// exact. Ambiguity and absence both surface as ClientTypeNotFoundError so
// the caller can try another provider instance carrying the same id.
func resolveClient(config ProviderConfig, clientType string) (ProviderClientConfig, error) {
	if len(config.Clients) == 0 {
		return ProviderClientConfig{}, &ClientTypeNotFoundError{ClientType: clientType, NoClients: true}
	}
	if clientType == "" {
		if len(config.Clients) == 1 {
			return config.Clients[0], nil
		}
		return ProviderClientConfig{}, &ClientTypeNotFoundError{}
	}
	for _, client := range config.Clients {
		if client.ClientType == clientType {
			return client, nil
		}
	}
	return ProviderClientConfig{}, &ClientTypeNotFoundError{ClientType: clientType}
}

func configForClient(config ProviderConfig, client ProviderClientConfig) ProviderConfigForClientType {
	scope := config.Scope
	if client.Scope != nil {
		scope = client.Scope
	}
	additionalConfig := config.AdditionalConfig
	if client.AdditionalConfig != nil {
		additionalConfig = client.AdditionalConfig
	}
	return ProviderConfigForClientType{
		ClientType:       client.ClientType,
		ClientID:         client.ClientID,
		ClientSecret:     client.ClientSecret,
		Scope:            dedupeScopes(scope),
		ForcePKCE:        client.ForcePKCE,
		AdditionalConfig: additionalConfig,

		Name: config.Name,

		AuthorizationEndpoint:            config.AuthorizationEndpoint,
		AuthorizationEndpointQueryParams: config.AuthorizationEndpointQueryParams,
		TokenEndpoint:                    config.TokenEndpoint,
		TokenEndpointBodyParams:          config.TokenEndpointBodyParams,
		UserInfoEndpoint:                 config.UserInfoEndpoint,
		UserInfoEndpointQueryParams:      config.UserInfoEndpointQueryParams,
		UserInfoEndpointHeaders:          config.UserInfoEndpointHeaders,
		JWKSURI:                          config.JWKSURI,
		OIDCDiscoveryEndpoint:            config.OIDCDiscoveryEndpoint,

		UserInfoMap: config.UserInfoMap,

		ValidateIDTokenPayload: config.ValidateIDTokenPayload,
		ValidateAccessToken:    config.ValidateAccessToken,
		GenerateFakeEmail:      config.GenerateFakeEmail,
	}
}

func dedupeScopes(scope []string) []string {
	if scope == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(scope))
	out := make([]string, 0, len(scope))
	for _, s := range scope {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// newCodeVerifier returns a PKCE code verifier: 64 random bytes, base64url
// encoded without padding (86 chars, within RFC 7636's 43..128 range).
func newCodeVerifier() (string, error) {
	buf := make([]byte, 64)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating pkce verifier: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func authorisationRedirectURL(cfg ProviderConfigForClientType, redirectURIOnProviderDashboard string) (AuthorisationRedirect, error) {
	if cfg.AuthorizationEndpoint == "" {
		return AuthorisationRedirect{}, newConfigError("provider %q is missing an authorizationEndpoint", cfg.Name)
	}

	queryParams := map[string]string{
		"client_id":     cfg.ClientID,
		"redirect_uri":  redirectURIOnProviderDashboard,
		"response_type": "code",
	}
	if len(cfg.Scope) > 0 {
		queryParams["scope"] = strings.Join(cfg.Scope, " ")
	}

	var pkceCodeVerifier string
	// PKCE is a security default, not an option: always on for public
	// clients (no secret), and on demand via forcePKCE.
	if cfg.ClientSecret == "" || cfg.ForcePKCE {
		verifier, err := newCodeVerifier()
		if err != nil {
			return AuthorisationRedirect{}, err
		}
		pkceCodeVerifier = verifier
		queryParams["code_challenge"] = oauth2.S256ChallengeFromVerifier(verifier)
		queryParams["code_challenge_method"] = "S256"
	}

	applyParamOverlay(queryParams, cfg.AuthorizationEndpointQueryParams)

	authURL := cfg.AuthorizationEndpoint
	if IsUsingDevelopmentClientID(cfg.ClientID) {
		// Route through the hosted redirect proxy, preserving the real
		// endpoint so the proxy can forward the request.
		queryParams["actual_redirect_uri"] = authURL
		queryParams["client_id"] = GetActualClientIDFromDevelopmentClientID(cfg.ClientID)
		authURL = devOAuthAuthorisationURL
	}

	u, err := url.Parse(authURL)
	if err != nil {
		return AuthorisationRedirect{}, fmt.Errorf("invalid authorization endpoint %q: %w", authURL, err)
	}
	q := u.Query()
	for k, v := range queryParams {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()

	return AuthorisationRedirect{
		URLWithQueryParams: u.String(),
		PKCECodeVerifier:   pkceCodeVerifier,
	}, nil
}

func exchangeAuthCodeForTokens(ctx context.Context, cfg ProviderConfigForClientType, redirectURIInfo RedirectURIInfo) (OAuthTokens, error) {
	if cfg.TokenEndpoint == "" {
		return nil, newConfigError("provider %q is missing a tokenEndpoint", cfg.Name)
	}
	code, _ := redirectURIInfo.RedirectURIQueryParams["code"].(string)
	if code == "" {
		return nil, fmt.Errorf("redirect uri query params are missing the auth code")
	}

	bodyParams := map[string]string{
		"client_id":    cfg.ClientID,
		"redirect_uri": redirectURIInfo.RedirectURIOnProviderDashboard,
		"code":         code,
		"grant_type":   "authorization_code",
	}
	if cfg.ClientSecret != "" {
		bodyParams["client_secret"] = cfg.ClientSecret
	}
	if redirectURIInfo.PKCECodeVerifier != "" {
		bodyParams["code_verifier"] = redirectURIInfo.PKCECodeVerifier
	}

	applyParamOverlay(bodyParams, cfg.TokenEndpointBodyParams)

	// Dev-credential rewrite happens after the overlay so the overlay sees
	// the configured values, never the rewritten ones.
	if IsUsingDevelopmentClientID(cfg.ClientID) {
		bodyParams["client_id"] = GetActualClientIDFromDevelopmentClientID(cfg.ClientID)
		bodyParams["redirect_uri"] = devOAuthRedirectURL
	}

	return postTokenRequest(ctx, cfg.TokenEndpoint, bodyParams, nil)
}

func postTokenRequest(ctx context.Context, endpoint string, bodyParams map[string]string, headers map[string]string) (OAuthTokens, error) {
	form := url.Values{}
	for k, v := range bodyParams {
		form.Set(k, v)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := defaultHTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token exchange request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ProviderAPIError{Endpoint: endpoint, StatusCode: resp.StatusCode, Body: string(body)}
	}

	var tokens OAuthTokens
	if err := json.Unmarshal(body, &tokens); err != nil {
		return nil, fmt.Errorf("decoding token response from %s: %w", endpoint, err)
	}
	return tokens, nil
}

func userInfoFromTokens(ctx context.Context, cfg ProviderConfigForClientType, tenantID string, oAuthTokens OAuthTokens, jwks *jwksCache) (UserInfo, error) {
	raw := RawUserInfo{
		FromIDTokenPayload: map[string]any{},
		FromUserInfoAPI:    map[string]any{},
	}

	idToken, _ := oAuthTokens["id_token"].(string)
	accessToken, _ := oAuthTokens["access_token"].(string)

	if idToken != "" && cfg.JWKSURI != "" {
		payload, err := verifyIDToken(ctx, jwks, cfg.JWKSURI, idToken, GetActualClientIDFromDevelopmentClientID(cfg.ClientID))
		if err != nil {
			return UserInfo{}, err
		}
		raw.FromIDTokenPayload = payload

		if cfg.ValidateIDTokenPayload != nil {
			if err := cfg.ValidateIDTokenPayload(ctx, payload, cfg); err != nil {
				return UserInfo{}, err
			}
		}
	}

	if cfg.ValidateAccessToken != nil && accessToken != "" {
		if err := cfg.ValidateAccessToken(ctx, accessToken, cfg); err != nil {
			return UserInfo{}, err
		}
	}

	if accessToken != "" && cfg.UserInfoEndpoint != "" {
		headers := map[string]string{"Authorization": "Bearer " + accessToken}
		applyParamOverlay(headers, cfg.UserInfoEndpointHeaders)

		queryParams := map[string]string{}
		applyParamOverlay(queryParams, cfg.UserInfoEndpointQueryParams)

		userInfo, err := doGetJSON(ctx, cfg.UserInfoEndpoint, headers, queryParams)
		if err != nil {
			return UserInfo{}, err
		}
		raw.FromUserInfoAPI = userInfo
	}

	return normalizeUserInfo(ctx, cfg, tenantID, raw)
}

// normalizeUserInfo applies the configured userInfoMap to the raw provider
// responses. The user-info API mapping is applied first and the id-token
// mapping after it, so id-token values win when both map the same field.
func normalizeUserInfo(ctx context.Context, cfg ProviderConfigForClientType, tenantID string, raw RawUserInfo) (UserInfo, error) {
	result := UserInfo{RawUserInfoFromProvider: raw}

	var email string
	var emailVerified bool

	if v := accessField(raw.FromUserInfoAPI, cfg.UserInfoMap.FromUserInfoAPI.UserID); v != nil {
		result.ThirdPartyUserID = stringifyField(v)
	}
	if v := accessField(raw.FromUserInfoAPI, cfg.UserInfoMap.FromUserInfoAPI.Email); v != nil {
		email = stringifyField(v)
	}
	if v := accessField(raw.FromUserInfoAPI, cfg.UserInfoMap.FromUserInfoAPI.EmailVerified); v != nil {
		emailVerified = truthyVerified(v)
	}

	if v := accessField(raw.FromIDTokenPayload, cfg.UserInfoMap.FromIDTokenPayload.UserID); v != nil {
		result.ThirdPartyUserID = stringifyField(v)
	}
	if v := accessField(raw.FromIDTokenPayload, cfg.UserInfoMap.FromIDTokenPayload.Email); v != nil {
		email = stringifyField(v)
	}
	if v := accessField(raw.FromIDTokenPayload, cfg.UserInfoMap.FromIDTokenPayload.EmailVerified); v != nil {
		emailVerified = truthyVerified(v)
	}

	if result.ThirdPartyUserID == "" {
		return UserInfo{}, fmt.Errorf("third party user id is missing from the provider response")
	}

	if email == "" && cfg.GenerateFakeEmail != nil {
		email = cfg.GenerateFakeEmail(ctx, result.ThirdPartyUserID, tenantID)
		emailVerified = true
	}
	if email != "" {
		result.Email = &EmailInfo{ID: email, IsVerified: emailVerified}
	}

	return result, nil
}

// accessField walks a dot-path ("data.id") through nested JSON objects.
// Returns nil when the path is empty or any hop is missing.
func accessField(obj map[string]any, path string) any {
	if path == "" || obj == nil {
		return nil
	}
	parts := strings.Split(path, ".")
	var current any = obj
	for _, part := range parts {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current, ok = m[part]
		if !ok {
			return nil
		}
	}
	return current
}

func stringifyField(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		// JSON numbers decode as float64; provider user ids are integral.
		return fmt.Sprintf("%.0f", val)
	case bool:
		return fmt.Sprintf("%t", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// truthyVerified treats boolean true and the string "true" (any case) as
// verified; everything else is unverified.
func truthyVerified(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		return strings.EqualFold(val, "true")
	default:
		return false
	}
}

// applyParamOverlay applies an overlay map onto params. A nil value deletes
// the key; a non-nil pointer sets it.
func applyParamOverlay(params map[string]string, overlay map[string]*string) {
	for k, v := range overlay {
		if v == nil {
			delete(params, k)
			continue
		}
		params[k] = *v
	}
}

func doGetJSON(ctx context.Context, endpoint string, headers map[string]string, queryParams map[string]string) (map[string]any, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	if len(queryParams) > 0 {
		q := u.Query()
		for k, v := range queryParams {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := defaultHTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ProviderAPIError{Endpoint: endpoint, StatusCode: resp.StatusCode, Body: string(body)}
	}

	var out map[string]any
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decoding response from %s: %w", endpoint, err)
	}
	return out, nil
}

// doGetJSONList is doGetJSON for endpoints that return a JSON array
// (GitHub's and Bitbucket's email listings).
func doGetJSONList(ctx context.Context, endpoint string, headers map[string]string) ([]map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := defaultHTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ProviderAPIError{Endpoint: endpoint, StatusCode: resp.StatusCode, Body: string(body)}
	}

	var out []map[string]any
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decoding response from %s: %w", endpoint, err)
	}
	return out, nil
}
