// Package providers implements the third-party identity provider engine:
// the provider configuration model, the static/core config merge rules, the
// provider factory with built-in defaults for the known providers, and the
// generic OAuth2/OIDC flow (authorization URL, code exchange, user info).
package providers

import (
	"context"
	"fmt"
)

// UserFields maps the canonical user fields to dot-path field names inside a
// provider response (e.g. "data.id" digs into a nested object).
type UserFields struct {
	UserID        string `json:"userId,omitempty"`
	Email         string `json:"email,omitempty"`
	EmailVerified string `json:"emailVerified,omitempty"`
}

// UserInfoMap describes where the canonical user fields live, both in the
// id_token payload and in the user-info API response.
type UserInfoMap struct {
	FromIDTokenPayload UserFields `json:"fromIdTokenPayload,omitempty"`
	FromUserInfoAPI    UserFields `json:"fromUserInfoAPI,omitempty"`
}

// ProviderClientConfig is one OAuth client credential set for a provider.
// A provider may carry several (e.g. a web client and a mobile client),
// distinguished by ClientType.
type ProviderClientConfig struct {
	ClientType       string         `json:"clientType,omitempty"`
	ClientID         string         `json:"clientId"`
	ClientSecret     string         `json:"clientSecret,omitempty"`
	Scope            []string       `json:"scope,omitempty"`
	ForcePKCE        bool           `json:"forcePKCE,omitempty"`
	AdditionalConfig map[string]any `json:"additionalConfig,omitempty"`
}

// ProviderConfig is the tenant-scoped configuration of a third-party identity
// provider. Endpoint fields left empty are filled by provider defaults and,
// when OIDCDiscoveryEndpoint is set, by the discovery document. Explicit
// values always win over defaults and discovery.
//
// The *string overlay maps use a nil value as a delete marker: a key mapped
// to nil removes that key from the request instead of setting it. JSON null
// unmarshals to nil, so core-supplied configs get this behavior for free.
type ProviderConfig struct {
	ThirdPartyID string                 `json:"thirdPartyId"`
	Name         string                 `json:"name,omitempty"`
	Scope        []string               `json:"scope,omitempty"`
	Clients      []ProviderClientConfig `json:"clients,omitempty"`

	AuthorizationEndpoint            string             `json:"authorizationEndpoint,omitempty"`
	AuthorizationEndpointQueryParams map[string]*string `json:"authorizationEndpointQueryParams,omitempty"`
	TokenEndpoint                    string             `json:"tokenEndpoint,omitempty"`
	TokenEndpointBodyParams          map[string]*string `json:"tokenEndpointBodyParams,omitempty"`
	UserInfoEndpoint                 string             `json:"userInfoEndpoint,omitempty"`
	UserInfoEndpointQueryParams      map[string]*string `json:"userInfoEndpointQueryParams,omitempty"`
	UserInfoEndpointHeaders          map[string]*string `json:"userInfoEndpointHeaders,omitempty"`
	JWKSURI                          string             `json:"jwksURI,omitempty"`
	OIDCDiscoveryEndpoint            string             `json:"oidcDiscoveryEndpoint,omitempty"`

	UserInfoMap      UserInfoMap    `json:"userInfoMap,omitempty"`
	AdditionalConfig map[string]any `json:"additionalConfig,omitempty"`

	// Hooks. These never arrive over the wire; they survive the core/static
	// merge from the static side only.
	ValidateIDTokenPayload func(ctx context.Context, payload map[string]any, cfg ProviderConfigForClientType) error           `json:"-"`
	ValidateAccessToken    func(ctx context.Context, accessToken string, cfg ProviderConfigForClientType) error               `json:"-"`
	GenerateFakeEmail      func(ctx context.Context, thirdPartyUserID string, tenantID string) string                         `json:"-"`
}

// ProviderConfigForClientType is a ProviderConfig resolved down to a single
// OAuth client. This is what the flow methods operate on.
type ProviderConfigForClientType struct {
	ClientType       string         `json:"clientType,omitempty"`
	ClientID         string         `json:"clientId"`
	ClientSecret     string         `json:"clientSecret,omitempty"`
	Scope            []string       `json:"scope,omitempty"`
	ForcePKCE        bool           `json:"forcePKCE,omitempty"`
	AdditionalConfig map[string]any `json:"additionalConfig,omitempty"`

	Name string `json:"name,omitempty"`

	AuthorizationEndpoint            string             `json:"authorizationEndpoint,omitempty"`
	AuthorizationEndpointQueryParams map[string]*string `json:"authorizationEndpointQueryParams,omitempty"`
	TokenEndpoint                    string             `json:"tokenEndpoint,omitempty"`
	TokenEndpointBodyParams          map[string]*string `json:"tokenEndpointBodyParams,omitempty"`
	UserInfoEndpoint                 string             `json:"userInfoEndpoint,omitempty"`
	UserInfoEndpointQueryParams      map[string]*string `json:"userInfoEndpointQueryParams,omitempty"`
	UserInfoEndpointHeaders          map[string]*string `json:"userInfoEndpointHeaders,omitempty"`
	JWKSURI                          string             `json:"jwksURI,omitempty"`
	OIDCDiscoveryEndpoint            string             `json:"oidcDiscoveryEndpoint,omitempty"`

	UserInfoMap UserInfoMap `json:"userInfoMap,omitempty"`

	ValidateIDTokenPayload func(ctx context.Context, payload map[string]any, cfg ProviderConfigForClientType) error `json:"-"`
	ValidateAccessToken    func(ctx context.Context, accessToken string, cfg ProviderConfigForClientType) error     `json:"-"`
	GenerateFakeEmail      func(ctx context.Context, thirdPartyUserID string, tenantID string) string               `json:"-"`
}

// Override wraps a constructed provider, letting a developer replace or chain
// any of its methods. Built-in provider behavior is applied first; the
// developer override always wraps last, so its customizations win.
type Override func(provider *TypeProvider) *TypeProvider

// ProviderInput is the unit of static SDK configuration for one provider.
type ProviderInput struct {
	TenantID string
	Config   ProviderConfig
	Override Override
}

// OAuthTokens is the raw token-endpoint response (access_token, id_token,
// and whatever else the provider returned).
type OAuthTokens map[string]any

// AuthorisationRedirect is the result of building the authorization URL.
// PKCECodeVerifier is empty when PKCE was not used.
type AuthorisationRedirect struct {
	URLWithQueryParams string `json:"urlWithQueryParams"`
	PKCECodeVerifier   string `json:"pkceCodeVerifier,omitempty"`
}

// RedirectURIInfo carries the callback data needed to redeem an auth code.
type RedirectURIInfo struct {
	RedirectURIOnProviderDashboard string         `json:"redirectURIOnProviderDashboard"`
	RedirectURIQueryParams         map[string]any `json:"redirectURIQueryParams"`
	PKCECodeVerifier               string         `json:"pkceCodeVerifier,omitempty"`
}

// EmailInfo is a normalized provider email.
type EmailInfo struct {
	ID         string `json:"id"`
	IsVerified bool   `json:"isVerified"`
}

// RawUserInfo keeps both halves of the raw provider response for callers
// that need fields outside the canonical mapping.
type RawUserInfo struct {
	FromIDTokenPayload map[string]any `json:"fromIdTokenPayload,omitempty"`
	FromUserInfoAPI    map[string]any `json:"fromUserInfoAPI,omitempty"`
}

// UserInfo is the normalized sign-in result. Email is nil when the provider
// gave no email and no fake-email generator is configured.
type UserInfo struct {
	ThirdPartyUserID        string      `json:"thirdPartyUserId"`
	Email                   *EmailInfo  `json:"email,omitempty"`
	RawUserInfoFromProvider RawUserInfo `json:"rawUserInfoFromProvider"`
}

// TypeProvider is a runtime provider instance. Instances are constructed
// fresh per request via the factory; Config is resolved exactly once by
// FetchAndSetConfig before the instance is handed out, and the flow methods
// read it from there. Methods are function fields so that built-in provider
// behavior and developer overrides can wrap them in a defined order.
type TypeProvider struct {
	ID     string
	Config ProviderConfigForClientType

	GetConfigForClientType         func(ctx context.Context, clientType string) (ProviderConfigForClientType, error)
	GetAuthorisationRedirectURL    func(ctx context.Context, redirectURIOnProviderDashboard string) (AuthorisationRedirect, error)
	ExchangeAuthCodeForOAuthTokens func(ctx context.Context, redirectURIInfo RedirectURIInfo) (OAuthTokens, error)
	GetUserInfo                    func(ctx context.Context, oAuthTokens OAuthTokens) (UserInfo, error)
}

// ConfigError signals developer misconfiguration (missing required
// additionalConfig field, ambiguous clients, unresolvable provider). It is
// raised synchronously during config resolution and must not be retried.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string { return e.Message }

func newConfigError(format string, args ...any) error {
	return &ConfigError{Message: fmt.Sprintf(format, args...)}
}

// ClientTypeNotFoundError is returned by GetConfigForClientType when no
// single client config matches the requested client type. Callers iterating
// multiple provider instances with the same id treat it as "try the next".
type ClientTypeNotFoundError struct {
	ClientType string
	NoClients  bool
}

func (e *ClientTypeNotFoundError) Error() string {
	switch {
	case e.NoClients:
		return "could not determine client config: no clients configured for this provider"
	case e.ClientType == "":
		return "could not determine client config: multiple clients configured, please provide a clientType"
	default:
		return fmt.Sprintf("could not find client config for clientType: %s", e.ClientType)
	}
}

// ProviderAPIError wraps a non-2xx response from a provider or discovery
// endpoint. The raw status and body are preserved for diagnostics; these
// failures are never retried (auth codes are single-use).
type ProviderAPIError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *ProviderAPIError) Error() string {
	return fmt.Sprintf("received response with status %d from %s: %s", e.StatusCode, e.Endpoint, e.Body)
}
