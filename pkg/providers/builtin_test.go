package providers

import (
	"context"
	"reflect"
	"testing"
)

func resolveBuiltinConfig(t *testing.T, thirdPartyID string, additionalConfig map[string]any) ProviderConfigForClientType {
	t.Helper()
	provider, err := NewProvider(ProviderInput{
		Config: ProviderConfig{
			ThirdPartyID:     thirdPartyID,
			AdditionalConfig: additionalConfig,
			Clients:          []ProviderClientConfig{{ClientID: "cid", ClientSecret: "secret"}},
		},
	})
	if err != nil {
		t.Fatalf("constructing %s provider: %v", thirdPartyID, err)
	}
	cfg, err := provider.GetConfigForClientType(context.Background(), "")
	if err != nil {
		t.Fatalf("resolving %s config: %v", thirdPartyID, err)
	}
	return cfg
}

func TestGoogleDefaults(t *testing.T) {
	cfg := resolveBuiltinConfig(t, "google", nil)

	if cfg.AuthorizationEndpoint != googleAuthorizationEndpoint {
		t.Fatalf("unexpected authorization endpoint: %q", cfg.AuthorizationEndpoint)
	}
	if cfg.TokenEndpoint != googleTokenEndpoint {
		t.Fatalf("unexpected token endpoint: %q", cfg.TokenEndpoint)
	}
	if cfg.JWKSURI != googleJWKSURI {
		t.Fatalf("unexpected jwks uri: %q", cfg.JWKSURI)
	}
	if !reflect.DeepEqual(cfg.Scope, []string{"openid", "email"}) {
		t.Fatalf("unexpected scope: %v", cfg.Scope)
	}
	for _, key := range []string{"included_grant_scopes", "access_type"} {
		if v := cfg.AuthorizationEndpointQueryParams[key]; v == nil {
			t.Fatalf("expected default auth query param %s", key)
		}
	}
}

func TestGoogleConfiguredScopeWins(t *testing.T) {
	provider, err := NewProvider(ProviderInput{
		Config: ProviderConfig{
			ThirdPartyID: "google",
			Clients:      []ProviderClientConfig{{ClientID: "cid", ClientSecret: "secret", Scope: []string{"openid", "profile"}}},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg, err := provider.GetConfigForClientType(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(cfg.Scope, []string{"openid", "profile"}) {
		t.Fatalf("expected configured scope to win over defaults, got %v", cfg.Scope)
	}
}

func TestGithubDefaults(t *testing.T) {
	cfg := resolveBuiltinConfig(t, "github", nil)

	if cfg.AuthorizationEndpoint != githubAuthorizationEndpoint {
		t.Fatalf("unexpected authorization endpoint: %q", cfg.AuthorizationEndpoint)
	}
	if !reflect.DeepEqual(cfg.Scope, []string{"read:user", "user:email"}) {
		t.Fatalf("unexpected scope: %v", cfg.Scope)
	}
	if cfg.ValidateAccessToken == nil {
		t.Fatalf("expected the default access token validation hook")
	}
}

func TestTwitterDefaults(t *testing.T) {
	cfg := resolveBuiltinConfig(t, "twitter", nil)

	if !cfg.ForcePKCE {
		t.Fatalf("twitter must always use pkce")
	}
	if cfg.UserInfoMap.FromUserInfoAPI.UserID != "data.id" {
		t.Fatalf("unexpected user id mapping: %q", cfg.UserInfoMap.FromUserInfoAPI.UserID)
	}
	if !reflect.DeepEqual(cfg.Scope, []string{"users.read", "tweet.read"}) {
		t.Fatalf("unexpected scope: %v", cfg.Scope)
	}
}

func TestDiscordDefaults(t *testing.T) {
	cfg := resolveBuiltinConfig(t, "discord", nil)

	if cfg.UserInfoMap.FromUserInfoAPI.UserID != "id" {
		t.Fatalf("unexpected user id mapping: %q", cfg.UserInfoMap.FromUserInfoAPI.UserID)
	}
	if cfg.UserInfoMap.FromUserInfoAPI.EmailVerified != "verified" {
		t.Fatalf("unexpected emailVerified mapping: %q", cfg.UserInfoMap.FromUserInfoAPI.EmailVerified)
	}
	if !reflect.DeepEqual(cfg.Scope, []string{"identify", "email"}) {
		t.Fatalf("unexpected scope: %v", cfg.Scope)
	}
}

func TestOktaBuildsDiscoveryEndpointFromDomain(t *testing.T) {
	cfg := resolveBuiltinConfig(t, "okta", map[string]any{"oktaDomain": "https://dev-123.okta.com"})

	if cfg.OIDCDiscoveryEndpoint != "https://dev-123.okta.com" {
		t.Fatalf("unexpected discovery endpoint: %q", cfg.OIDCDiscoveryEndpoint)
	}
}

func TestActiveDirectoryBuildsDiscoveryEndpoint(t *testing.T) {
	cfg := resolveBuiltinConfig(t, "active-directory", map[string]any{"directoryId": "dir-1"})

	want := "https://login.microsoftonline.com/dir-1/v2.0/"
	if cfg.OIDCDiscoveryEndpoint != want {
		t.Fatalf("unexpected discovery endpoint: %q", cfg.OIDCDiscoveryEndpoint)
	}
}

func TestBoxySAMLBuildsEndpointsFromBoxyURL(t *testing.T) {
	cfg := resolveBuiltinConfig(t, "boxy-saml", map[string]any{"boxyURL": "https://jackson.example.com/"})

	if cfg.AuthorizationEndpoint != "https://jackson.example.com/api/oauth/authorize" {
		t.Fatalf("unexpected authorization endpoint: %q", cfg.AuthorizationEndpoint)
	}
	if cfg.TokenEndpoint != "https://jackson.example.com/api/oauth/token" {
		t.Fatalf("unexpected token endpoint: %q", cfg.TokenEndpoint)
	}
	if cfg.UserInfoEndpoint != "https://jackson.example.com/api/oauth/userinfo" {
		t.Fatalf("unexpected userinfo endpoint: %q", cfg.UserInfoEndpoint)
	}
}

func TestGitlabDefaultsToPublicInstance(t *testing.T) {
	cfg := resolveBuiltinConfig(t, "gitlab", nil)
	if cfg.OIDCDiscoveryEndpoint != gitlabDefaultBaseURL {
		t.Fatalf("unexpected discovery endpoint: %q", cfg.OIDCDiscoveryEndpoint)
	}

	cfg = resolveBuiltinConfig(t, "gitlab", map[string]any{"gitlabBaseUrl": "https://git.corp.example.com/"})
	if cfg.OIDCDiscoveryEndpoint != "https://git.corp.example.com" {
		t.Fatalf("unexpected discovery endpoint: %q", cfg.OIDCDiscoveryEndpoint)
	}
}

func TestGoogleWorkspacesHostedDomain(t *testing.T) {
	cfg := resolveBuiltinConfig(t, "google-workspaces", map[string]any{"hd": "example.com"})

	if v := cfg.AuthorizationEndpointQueryParams["hd"]; v == nil || *v != "example.com" {
		t.Fatalf("expected hd auth param, got %v", v)
	}
	if cfg.ValidateIDTokenPayload == nil {
		t.Fatalf("expected the hosted-domain validation hook")
	}

	if err := cfg.ValidateIDTokenPayload(context.Background(), map[string]any{"hd": "example.com"}, cfg); err != nil {
		t.Fatalf("matching domain should pass: %v", err)
	}
	if err := cfg.ValidateIDTokenPayload(context.Background(), map[string]any{"hd": "other.com"}, cfg); err == nil {
		t.Fatalf("mismatched domain should fail")
	}
	if err := cfg.ValidateIDTokenPayload(context.Background(), map[string]any{}, cfg); err == nil {
		t.Fatalf("missing hd claim should fail")
	}

	wildcard := resolveBuiltinConfig(t, "google-workspaces", nil)
	if err := wildcard.ValidateIDTokenPayload(context.Background(), map[string]any{"hd": "anything.com"}, wildcard); err != nil {
		t.Fatalf("wildcard domain should accept any workspace: %v", err)
	}
}
