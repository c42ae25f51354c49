package providers

import (
	"reflect"
	"testing"
)

func TestMergeConfigCoreWinsScalars(t *testing.T) {
	static := ProviderConfig{
		ThirdPartyID:          "okta",
		Name:                  "Okta Static",
		Scope:                 []string{"openid"},
		AuthorizationEndpoint: "https://static.example.com/authorize",
		TokenEndpoint:         "https://static.example.com/token",
	}
	core := ProviderConfig{
		ThirdPartyID:  "okta",
		Name:          "Okta",
		TokenEndpoint: "https://core.example.com/token",
	}

	merged := MergeConfig(static, core)

	if merged.Name != "Okta" {
		t.Fatalf("expected core name to win, got %q", merged.Name)
	}
	if merged.TokenEndpoint != "https://core.example.com/token" {
		t.Fatalf("expected core token endpoint to win, got %q", merged.TokenEndpoint)
	}
	if merged.AuthorizationEndpoint != "https://static.example.com/authorize" {
		t.Fatalf("expected static authorization endpoint to survive, got %q", merged.AuthorizationEndpoint)
	}
	if !reflect.DeepEqual(merged.Scope, []string{"openid"}) {
		t.Fatalf("expected static scope to survive, got %v", merged.Scope)
	}
}

func TestMergeConfigUserInfoMapDeepMerge(t *testing.T) {
	static := ProviderConfig{
		UserInfoMap: UserInfoMap{
			FromUserInfoAPI: UserFields{UserID: "id", Email: "emailAddress"},
		},
	}
	core := ProviderConfig{
		UserInfoMap: UserInfoMap{
			FromUserInfoAPI: UserFields{Email: "email", EmailVerified: "verified"},
		},
	}

	merged := MergeConfig(static, core)

	got := merged.UserInfoMap.FromUserInfoAPI
	if got.UserID != "id" {
		t.Fatalf("expected static userId mapping to survive, got %q", got.UserID)
	}
	if got.Email != "email" {
		t.Fatalf("expected core email mapping to win, got %q", got.Email)
	}
	if got.EmailVerified != "verified" {
		t.Fatalf("expected core emailVerified mapping to apply, got %q", got.EmailVerified)
	}
}

func TestMergeConfigClientsReplacedWholesale(t *testing.T) {
	static := ProviderConfig{
		Clients: []ProviderClientConfig{
			{ClientType: "web", ClientID: "static-web", ClientSecret: "static-secret", Scope: []string{"a"}},
			{ClientType: "mobile", ClientID: "static-mobile"},
		},
	}
	core := ProviderConfig{
		Clients: []ProviderClientConfig{
			{ClientType: "web", ClientID: "core-web"},
			{ClientType: "cli", ClientID: "core-cli"},
		},
	}

	merged := MergeConfig(static, core)

	if len(merged.Clients) != 3 {
		t.Fatalf("expected 3 merged clients, got %d", len(merged.Clients))
	}
	web := merged.Clients[0]
	if web.ClientID != "core-web" {
		t.Fatalf("expected core web client to replace static, got %q", web.ClientID)
	}
	// Replacement is wholesale: static-only fields for that clientType drop.
	if web.ClientSecret != "" || web.Scope != nil {
		t.Fatalf("expected static web client fields to be dropped, got secret=%q scope=%v", web.ClientSecret, web.Scope)
	}
	if merged.Clients[1].ClientID != "static-mobile" {
		t.Fatalf("expected static-only client to survive, got %q", merged.Clients[1].ClientID)
	}
	if merged.Clients[2].ClientID != "core-cli" {
		t.Fatalf("expected core-only client to be appended, got %q", merged.Clients[2].ClientID)
	}
}

func TestMergeProvidersEmptyCoreKeepsStatic(t *testing.T) {
	static := []ProviderInput{
		{Config: ProviderConfig{ThirdPartyID: "google"}},
		{Config: ProviderConfig{ThirdPartyID: "github"}},
	}

	merged := MergeProvidersFromCoreAndStatic("t1", nil, static)

	if len(merged) != 2 {
		t.Fatalf("expected 2 providers, got %d", len(merged))
	}
	for _, input := range merged {
		if input.TenantID != "t1" {
			t.Fatalf("expected tenant id stamp, got %q", input.TenantID)
		}
	}
}

func TestMergeProvidersCoreIsAuthoritative(t *testing.T) {
	override := func(p *TypeProvider) *TypeProvider { return p }
	static := []ProviderInput{
		{Config: ProviderConfig{ThirdPartyID: "google", Name: "Google Static"}, Override: override},
		{Config: ProviderConfig{ThirdPartyID: "github"}},
	}
	fromCore := []ProviderConfig{
		{ThirdPartyID: "google", Name: "Google"},
		{ThirdPartyID: "okta"},
	}

	merged := MergeProvidersFromCoreAndStatic("t1", fromCore, static)

	if len(merged) != 2 {
		t.Fatalf("expected exactly the core providers, got %d", len(merged))
	}
	if merged[0].Config.ThirdPartyID != "google" || merged[1].Config.ThirdPartyID != "okta" {
		t.Fatalf("unexpected provider order: %q, %q", merged[0].Config.ThirdPartyID, merged[1].Config.ThirdPartyID)
	}
	if merged[0].Config.Name != "Google" {
		t.Fatalf("expected core name to win in merge, got %q", merged[0].Config.Name)
	}
	if merged[0].Override == nil {
		t.Fatalf("expected static override to carry over")
	}
	// github was static-only and the core list is authoritative.
	for _, input := range merged {
		if input.Config.ThirdPartyID == "github" {
			t.Fatalf("static-only provider should have been dropped")
		}
	}
}
