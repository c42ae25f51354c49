package multitenancy

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/dhawalhost/wardlink/pkg/mfa"
	"github.com/dhawalhost/wardlink/pkg/querier"
)

func TestGetTenant(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/t1/recipe/multitenancy/tenant/v2" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": "OK",
			"emailPassword": {"enabled": true},
			"passwordless": {"enabled": false},
			"thirdParty": {"enabled": true, "providers": [{"thirdPartyId": "google"}]},
			"firstFactors": ["emailpassword", "thirdparty"]
		}`))
	}))
	defer server.Close()

	recipe := &Recipe{Querier: querier.New(querier.Config{BaseURL: server.URL})}

	config, err := recipe.GetTenant(context.Background(), "t1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !config.EmailPassword.Enabled || config.Passwordless.Enabled || !config.ThirdParty.Enabled {
		t.Fatalf("unexpected flags: %+v", config)
	}
	if len(config.ThirdParty.Providers) != 1 || config.ThirdParty.Providers[0].ThirdPartyID != "google" {
		t.Fatalf("unexpected providers: %+v", config.ThirdParty.Providers)
	}
	if config.TenantID != "t1" {
		t.Fatalf("expected tenant id stamp, got %q", config.TenantID)
	}
}

func TestGetTenantNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status": "TENANT_NOT_FOUND_ERROR"}`))
	}))
	defer server.Close()

	recipe := &Recipe{Querier: querier.New(querier.Config{BaseURL: server.URL})}

	_, err := recipe.GetTenant(context.Background(), "ghost")
	if !errors.Is(err, ErrTenantNotFound) {
		t.Fatalf("expected ErrTenantNotFound, got %v", err)
	}

	_, err = recipe.GetValidFirstFactors(context.Background(), "ghost")
	if !errors.Is(err, ErrTenantNotFound) {
		t.Fatalf("expected ErrTenantNotFound from GetValidFirstFactors, got %v", err)
	}
}

func allEnabledTenant() *TenantConfig {
	return &TenantConfig{
		TenantID:      "t1",
		EmailPassword: RecipeFlag{Enabled: true},
		Passwordless:  RecipeFlag{Enabled: true},
		ThirdParty:    ThirdPartyConfig{Enabled: true},
	}
}

func TestValidFirstFactorsDisabledRecipeDropsFactor(t *testing.T) {
	recipe := &Recipe{
		StaticFirstFactors:       []string{mfa.FactorEmailPassword, mfa.FactorThirdParty},
		AllAvailableFirstFactors: []string{mfa.FactorEmailPassword, mfa.FactorThirdParty},
	}

	config := allEnabledTenant()
	config.EmailPassword.Enabled = false

	got := recipe.ValidFirstFactors(config)
	if !reflect.DeepEqual(got, []string{mfa.FactorThirdParty}) {
		t.Fatalf("expected only thirdparty, got %v", got)
	}
	if recipe.IsValidFirstFactor(config, mfa.FactorEmailPassword) {
		t.Fatalf("emailpassword should be invalid when disabled on the tenant")
	}
}

func TestValidFirstFactorsCoreListWins(t *testing.T) {
	recipe := &Recipe{
		StaticFirstFactors:       []string{mfa.FactorEmailPassword},
		AllAvailableFirstFactors: []string{mfa.FactorEmailPassword, mfa.FactorThirdParty, mfa.FactorOTPEmail},
	}

	config := allEnabledTenant()
	config.FirstFactors = []string{mfa.FactorOTPEmail}

	got := recipe.ValidFirstFactors(config)
	if !reflect.DeepEqual(got, []string{mfa.FactorOTPEmail}) {
		t.Fatalf("expected the core-configured list to win, got %v", got)
	}
}

func TestValidFirstFactorsFallsBackToAllAvailable(t *testing.T) {
	recipe := &Recipe{
		AllAvailableFirstFactors: []string{mfa.FactorEmailPassword, mfa.FactorOTPEmail},
	}

	config := allEnabledTenant()
	got := recipe.ValidFirstFactors(config)
	if !reflect.DeepEqual(got, []string{mfa.FactorEmailPassword, mfa.FactorOTPEmail}) {
		t.Fatalf("expected all available factors, got %v", got)
	}
}

func TestValidFirstFactorsBuiltinRequiresInitializedRecipe(t *testing.T) {
	recipe := &Recipe{
		StaticFirstFactors:       []string{mfa.FactorEmailPassword, mfa.FactorOTPEmail, "my-custom-factor"},
		AllAvailableFirstFactors: []string{mfa.FactorEmailPassword},
	}

	config := allEnabledTenant()
	got := recipe.ValidFirstFactors(config)
	// otp-email is builtin but not backed by an initialized recipe; the
	// custom factor passes through unchecked.
	if !reflect.DeepEqual(got, []string{mfa.FactorEmailPassword, "my-custom-factor"}) {
		t.Fatalf("unexpected factors: %v", got)
	}
}

func TestValidFirstFactorsPasswordlessDisabled(t *testing.T) {
	recipe := &Recipe{
		AllAvailableFirstFactors: []string{mfa.FactorOTPEmail, mfa.FactorOTPPhone, mfa.FactorLinkEmail, mfa.FactorThirdParty},
	}

	config := allEnabledTenant()
	config.Passwordless.Enabled = false

	got := recipe.ValidFirstFactors(config)
	if !reflect.DeepEqual(got, []string{mfa.FactorThirdParty}) {
		t.Fatalf("expected passwordless factors to be dropped, got %v", got)
	}
}
