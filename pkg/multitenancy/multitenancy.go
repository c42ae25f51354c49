// Package multitenancy fetches per-tenant configuration from the auth core
// and resolves which login methods are valid first factors for a tenant.
package multitenancy

import (
	"context"
	"errors"

	"github.com/dhawalhost/wardlink/pkg/mfa"
	"github.com/dhawalhost/wardlink/pkg/providers"
	"github.com/dhawalhost/wardlink/pkg/querier"
)

// ErrTenantNotFound is returned when the core has no tenant with the
// requested id.
var ErrTenantNotFound = errors.New("tenant not found")

// RecipeFlag is an enabled/disabled switch for a login recipe.
type RecipeFlag struct {
	Enabled bool `json:"enabled"`
}

// ThirdPartyConfig is the tenant's third-party login configuration.
type ThirdPartyConfig struct {
	Enabled   bool                       `json:"enabled"`
	Providers []providers.ProviderConfig `json:"providers"`
}

// TenantConfig is the per-tenant configuration stored in the auth core. It
// is fetched fresh per relevant call; the core owns tenant state and may
// change it between requests.
type TenantConfig struct {
	TenantID                 string           `json:"tenantId"`
	EmailPassword            RecipeFlag       `json:"emailPassword"`
	Passwordless             RecipeFlag       `json:"passwordless"`
	ThirdParty               ThirdPartyConfig `json:"thirdParty"`
	FirstFactors             []string         `json:"firstFactors,omitempty"`
	RequiredSecondaryFactors []string         `json:"requiredSecondaryFactors,omitempty"`
	CoreConfig               map[string]any   `json:"coreConfig,omitempty"`
}

// Recipe reaches the core for tenant config and carries the SDK-static
// factor configuration.
type Recipe struct {
	Querier *querier.Querier

	// StaticFirstFactors is the firstFactors list from multi-factor-auth
	// init; nil means not configured.
	StaticFirstFactors []string
	// AllAvailableFirstFactors is the union of all initialized recipes'
	// factor ids.
	AllAvailableFirstFactors []string
}

type tenantResponse struct {
	Status string `json:"status"`
	TenantConfig
}

// GetTenant fetches the tenant's config from the core. Returns
// ErrTenantNotFound when the tenant does not exist.
func (r *Recipe) GetTenant(ctx context.Context, tenantID string) (*TenantConfig, error) {
	var resp tenantResponse
	err := r.Querier.SendGet(ctx, querier.TenantPath(tenantID, "/recipe/multitenancy/tenant/v2"), nil, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Status == "TENANT_NOT_FOUND_ERROR" {
		return nil, ErrTenantNotFound
	}
	config := resp.TenantConfig
	if config.TenantID == "" {
		config.TenantID = tenantID
		if config.TenantID == "" {
			config.TenantID = querier.DefaultTenantID
		}
	}
	return &config, nil
}

// ValidFirstFactors computes the tenant's valid first-factor list.
//
// Candidates come from the first configured source: the tenant's
// core-configured firstFactors, then the SDK-static list, then everything
// available. A candidate survives when it is backed by an initialized recipe
// or is not a recognized built-in factor at all (custom factors pass through
// unchecked), and its recipe is not disabled on the tenant.
func (r *Recipe) ValidFirstFactors(config *TenantConfig) []string {
	candidates := config.FirstFactors
	if candidates == nil {
		candidates = r.StaticFirstFactors
	}
	if candidates == nil {
		candidates = r.AllAvailableFirstFactors
	}

	valid := make([]string, 0, len(candidates))
	for _, factorID := range candidates {
		if mfa.IsBuiltinFactor(factorID) && !contains(r.AllAvailableFirstFactors, factorID) {
			continue
		}
		if !enabledOnTenant(config, factorID) {
			continue
		}
		valid = append(valid, factorID)
	}
	return valid
}

// IsValidFirstFactor reports whether the factor is a valid first factor for
// the tenant.
func (r *Recipe) IsValidFirstFactor(config *TenantConfig, factorID string) bool {
	return contains(r.ValidFirstFactors(config), factorID)
}

// GetValidFirstFactors fetches the tenant config and computes its valid
// first factors. Returns ErrTenantNotFound when the tenant does not exist.
func (r *Recipe) GetValidFirstFactors(ctx context.Context, tenantID string) ([]string, error) {
	config, err := r.GetTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return r.ValidFirstFactors(config), nil
}

func enabledOnTenant(config *TenantConfig, factorID string) bool {
	switch {
	case factorID == mfa.FactorEmailPassword:
		return config.EmailPassword.Enabled
	case factorID == mfa.FactorThirdParty:
		return config.ThirdParty.Enabled
	case mfa.IsPasswordlessFactor(factorID):
		return config.Passwordless.Enabled
	default:
		return true
	}
}

func contains(list []string, s string) bool {
	for _, entry := range list {
		if entry == s {
			return true
		}
	}
	return false
}
