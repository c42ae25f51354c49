// Package gateway exposes the SDK recipes over HTTP: the public login-flow
// endpoints and the admin dashboard surface.
package gateway

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/dhawalhost/wardlink/internal/boxyapi"
	"github.com/dhawalhost/wardlink/pkg/middleware"
	"github.com/dhawalhost/wardlink/pkg/multitenancy"
	"github.com/dhawalhost/wardlink/pkg/observability"
	"github.com/dhawalhost/wardlink/pkg/providers"
	"github.com/dhawalhost/wardlink/pkg/thirdparty"
)

// HTTPHandler represents the HTTP API handlers for the gateway service.
type HTTPHandler struct {
	thirdParty   *thirdparty.Recipe
	multitenancy *multitenancy.Recipe
	boxy         *boxyapi.Client
	metrics      *observability.Metrics
	logger       *zap.Logger
	validate     *validator.Validate
}

// NewHTTPHandler creates a new HTTPHandler. boxy and metrics may be nil when
// the deployment has no Jackson instance or metrics disabled.
func NewHTTPHandler(tp *thirdparty.Recipe, mt *multitenancy.Recipe, boxy *boxyapi.Client, metrics *observability.Metrics, logger *zap.Logger) *HTTPHandler {
	return &HTTPHandler{
		thirdParty:   tp,
		multitenancy: mt,
		boxy:         boxy,
		metrics:      metrics,
		logger:       logger,
		validate:     validator.New(),
	}
}

// RegisterRoutes registers the gateway routes. Every route is tenant-scoped
// through the path; clients targeting the default tenant pass "public".
func (h *HTTPHandler) RegisterRoutes(router *gin.Engine) {
	auth := router.Group("/auth/:tenantId")
	auth.Use(middleware.TenantExtractor(middleware.TenantConfig{}))
	{
		auth.GET("/authorisationurl", h.authorisationURL)
		auth.POST("/signinup", h.signInUp)
		auth.GET("/loginmethods", h.loginMethods)
	}

	dashboard := router.Group("/dashboard/api/:tenantId")
	dashboard.Use(middleware.TenantExtractor(middleware.TenantConfig{}))
	{
		dashboard.GET("/providers", h.listProviders)
		dashboard.POST("/saml/connection", h.createSAMLConnection)
	}
}

func (h *HTTPHandler) authorisationURL(c *gin.Context) {
	tenantID, err := middleware.TenantIDFromGinContext(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	thirdPartyID := c.Query("thirdPartyId")
	if thirdPartyID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "thirdPartyId query param is required"})
		return
	}
	redirectURI := c.Query("redirectURIOnProviderDashboard")
	if redirectURI == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "redirectURIOnProviderDashboard query param is required"})
		return
	}

	redirect, err := h.thirdParty.AuthorisationURL(c.Request.Context(), tenantID, thirdPartyID, c.Query("clientType"), redirectURI)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":             "OK",
		"urlWithQueryParams": redirect.URLWithQueryParams,
		"pkceCodeVerifier":   redirect.PKCECodeVerifier,
	})
}

// SignInUpRequest is the request body for the sign-in/up endpoint. Exactly
// one of RedirectURIInfo and OAuthTokens must be set.
type SignInUpRequest struct {
	ThirdPartyID    string                     `json:"thirdPartyId" validate:"required"`
	ClientType      string                     `json:"clientType"`
	RedirectURIInfo *providers.RedirectURIInfo `json:"redirectURIInfo"`
	OAuthTokens     providers.OAuthTokens      `json:"oAuthTokens"`
}

func (h *HTTPHandler) signInUp(c *gin.Context) {
	tenantID, err := middleware.TenantIDFromGinContext(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var req SignInUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if (req.RedirectURIInfo == nil) == (req.OAuthTokens == nil) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "provide exactly one of redirectURIInfo and oAuthTokens"})
		return
	}

	result, err := h.thirdParty.SignInUp(c.Request.Context(), thirdparty.SignInUpInput{
		TenantID:        tenantID,
		ThirdPartyID:    req.ThirdPartyID,
		ClientType:      req.ClientType,
		RedirectURIInfo: req.RedirectURIInfo,
		OAuthTokens:     req.OAuthTokens,
	})
	if err != nil {
		h.recordSignIn(tenantID, req.ThirdPartyID, "error")
		h.respondError(c, err)
		return
	}
	h.recordSignIn(tenantID, req.ThirdPartyID, string(result.Status))

	switch result.Status {
	case thirdparty.SignInUpOK:
		c.JSON(http.StatusOK, gin.H{
			"status":                  "OK",
			"createdNewUser":          result.CreatedNewUser,
			"user":                    result.User,
			"oAuthTokens":             result.OAuthTokens,
			"rawUserInfoFromProvider": result.RawUserInfoFromProvider,
		})
	case thirdparty.SignInUpNoEmailGivenByProvider:
		c.JSON(http.StatusOK, gin.H{"status": string(result.Status)})
	case thirdparty.SignInUpFieldError:
		c.JSON(http.StatusOK, gin.H{"status": string(result.Status), "error": result.Error})
	}
}

func (h *HTTPHandler) loginMethods(c *gin.Context) {
	tenantID, err := middleware.TenantIDFromGinContext(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tenant, err := h.multitenancy.GetTenant(c.Request.Context(), tenantID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	merged := providers.MergeProvidersFromCoreAndStatic(tenant.TenantID, tenant.ThirdParty.Providers, h.thirdParty.StaticProviders)
	providerList := make([]gin.H, 0, len(merged))
	for _, input := range merged {
		name := input.Config.Name
		if name == "" {
			name = input.Config.ThirdPartyID
		}
		providerList = append(providerList, gin.H{
			"id":   input.Config.ThirdPartyID,
			"name": name,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"status":       "OK",
		"firstFactors": h.multitenancy.ValidFirstFactors(tenant),
		"emailPassword": gin.H{
			"enabled": tenant.EmailPassword.Enabled,
		},
		"passwordless": gin.H{
			"enabled": tenant.Passwordless.Enabled,
		},
		"thirdParty": gin.H{
			"enabled":   tenant.ThirdParty.Enabled,
			"providers": providerList,
		},
	})
}

func (h *HTTPHandler) recordSignIn(tenantID, thirdPartyID, status string) {
	if h.metrics != nil {
		h.metrics.RecordSignIn(tenantID, thirdPartyID, status)
	}
}

// respondError maps recipe errors to HTTP responses. Config problems and
// unknown tenants are the caller's fault; everything else is a gateway or
// upstream failure.
func (h *HTTPHandler) respondError(c *gin.Context, err error) {
	var cfgErr *providers.ConfigError
	var clientTypeErr *providers.ClientTypeNotFoundError

	switch {
	case errors.Is(err, multitenancy.ErrTenantNotFound):
		c.JSON(http.StatusBadRequest, gin.H{"status": "TENANT_NOT_FOUND_ERROR"})
	case errors.As(err, &cfgErr), errors.As(err, &clientTypeErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error("gateway request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
