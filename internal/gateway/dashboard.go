package gateway

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dhawalhost/wardlink/internal/boxyapi"
	"github.com/dhawalhost/wardlink/pkg/middleware"
	"github.com/dhawalhost/wardlink/pkg/providers"
)

// listProviders returns the tenant's merged provider list for the admin
// dashboard, including which required fields each built-in kind expects.
func (h *HTTPHandler) listProviders(c *gin.Context) {
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
	list := make([]gin.H, 0, len(merged))
	for _, input := range merged {
		entry := gin.H{
			"thirdPartyId":   input.Config.ThirdPartyID,
			"name":           input.Config.Name,
			"clients":        len(input.Config.Clients),
			"requiredFields": requiredAdditionalConfigFields(input.Config.ThirdPartyID),
		}
		list = append(list, entry)
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "OK",
		"providers": list,
	})
}

// requiredAdditionalConfigFields names the additionalConfig keys a built-in
// provider kind cannot work without. The dashboard uses it to drive its
// provider setup forms.
func requiredAdditionalConfigFields(thirdPartyID string) []string {
	switch providers.KindOf(thirdPartyID) {
	case providers.KindOkta:
		return []string{"oktaDomain"}
	case providers.KindActiveDirectory:
		return []string{"directoryId"}
	case providers.KindBoxySAML:
		return []string{"boxyURL"}
	case providers.KindApple:
		return []string{"keyId", "teamId", "privateKey"}
	default:
		return []string{}
	}
}

// SAMLConnectionRequest is the request body for registering a SAML identity
// provider through Jackson.
type SAMLConnectionRequest struct {
	MetadataXML        string   `json:"metadataXML" validate:"required"`
	Product            string   `json:"product" validate:"required"`
	DefaultRedirectURL string   `json:"defaultRedirectUrl" validate:"required,url"`
	RedirectURLs       []string `json:"redirectUrls"`
}

func (h *HTTPHandler) createSAMLConnection(c *gin.Context) {
	if h.boxy == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "no SAML bridge configured"})
		return
	}

	tenantID, err := middleware.TenantIDFromGinContext(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var req SAMLConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	redirectURLs := req.RedirectURLs
	if len(redirectURLs) == 0 {
		redirectURLs = []string{req.DefaultRedirectURL}
	}

	conn, err := h.boxy.CreateSAMLConnection(c.Request.Context(), boxyapi.CreateConnectionInput{
		MetadataXML:        req.MetadataXML,
		Tenant:             tenantID,
		Product:            req.Product,
		DefaultRedirectURL: req.DefaultRedirectURL,
		RedirectURLs:       redirectURLs,
	})
	if err != nil {
		h.logger.Error("creating SAML connection failed", zap.String("tenantId", tenantID), zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":       "OK",
		"clientId":     conn.ClientID,
		"clientSecret": conn.ClientSecret,
	})
}
