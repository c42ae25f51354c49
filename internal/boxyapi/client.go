// Package boxyapi is a minimal admin client for a BoxyHQ SAML Jackson
// deployment. The gateway uses it to register SAML connections, which the
// boxy-saml provider then consumes over plain OAuth2.
package boxyapi

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/crewjam/saml"
)

// Client talks to the Jackson admin API.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// New creates a Jackson admin client.
func New(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// CreateConnectionInput describes a new SAML connection.
type CreateConnectionInput struct {
	MetadataXML        string
	Tenant             string
	Product            string
	DefaultRedirectURL string
	RedirectURLs       []string
}

// Connection is the OAuth credential pair Jackson issues for a connection;
// it is what gets configured as the boxy-saml provider's client.
type Connection struct {
	ClientID     string `json:"clientID"`
	ClientSecret string `json:"clientSecret"`
	IdpEntityID  string `json:"idpMetadata.entityID,omitempty"`
}

// ValidateMetadata parses the IdP metadata document and checks it actually
// describes an identity provider.
func ValidateMetadata(metadataXML string) error {
	var entity saml.EntityDescriptor
	if err := xml.Unmarshal([]byte(metadataXML), &entity); err != nil {
		return fmt.Errorf("invalid SAML metadata: %w", err)
	}
	if entity.EntityID == "" {
		return fmt.Errorf("SAML metadata is missing an entityID")
	}
	if len(entity.IDPSSODescriptors) == 0 {
		return fmt.Errorf("SAML metadata does not describe an identity provider")
	}
	return nil
}

// CreateSAMLConnection validates the IdP metadata locally and registers the
// connection with Jackson.
func (c *Client) CreateSAMLConnection(ctx context.Context, input CreateConnectionInput) (Connection, error) {
	if err := ValidateMetadata(input.MetadataXML); err != nil {
		return Connection{}, err
	}

	payload, err := json.Marshal(map[string]any{
		"encodedRawMetadata": base64.StdEncoding.EncodeToString([]byte(input.MetadataXML)),
		"tenant":             input.Tenant,
		"product":            input.Product,
		"defaultRedirectUrl": input.DefaultRedirectURL,
		"redirectUrl":        input.RedirectURLs,
	})
	if err != nil {
		return Connection{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/v1/saml/config", bytes.NewReader(payload))
	if err != nil {
		return Connection{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Api-Key "+c.APIKey)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return Connection{}, fmt.Errorf("jackson request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Connection{}, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Connection{}, fmt.Errorf("jackson returned status %d: %s", resp.StatusCode, string(body))
	}

	var conn Connection
	if err := json.Unmarshal(body, &conn); err != nil {
		return Connection{}, fmt.Errorf("decoding jackson response: %w", err)
	}
	return conn, nil
}
