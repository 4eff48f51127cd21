package sharepoint

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/custodia-labs/o365-cli/internal/connectors/microsoft"
	"github.com/custodia-labs/o365-cli/internal/core/domain"
)

// SharePoint endpoint paths relative to a site URL.
const (
	processQueryPath = "/_vti_bin/client.svc/ProcessQuery"
	contextInfoPath  = "/_api/contextinfo"
)

// Client talks to the CSOM and REST endpoints of one SharePoint site.
type Client struct {
	siteURL string
	api     *microsoft.Client
}

// Ensure Client can feed a DigestManager.
var _ DigestFetcher = (*Client)(nil)

// NewClient creates a client for siteURL that sends requests through api.
func NewClient(siteURL string, api *microsoft.Client) *Client {
	return &Client{
		siteURL: strings.TrimRight(siteURL, "/"),
		api:     api,
	}
}

// SiteURL returns the site the client targets.
func (c *Client) SiteURL() string {
	return c.siteURL
}

// ContextInfo requests a new form digest from the site.
func (c *Client) ContextInfo(ctx context.Context) (*domain.ContextInfo, error) {
	token, err := c.api.Token(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.siteURL+contextInfoPath, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json;odata=nometadata")

	body, err := c.api.Send(req)
	if err != nil {
		return nil, fmt.Errorf("get request digest: %w", err)
	}

	var info domain.ContextInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, &domain.ProtocolError{Reason: "decode context info", Err: err}
	}
	if info.FormDigestValue == "" {
		return nil, &domain.ProtocolError{Reason: "context info has no FormDigestValue"}
	}

	return &info, nil
}

// ProcessQuery posts a CSOM request body and returns the raw JSON response.
func (c *Client) ProcessQuery(ctx context.Context, digest domain.Digest, body string) ([]byte, error) {
	token, err := c.api.Token(ctx)
	if err != nil {
		return nil, err
	}

	req, err := NewProcessQueryRequest(ctx, c.siteURL+processQueryPath, body, digest, token)
	if err != nil {
		return nil, err
	}

	resp, err := c.api.Send(req)
	if err != nil {
		return nil, fmt.Errorf("process query: %w", err)
	}
	return resp, nil
}
