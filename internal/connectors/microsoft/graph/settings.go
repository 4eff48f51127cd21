// Package graph implements Microsoft Graph clients.
package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/custodia-labs/o365-cli/internal/connectors/microsoft"
	"github.com/custodia-labs/o365-cli/internal/core/domain"
	"github.com/custodia-labs/o365-cli/internal/core/ports/driven"
)

// Ensure SettingsClient implements the interface.
var _ driven.DirectorySettingsClient = (*SettingsClient)(nil)

// Graph resource paths relative to the API base URL.
const (
	settingTemplatesPath = "/groupSettingTemplates"
	settingsPath         = "/groupSettings"
)

// SettingsClient reads and writes tenant directory settings.
type SettingsClient struct {
	baseURL string
	api     *microsoft.Client
}

// NewSettingsClient creates a client. An empty baseURL uses domain.DefaultGraphBaseURL.
func NewSettingsClient(baseURL string, api *microsoft.Client) *SettingsClient {
	if baseURL == "" {
		baseURL = domain.DefaultGraphBaseURL
	}
	return &SettingsClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		api:     api,
	}
}

// collection is the OData envelope of list responses.
type collection[T any] struct {
	Value    []T    `json:"value"`
	NextLink string `json:"@odata.nextLink,omitempty"`
}

// ListSettingTemplates returns all directory setting templates.
func (c *SettingsClient) ListSettingTemplates(ctx context.Context) ([]domain.SettingTemplate, error) {
	templates, err := list[domain.SettingTemplate](ctx, c, c.baseURL+settingTemplatesPath)
	if err != nil {
		return nil, fmt.Errorf("list setting templates: %w", err)
	}
	return templates, nil
}

// ListSettings returns the tenant-wide directory settings.
func (c *SettingsClient) ListSettings(ctx context.Context) ([]domain.DirectorySetting, error) {
	settings, err := list[domain.DirectorySetting](ctx, c, c.baseURL+settingsPath)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	return settings, nil
}

// CreateSetting creates a tenant-wide directory setting.
func (c *SettingsClient) CreateSetting(ctx context.Context, setting domain.DirectorySetting) (*domain.DirectorySetting, error) {
	payload, err := json.Marshal(domain.DirectorySetting{
		TemplateID: setting.TemplateID,
		Values:     setting.Values,
	})
	if err != nil {
		return nil, fmt.Errorf("encode setting: %w", err)
	}

	body, err := c.do(ctx, http.MethodPost, c.baseURL+settingsPath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create setting: %w", err)
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return &setting, nil
	}
	var created domain.DirectorySetting
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, &domain.ProtocolError{Reason: "decode created setting", Err: err}
	}
	return &created, nil
}

// list follows @odata.nextLink until all pages are read.
func list[T any](ctx context.Context, c *SettingsClient, url string) ([]T, error) {
	var out []T
	for url != "" {
		body, err := c.do(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}

		var page collection[T]
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, &domain.ProtocolError{Reason: "decode collection", Err: err}
		}
		out = append(out, page.Value...)
		url = page.NextLink
	}
	return out, nil
}

func (c *SettingsClient) do(ctx context.Context, method, url string, body io.Reader) ([]byte, error) {
	token, err := c.api.Token(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json;odata.metadata=none")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.api.Send(req)
}
