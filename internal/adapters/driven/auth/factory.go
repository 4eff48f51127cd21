// Package auth provides token providers for Microsoft 365 resources.
package auth

import (
	"fmt"
	"net/http"

	"github.com/custodia-labs/o365-cli/internal/connectors/microsoft"
	"github.com/custodia-labs/o365-cli/internal/core/domain"
	"github.com/custodia-labs/o365-cli/internal/core/ports/driven"
)

// NewTokenProvider creates the token provider selected by cfg.Method.
// httpClient is used for token requests and may be nil.
func NewTokenProvider(cfg domain.AuthConfig, httpClient *http.Client) (driven.TokenProvider, error) {
	tokenURL := microsoft.Endpoint("", cfg.TenantID).TokenURL

	switch cfg.Method {
	case "", domain.AuthMethodToken:
		return NewStaticProvider(cfg.AccessToken), nil

	case domain.AuthMethodClientCredentials:
		if cfg.ClientID == "" || cfg.ClientSecret == "" {
			return nil, fmt.Errorf("%w: client_credentials requires client_id and client_secret", domain.ErrInvalidInput)
		}
		if cfg.TenantID == "" || cfg.TenantID == "common" {
			return nil, fmt.Errorf("%w: client_credentials requires a tenant_id", domain.ErrInvalidInput)
		}
		return NewClientCredentialsProvider(tokenURL, cfg.ClientID, cfg.ClientSecret, httpClient), nil

	case domain.AuthMethodRefreshToken:
		if cfg.ClientID == "" || cfg.RefreshToken == "" {
			return nil, fmt.Errorf("%w: refresh_token requires client_id and refresh_token", domain.ErrInvalidInput)
		}
		return NewRefreshTokenProvider(tokenURL, cfg.ClientID, cfg.ClientSecret, cfg.RefreshToken, httpClient), nil

	case domain.AuthMethodAzure:
		return NewDefaultAzureProvider(cfg.TenantID)

	default:
		return nil, fmt.Errorf("%w: unknown auth method %q", domain.ErrInvalidInput, cfg.Method)
	}
}
