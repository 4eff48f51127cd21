package auth

import (
	"context"

	"github.com/custodia-labs/o365-cli/internal/core/domain"
	"github.com/custodia-labs/o365-cli/internal/core/ports/driven"
)

// Ensure StaticProvider implements the interface.
var _ driven.TokenProvider = (*StaticProvider)(nil)

// StaticProvider returns a pre-acquired bearer token for every resource.
// The caller is responsible for the token's audience.
type StaticProvider struct {
	token string
}

// NewStaticProvider creates a static token provider.
func NewStaticProvider(token string) *StaticProvider {
	return &StaticProvider{token: token}
}

// GetToken returns the configured token.
func (p *StaticProvider) GetToken(_ context.Context, resource string) (string, error) {
	if p.token == "" {
		return "", &domain.AuthError{Resource: resource, Err: domain.ErrNotConnected}
	}
	return p.token, nil
}
