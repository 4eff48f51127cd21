package auth

import (
	"context"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"

	"github.com/custodia-labs/o365-cli/internal/connectors/microsoft"
	"github.com/custodia-labs/o365-cli/internal/core/domain"
	"github.com/custodia-labs/o365-cli/internal/core/ports/driven"
	"github.com/custodia-labs/o365-cli/internal/logger"
)

// Ensure AzureProvider implements the interface.
var _ driven.TokenProvider = (*AzureProvider)(nil)

// azureExpiryMargin is subtracted from token expiry when deciding reuse.
const azureExpiryMargin = 2 * time.Minute

// AzureProvider acquires tokens from an Azure credential, such as the
// default chain of environment, managed identity and Azure CLI credentials.
type AzureProvider struct {
	cred azcore.TokenCredential
	now  func() time.Time

	mu     sync.Mutex
	tokens map[string]azcore.AccessToken
}

// NewAzureProvider creates a provider backed by cred.
func NewAzureProvider(cred azcore.TokenCredential) *AzureProvider {
	return &AzureProvider{
		cred:   cred,
		now:    time.Now,
		tokens: make(map[string]azcore.AccessToken),
	}
}

// NewDefaultAzureProvider creates a provider using azidentity's default credential chain.
// tenantID may be empty or "common" to use the credential's default tenant.
func NewDefaultAzureProvider(tenantID string) (*AzureProvider, error) {
	opts := &azidentity.DefaultAzureCredentialOptions{}
	if tenantID != "" && tenantID != "common" {
		opts.TenantID = tenantID
	}
	cred, err := azidentity.NewDefaultAzureCredential(opts)
	if err != nil {
		return nil, &domain.AuthError{Err: err}
	}
	return NewAzureProvider(cred), nil
}

// GetToken returns a cached or new token for resource.
func (p *AzureProvider) GetToken(ctx context.Context, resource string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if tok, ok := p.tokens[resource]; ok && p.now().Add(azureExpiryMargin).Before(tok.ExpiresOn) {
		return tok.Token, nil
	}

	logger.Debug("auth: requesting Azure credential token for %s", resource)
	tok, err := p.cred.GetToken(ctx, policy.TokenRequestOptions{
		Scopes: []string{microsoft.ScopeFor(resource)},
	})
	if err != nil {
		return "", &domain.AuthError{Resource: resource, Err: err}
	}
	p.tokens[resource] = tok
	return tok.Token, nil
}
