package sharepoint

import (
	"net/http"

	"github.com/custodia-labs/o365-cli/internal/connectors/microsoft"
	"github.com/custodia-labs/o365-cli/internal/core/domain"
	"github.com/custodia-labs/o365-cli/internal/core/ports/driven"
)

// Ensure PollerFactory implements the interface.
var _ driven.PollerFactory = (*PollerFactory)(nil)

// PollerFactory creates pollers for tenant admin sites.
// Pollers share one rate limiter and HTTP client.
type PollerFactory struct {
	tokens      driven.TokenProvider
	httpClient  *http.Client
	rateLimiter *microsoft.RateLimiter
	opts        []Option
}

// NewPollerFactory creates a factory. opts are applied to every poller.
func NewPollerFactory(
	tokens driven.TokenProvider,
	httpClient *http.Client,
	rateLimiter *microsoft.RateLimiter,
	opts ...Option,
) *PollerFactory {
	if rateLimiter == nil {
		rateLimiter = microsoft.NewRateLimiter(microsoft.ServiceSharePoint)
	}
	return &PollerFactory{
		tokens:      tokens,
		httpClient:  httpClient,
		rateLimiter: rateLimiter,
		opts:        opts,
	}
}

// NewPoller returns a poller bound to adminURL. Tokens are requested for the
// admin site's host.
func (f *PollerFactory) NewPoller(adminURL string) (driven.OperationPoller, error) {
	resource, err := domain.ResourceFor(adminURL)
	if err != nil {
		return nil, err
	}
	api := microsoft.NewClient(resource, f.tokens, f.rateLimiter, f.httpClient)
	return NewPoller(NewClient(adminURL, api), f.opts...), nil
}
