package driving

import (
	"context"

	"github.com/custodia-labs/o365-cli/internal/core/domain"
)

// SiteRemovalService removes classic site collections.
type SiteRemovalService interface {
	// RemoveClassicSite removes the site described by opts.
	// Returns domain.ErrPollCancelled when a wait was cancelled with Cancel.
	RemoveClassicSite(ctx context.Context, opts domain.RemoveSiteOptions) error

	// Cancel stops a pending wait of the running removal, if any.
	Cancel() bool
}
