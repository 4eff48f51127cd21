package driven

import (
	"context"

	"github.com/custodia-labs/o365-cli/internal/core/domain"
)

// OperationPoller runs a tenant administration operation and optionally waits for it.
type OperationPoller interface {
	// Start dispatches the operation against siteURL. When wait is true it blocks
	// until the server reports completion, an error, or cancellation.
	Start(ctx context.Context, kind domain.OperationKind, siteURL string, wait bool) error

	// Cancel stops a pending wait. It reports whether a wait was pending.
	Cancel() bool
}

// PollerFactory creates a poller bound to a tenant admin site.
type PollerFactory interface {
	NewPoller(adminURL string) (OperationPoller, error)
}
