package driven

import "context"

// TokenProvider supplies bearer tokens for Microsoft 365 resources.
type TokenProvider interface {
	// GetToken returns an access token whose audience is resource,
	// e.g. "https://contoso-admin.sharepoint.com" or "https://graph.microsoft.com".
	// Failures are reported as *domain.AuthError.
	GetToken(ctx context.Context, resource string) (string, error)
}
