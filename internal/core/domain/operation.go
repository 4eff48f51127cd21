package domain

import (
	"time"
)

// OperationKind selects the tenant administration method a removal request invokes.
type OperationKind string

const (
	// OperationRemoveSite moves a site collection to the recycle bin.
	OperationRemoveSite OperationKind = "RemoveSite"
	// OperationRemoveDeletedSite permanently removes a site collection from the recycle bin.
	OperationRemoveDeletedSite OperationKind = "RemoveDeletedSite"
)

// Valid reports whether k is a known operation kind.
func (k OperationKind) Valid() bool {
	return k == OperationRemoveSite || k == OperationRemoveDeletedSite
}

// Operation is the SpoOperation record at the end of a CSOM response.
// It is rebuilt from every response and never stored.
type Operation struct {
	IsComplete bool
	// PollingInterval is the server-advised delay before the next status check.
	PollingInterval time.Duration
	// ObjectIdentity addresses the same server-side operation on the next poll.
	// It may change between polls.
	ObjectIdentity string
}

// Digest is a short-lived anti-forgery token for mutating SharePoint requests.
type Digest struct {
	Value     string
	ExpiresAt time.Time
}

// ValidAt reports whether the digest can still be used at t.
func (d Digest) ValidAt(t time.Time) bool {
	return d.Value != "" && t.Before(d.ExpiresAt)
}

// ContextInfo is the response of the digest endpoint.
type ContextInfo struct {
	FormDigestValue          string `json:"FormDigestValue"`
	FormDigestTimeoutSeconds int    `json:"FormDigestTimeoutSeconds"`
	WebFullURL               string `json:"WebFullUrl,omitempty"`
	LibraryVersion           string `json:"LibraryVersion,omitempty"`
}

// RemoveSiteOptions holds the inputs of the classic site removal command.
type RemoveSiteOptions struct {
	// URL is the absolute URL of the site collection.
	URL string
	// SkipRecycleBin removes the site and then purges it from the recycle bin.
	SkipRecycleBin bool
	// FromRecycleBin purges an already deleted site from the recycle bin.
	FromRecycleBin bool
	// Wait blocks until the server reports the operation complete.
	Wait bool
}
