package sharepoint

import (
	"context"
	"time"

	"github.com/custodia-labs/o365-cli/internal/core/domain"
	"github.com/custodia-labs/o365-cli/internal/logger"
)

// digestSafetyMargin is subtracted from the advertised digest lifetime so a
// digest never expires while a request is in flight.
const digestSafetyMargin = 5 * time.Second

// DigestFetcher retrieves a fresh request digest.
type DigestFetcher interface {
	ContextInfo(ctx context.Context) (*domain.ContextInfo, error)
}

// DigestManager caches the request digest of one site.
// It is owned by a single poller and not safe for concurrent use.
type DigestManager struct {
	fetcher DigestFetcher
	clock   Clock
	current domain.Digest
}

// NewDigestManager creates a digest manager. A nil clock uses RealClock.
func NewDigestManager(fetcher DigestFetcher, clock Clock) *DigestManager {
	if clock == nil {
		clock = RealClock()
	}
	return &DigestManager{fetcher: fetcher, clock: clock}
}

// Ensure returns a digest that is valid now, fetching a new one only when the
// cached digest is missing or expired. Fetch errors are returned unchanged.
func (m *DigestManager) Ensure(ctx context.Context) (domain.Digest, error) {
	if m.current.ValidAt(m.clock.Now()) {
		logger.Debug("sharepoint: existing form digest still valid")
		return m.current, nil
	}

	info, err := m.fetcher.ContextInfo(ctx)
	if err != nil {
		return domain.Digest{}, err
	}

	lifetime := time.Duration(info.FormDigestTimeoutSeconds)*time.Second - digestSafetyMargin
	m.current = domain.Digest{
		Value:     info.FormDigestValue,
		ExpiresAt: m.clock.Now().Add(lifetime),
	}
	logger.Debug("sharepoint: retrieved form digest, valid until %s", m.current.ExpiresAt.Format(time.RFC3339))

	return m.current, nil
}

// Current returns the cached digest, which may be expired or empty.
func (m *DigestManager) Current() domain.Digest {
	return m.current
}

// Invalidate drops the cached digest.
func (m *DigestManager) Invalidate() {
	m.current = domain.Digest{}
}
