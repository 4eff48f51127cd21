package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/o365-cli/internal/core/domain"
	"github.com/custodia-labs/o365-cli/internal/core/ports/driven"
	"github.com/custodia-labs/o365-cli/internal/core/ports/driving"
	"github.com/custodia-labs/o365-cli/internal/logger"
)

// Ensure SiteRemovalService implements the interface.
var _ driving.SiteRemovalService = (*SiteRemovalService)(nil)

// SiteRemovalService removes classic site collections through the tenant admin site.
type SiteRemovalService struct {
	pollers  driven.PollerFactory
	adminURL string

	mu     sync.Mutex
	active driven.OperationPoller
}

// NewSiteRemovalService creates the service. An empty adminURL is derived
// from each site URL.
func NewSiteRemovalService(pollers driven.PollerFactory, adminURL string) *SiteRemovalService {
	return &SiteRemovalService{pollers: pollers, adminURL: adminURL}
}

// RemoveClassicSite removes the site described by opts.
//
// With SkipRecycleBin the site is first removed and, once that completes,
// removed from the recycle bin. Only the second step honours opts.Wait.
func (s *SiteRemovalService) RemoveClassicSite(ctx context.Context, opts domain.RemoveSiteOptions) error {
	if err := domain.ValidateSharePointURL(opts.URL); err != nil {
		return err
	}
	if opts.SkipRecycleBin && opts.FromRecycleBin {
		return fmt.Errorf("%w: skipRecycleBin and fromRecycleBin cannot be used together", domain.ErrInvalidInput)
	}

	adminURL, err := s.resolveAdminURL(opts.URL)
	if err != nil {
		return err
	}

	switch {
	case opts.FromRecycleBin:
		logger.Debug("services: removing site %s from the recycle bin", opts.URL)
		return s.run(ctx, adminURL, domain.OperationRemoveDeletedSite, opts.URL, opts.Wait)

	case opts.SkipRecycleBin:
		logger.Debug("services: removing site %s", opts.URL)
		if err := s.run(ctx, adminURL, domain.OperationRemoveSite, opts.URL, true); err != nil {
			return err
		}
		logger.Debug("services: removing site %s from the recycle bin", opts.URL)
		return s.run(ctx, adminURL, domain.OperationRemoveDeletedSite, opts.URL, opts.Wait)

	default:
		logger.Debug("services: removing site %s", opts.URL)
		return s.run(ctx, adminURL, domain.OperationRemoveSite, opts.URL, opts.Wait)
	}
}

// Cancel stops a pending wait of the running removal.
func (s *SiteRemovalService) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil {
		return false
	}
	return s.active.Cancel()
}

func (s *SiteRemovalService) resolveAdminURL(siteURL string) (string, error) {
	if s.adminURL == "" {
		return domain.AdminURLFor(siteURL)
	}
	if err := domain.ValidateSharePointURL(s.adminURL); err != nil {
		return "", fmt.Errorf("admin url: %w", err)
	}
	return s.adminURL, nil
}

func (s *SiteRemovalService) run(
	ctx context.Context,
	adminURL string,
	kind domain.OperationKind,
	siteURL string,
	wait bool,
) error {
	poller, err := s.pollers.NewPoller(adminURL)
	if err != nil {
		return fmt.Errorf("create poller: %w", err)
	}

	s.mu.Lock()
	s.active = poller
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.active = nil
		s.mu.Unlock()
	}()

	return poller.Start(ctx, kind, siteURL, wait)
}
