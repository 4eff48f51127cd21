package cli

import (
	"bytes"
	"context"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/o365-cli/internal/core/domain"
)

// mockSiteRemovalService implements driving.SiteRemovalService for testing.
type mockSiteRemovalService struct {
	mu        sync.Mutex
	calls     []domain.RemoveSiteOptions
	err       error
	block     bool
	started   chan struct{}
	cancelled chan struct{}
	pending   bool
}

func newMockSiteRemovalService() *mockSiteRemovalService {
	return &mockSiteRemovalService{
		started:   make(chan struct{}, 1),
		cancelled: make(chan struct{}),
	}
}

func (m *mockSiteRemovalService) RemoveClassicSite(ctx context.Context, opts domain.RemoveSiteOptions) error {
	m.mu.Lock()
	m.calls = append(m.calls, opts)
	block := m.block
	m.mu.Unlock()

	if !block {
		return m.err
	}

	m.started <- struct{}{}
	select {
	case <-m.cancelled:
		return domain.ErrPollCancelled
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *mockSiteRemovalService) Cancel() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.pending {
		return false
	}
	m.pending = false
	close(m.cancelled)
	return true
}

func (m *mockSiteRemovalService) Calls() []domain.RemoveSiteOptions {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.RemoveSiteOptions(nil), m.calls...)
}

// mockClassificationService implements driving.ClassificationService for testing.
type mockClassificationService struct {
	got *domain.ClassificationSettings
	err error
}

func (m *mockClassificationService) Enable(_ context.Context, s domain.ClassificationSettings) (*domain.DirectorySetting, error) {
	m.got = &s
	if m.err != nil {
		return nil, m.err
	}
	return &domain.DirectorySetting{ID: "setting-1", TemplateID: domain.UnifiedGroupTemplateID}, nil
}

// mockConfigStore implements driven.ConfigStore for testing.
type mockConfigStore struct {
	cfg *domain.Config
	err error
}

func (m *mockConfigStore) Load() (*domain.Config, error) {
	return m.cfg, m.err
}

func (m *mockConfigStore) Path() string {
	return "/home/tester/.o365/config.toml"
}

// setupTestServices injects mock services for testing and returns a cleanup func.
func setupTestServices(s *Services) func() {
	oldRemoval := siteRemovalService
	oldClassification := classificationService
	oldConfig := configStore
	oldBootstrap := bootstrap
	oldVerbose := verbose

	bootstrap = nil
	siteRemovalService = s.SiteRemoval
	classificationService = s.Classification
	configStore = s.Config

	return func() {
		siteRemovalService = oldRemoval
		classificationService = oldClassification
		configStore = oldConfig
		bootstrap = oldBootstrap
		verbose = oldVerbose
	}
}

// setupTerminal replaces stdin and interrupt handling and returns a cleanup func.
func setupTerminal(input string, tty bool, sigs chan os.Signal) func() {
	oldStdin := stdin
	oldIsTerminal := isTerminal
	oldInterrupts := interrupts

	stdin = strings.NewReader(input)
	isTerminal = func() bool { return tty }
	if sigs == nil {
		sigs = make(chan os.Signal, 1)
	}
	interrupts = func() (<-chan os.Signal, func()) { return sigs, func() {} }

	return func() {
		stdin = oldStdin
		isTerminal = oldIsTerminal
		interrupts = oldInterrupts
	}
}

// resetFlags restores default flag values so runs do not leak into each other.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// executeCommand runs the root command with args and returns stdout and stderr.
func executeCommand(args ...string) (string, string, error) {
	resetFlags(rootCmd)

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	}()

	err := Execute()
	return stdout.String(), stderr.String(), err
}
