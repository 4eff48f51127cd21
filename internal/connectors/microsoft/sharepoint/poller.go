package sharepoint

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/o365-cli/internal/core/domain"
	"github.com/custodia-labs/o365-cli/internal/core/ports/driven"
	"github.com/custodia-labs/o365-cli/internal/logger"
)

// Ensure Poller implements the interface.
var _ driven.OperationPoller = (*Poller)(nil)

// Phase is the lifecycle position of a poller.
type Phase int

const (
	// PhaseIdle means nothing is running. Also entered after Cancel.
	PhaseIdle Phase = iota
	// PhaseDispatching means a request is in flight.
	PhaseDispatching
	// PhaseWaiting means a status check is scheduled.
	PhaseWaiting
	// PhaseDone means the last run finished successfully.
	PhaseDone
	// PhaseFailed means the last run ended with an error.
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseDispatching:
		return "dispatching"
	case PhaseWaiting:
		return "waiting"
	case PhaseDone:
		return "done"
	case PhaseFailed:
		return "failed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// PendingWait is the single scheduled status check of a poller.
type PendingWait struct {
	// Identity addresses the operation the check will query.
	Identity string
	// Due is when the check fires.
	Due time.Time

	timer     Timer
	cancelled chan struct{}
}

// PollerState is the mutable state owned by one poller.
type PollerState struct {
	Phase   Phase
	Pending *PendingWait
	// Polls counts responses interpreted during the current run.
	Polls int
}

// ProgressFunc is called after every interpreted response.
type ProgressFunc func(poll int, op domain.Operation)

// Option configures a Poller.
type Option func(*Poller)

// WithClock sets the clock used for digests and timers.
func WithClock(c Clock) Option {
	return func(p *Poller) {
		p.clock = c
	}
}

// WithProgress sets a hook called after every interpreted response.
func WithProgress(fn ProgressFunc) Option {
	return func(p *Poller) {
		p.progress = fn
	}
}

// Poller runs a CSOM tenant operation and follows it until the server reports
// completion. It keeps at most one request in flight and one check scheduled.
type Poller struct {
	client   *Client
	clock    Clock
	digests  *DigestManager
	progress ProgressFunc

	mu    sync.Mutex
	state PollerState
}

// NewPoller creates a poller that sends requests through client.
func NewPoller(client *Client, opts ...Option) *Poller {
	p := &Poller{client: client, clock: RealClock()}
	for _, opt := range opts {
		opt(p)
	}
	p.digests = NewDigestManager(client, p.clock)
	return p
}

// Start invokes kind for siteURL. When wait is false, or the first response is
// already complete, it returns after one request. Otherwise it re-checks the
// operation after each server-advised interval until it completes.
//
// Errors reported by the service end the run without retries. If Cancel stops
// a pending check, Start returns domain.ErrPollCancelled.
func (p *Poller) Start(ctx context.Context, kind domain.OperationKind, siteURL string, wait bool) error {
	body, err := RemovalQuery(kind, siteURL)
	if err != nil {
		return err
	}
	if err := p.begin(); err != nil {
		return err
	}

	logger.Debug("sharepoint: invoking %s for %s", kind, siteURL)
	op, err := p.dispatch(ctx, body)

	for {
		if err != nil {
			p.finish(PhaseFailed)
			return err
		}
		if op.IsComplete || !wait {
			p.finish(PhaseDone)
			return nil
		}

		if err := p.wait(ctx, op); err != nil {
			return err
		}

		logger.Debug("sharepoint: checking if operation %s completed", op.ObjectIdentity)
		identity := op.ObjectIdentity
		op, err = p.dispatch(ctx, StatusQuery(identity))
		if err == nil && op.ObjectIdentity == "" {
			op.ObjectIdentity = identity
		}
	}
}

// Cancel stops a scheduled status check and returns the poller to idle.
// It reports whether a check was pending. An in-flight request is not aborted.
func (p *Poller) Cancel() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	pw := p.state.Pending
	if pw == nil {
		return false
	}
	pw.timer.Stop()
	close(pw.cancelled)
	p.state.Pending = nil
	p.state.Phase = PhaseIdle
	logger.Debug("sharepoint: cancelled pending check of %s", pw.Identity)
	return true
}

// State returns a snapshot of the poller state.
func (p *Poller) State() PollerState {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := p.state
	if s.Pending != nil {
		pw := *s.Pending
		s.Pending = &pw
	}
	return s
}

// Digest returns the cached request digest.
func (p *Poller) Digest() domain.Digest {
	return p.digests.Current()
}

func (p *Poller) begin() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state.Phase == PhaseDispatching || p.state.Phase == PhaseWaiting {
		return domain.ErrPollerBusy
	}
	p.state = PollerState{Phase: PhaseDispatching}
	return nil
}

func (p *Poller) finish(phase Phase) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.state.Phase = phase
	p.state.Pending = nil
}

// dispatch sends one ProcessQuery request and interprets the response.
func (p *Poller) dispatch(ctx context.Context, body string) (domain.Operation, error) {
	p.mu.Lock()
	p.state.Phase = PhaseDispatching
	p.mu.Unlock()

	digest, err := p.digests.Ensure(ctx)
	if err != nil {
		return domain.Operation{}, err
	}

	resp, err := p.client.ProcessQuery(ctx, digest, body)
	if err != nil {
		return domain.Operation{}, err
	}

	op, err := Interpret(resp)
	if err != nil {
		return domain.Operation{}, err
	}

	p.mu.Lock()
	p.state.Polls++
	poll := p.state.Polls
	p.mu.Unlock()

	logger.Debug("sharepoint: operation complete=%t, polling interval %s", op.IsComplete, op.PollingInterval)
	if p.progress != nil {
		p.progress(poll, op)
	}
	return op, nil
}

// wait blocks until the check for op is due. It returns domain.ErrPollCancelled
// after Cancel and ctx.Err() when ctx ends first.
func (p *Poller) wait(ctx context.Context, op domain.Operation) error {
	pw := &PendingWait{
		Identity:  op.ObjectIdentity,
		Due:       p.clock.Now().Add(op.PollingInterval),
		cancelled: make(chan struct{}),
	}

	p.mu.Lock()
	pw.timer = p.clock.NewTimer(op.PollingInterval)
	p.state.Pending = pw
	p.state.Phase = PhaseWaiting
	p.mu.Unlock()

	select {
	case <-pw.timer.C():
	case <-pw.cancelled:
		return domain.ErrPollCancelled
	case <-ctx.Done():
		p.mu.Lock()
		if p.state.Pending == pw {
			pw.timer.Stop()
			p.state.Pending = nil
			p.state.Phase = PhaseIdle
		}
		p.mu.Unlock()
		return ctx.Err()
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state.Pending != pw {
		return domain.ErrPollCancelled
	}
	p.state.Pending = nil
	return nil
}
