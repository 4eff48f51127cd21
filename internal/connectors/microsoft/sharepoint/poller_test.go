package sharepoint

import (
	"context"
	"encoding/xml"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/o365-cli/internal/core/domain"
)

const testSiteURL = "https://contoso.sharepoint.com/sites/project-x"

func TestPoller_Start_CompleteShortCircuit(t *testing.T) {
	clock := newFakeClock(true)
	srv := newCSOMServer(t, clock, operationResponse(true, 15000, "op-1"))
	p := newTestPoller(srv)

	err := p.Start(context.Background(), domain.OperationRemoveSite, testSiteURL, true)

	require.NoError(t, err)
	assert.Empty(t, clock.Scheduled(), "no timer should be scheduled")
	assert.Len(t, srv.Bodies(), 1)
	assert.Equal(t, PhaseDone, p.State().Phase)
	assert.Nil(t, p.State().Pending)
}

func TestPoller_Start_NoWaitReturnsAfterFirstResponse(t *testing.T) {
	clock := newFakeClock(true)
	srv := newCSOMServer(t, clock, operationResponse(false, 500, "op-1"))
	p := newTestPoller(srv)

	err := p.Start(context.Background(), domain.OperationRemoveSite, testSiteURL, false)

	require.NoError(t, err)
	assert.Empty(t, clock.Scheduled())
	assert.Len(t, srv.Bodies(), 1)
	assert.Equal(t, PhaseDone, p.State().Phase)
}

func TestPoller_Start_PollsUntilComplete(t *testing.T) {
	// Given
	clock := newFakeClock(true)
	srv := newCSOMServer(t, clock,
		`[{"ErrorInfo":null}, {"IsComplete":false,"PollingInterval":500,"_ObjectIdentity_":"abc"}]`,
		`[{"ErrorInfo":null},{"IsComplete":true,"PollingInterval":0,"_ObjectIdentity_":"abc"}]`,
	)
	p := newTestPoller(srv)

	// When
	err := p.Start(context.Background(), domain.OperationRemoveSite, testSiteURL, true)

	// Then
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{500 * time.Millisecond}, clock.Scheduled())

	bodies := srv.Bodies()
	require.Len(t, bodies, 2)
	assert.Contains(t, bodies[0], `Name="RemoveSite"`)
	assert.Contains(t, bodies[1], `<Identity Id="184" Name="abc" />`)
	assert.Equal(t, PhaseDone, p.State().Phase)
	assert.Equal(t, 2, p.State().Polls)
	assert.Equal(t, 1, srv.ContextInfoCalls(), "digest should be reused")
	assert.Equal(t, []string{"digest-1", "digest-1"}, srv.Digests())
}

func TestPoller_Start_UsesLatestIdentityAndInterval(t *testing.T) {
	clock := newFakeClock(true)
	srv := newCSOMServer(t, clock,
		operationResponse(false, 500, "id-1"),
		operationResponse(false, 1500, "id-2"),
		operationResponse(true, 0, "id-2"),
	)
	p := newTestPoller(srv)

	err := p.Start(context.Background(), domain.OperationRemoveDeletedSite, testSiteURL, true)

	require.NoError(t, err)
	assert.Equal(t, []time.Duration{500 * time.Millisecond, 1500 * time.Millisecond}, clock.Scheduled())

	bodies := srv.Bodies()
	require.Len(t, bodies, 3)
	assert.Contains(t, bodies[0], `Name="RemoveDeletedSite"`)
	assert.Contains(t, bodies[1], `Name="id-1"`)
	assert.Contains(t, bodies[2], `Name="id-2"`)
	assert.NotContains(t, bodies[2], `Name="id-1"`)

	times := srv.RequestTimes()
	require.Len(t, times, 3)
	assert.GreaterOrEqual(t, times[1].Sub(times[0]), 500*time.Millisecond)
	assert.GreaterOrEqual(t, times[2].Sub(times[1]), 1500*time.Millisecond)
}

func TestPoller_Start_KeepsIdentityWhenResponseOmitsIt(t *testing.T) {
	clock := newFakeClock(true)
	srv := newCSOMServer(t, clock,
		operationResponse(false, 100, "id-1"),
		`[{"ErrorInfo":null},188,{"IsComplete":false,"PollingInterval":100}]`,
		operationResponse(true, 0, ""),
	)
	p := newTestPoller(srv)

	err := p.Start(context.Background(), domain.OperationRemoveSite, testSiteURL, true)

	require.NoError(t, err)
	bodies := srv.Bodies()
	require.Len(t, bodies, 3)
	assert.Contains(t, bodies[2], `Name="id-1"`)
}

func TestPoller_Start_ErrorInfoFailsWithServerMessage(t *testing.T) {
	clock := newFakeClock(true)
	srv := newCSOMServer(t, clock, errorResponse("Cannot remove site https://contoso.sharepoint.com/sites/x"))
	p := newTestPoller(srv)

	err := p.Start(context.Background(), domain.OperationRemoveSite, testSiteURL, true)

	var remote *domain.RemoteOperationError
	require.True(t, errors.As(err, &remote))
	assert.Equal(t, "Cannot remove site https://contoso.sharepoint.com/sites/x", remote.Message)
	assert.Equal(t, "Cannot remove site https://contoso.sharepoint.com/sites/x", err.Error())
	assert.Empty(t, clock.Scheduled())
	assert.Equal(t, PhaseFailed, p.State().Phase)
}

func TestPoller_Start_RecheckErrorStopsPolling(t *testing.T) {
	clock := newFakeClock(true)
	srv := newCSOMServer(t, clock,
		operationResponse(false, 200, "id-1"),
		errorResponse("Operation failed"),
		operationResponse(true, 0, "id-1"),
	)
	p := newTestPoller(srv)

	err := p.Start(context.Background(), domain.OperationRemoveSite, testSiteURL, true)

	assert.ErrorIs(t, err, domain.ErrRemoteOperation)
	assert.Equal(t, "Operation failed", err.Error())
	assert.Len(t, srv.Bodies(), 2, "no request after the error")
	assert.Equal(t, PhaseFailed, p.State().Phase)
}

func TestPoller_Start_MalformedResponse(t *testing.T) {
	clock := newFakeClock(true)
	srv := newCSOMServer(t, clock, `<html>Sorry, something went wrong</html>`)
	p := newTestPoller(srv)

	err := p.Start(context.Background(), domain.OperationRemoveSite, testSiteURL, true)

	var protoErr *domain.ProtocolError
	assert.True(t, errors.As(err, &protoErr))
	assert.Equal(t, PhaseFailed, p.State().Phase)
}

func TestPoller_Start_HTTPFailure(t *testing.T) {
	clock := newFakeClock(true)
	srv := newCSOMServer(t, clock)
	p := newTestPoller(srv)

	err := p.Start(context.Background(), domain.OperationRemoveSite, testSiteURL, true)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
	assert.Equal(t, PhaseFailed, p.State().Phase)
}

func TestPoller_Start_InvalidKind(t *testing.T) {
	srv := newCSOMServer(t, newFakeClock(true))
	p := newTestPoller(srv)

	err := p.Start(context.Background(), domain.OperationKind("CreateSite"), testSiteURL, true)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, srv.Bodies())
	assert.Equal(t, PhaseIdle, p.State().Phase)
}

func TestPoller_Start_AuthFailureSurfaces(t *testing.T) {
	clock := newFakeClock(true)
	srv := newCSOMServer(t, clock, operationResponse(true, 0, "op"))
	tokens := &fakeTokens{err: errors.New("token expired")}
	p := NewPoller(newTestClient(srv.Server, tokens), WithClock(clock))

	err := p.Start(context.Background(), domain.OperationRemoveSite, testSiteURL, true)

	assert.ErrorIs(t, err, domain.ErrAuth)
	assert.Equal(t, 0, srv.ContextInfoCalls())
	assert.Empty(t, srv.Bodies())
}

func TestPoller_DigestRefreshedWhenExpiredBetweenPolls(t *testing.T) {
	clock := newFakeClock(true)
	srv := newCSOMServer(t, clock,
		operationResponse(false, 6000, "id-1"),
		operationResponse(true, 0, "id-1"),
	)
	srv.digestTimeout = 10 // usable for 5 seconds
	p := newTestPoller(srv)

	err := p.Start(context.Background(), domain.OperationRemoveSite, testSiteURL, true)

	require.NoError(t, err)
	assert.Equal(t, 2, srv.ContextInfoCalls())
	assert.Equal(t, []string{"digest-1", "digest-2"}, srv.Digests())
	assert.Equal(t, "digest-2", p.Digest().Value)
}

func TestPoller_ProgressHook(t *testing.T) {
	clock := newFakeClock(true)
	srv := newCSOMServer(t, clock,
		operationResponse(false, 100, "id-1"),
		operationResponse(false, 100, "id-1"),
		operationResponse(true, 0, "id-1"),
	)

	var polls []int
	var completed []bool
	p := newTestPoller(srv, WithProgress(func(poll int, op domain.Operation) {
		polls = append(polls, poll)
		completed = append(completed, op.IsComplete)
	}))

	err := p.Start(context.Background(), domain.OperationRemoveSite, testSiteURL, true)

	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, polls)
	assert.Equal(t, []bool{false, false, true}, completed)
}

func TestPoller_Cancel_NoPendingIsNoop(t *testing.T) {
	srv := newCSOMServer(t, newFakeClock(true))
	p := newTestPoller(srv)

	assert.False(t, p.Cancel())
	assert.False(t, p.Cancel())
	assert.Equal(t, PhaseIdle, p.State().Phase)
}

func TestPoller_Cancel_StopsPendingWait(t *testing.T) {
	// Given a poller waiting on a timer that never fires
	clock := newFakeClock(false)
	srv := newCSOMServer(t, clock, operationResponse(false, 30000, "id-1"))
	p := newTestPoller(srv)

	done := make(chan error, 1)
	go func() {
		done <- p.Start(context.Background(), domain.OperationRemoveSite, testSiteURL, true)
	}()

	select {
	case d := <-clock.scheduled:
		assert.Equal(t, 30*time.Second, d)
	case <-time.After(5 * time.Second):
		t.Fatal("timer was never scheduled")
	}

	state := p.State()
	require.NotNil(t, state.Pending)
	assert.Equal(t, PhaseWaiting, state.Phase)
	assert.Equal(t, "id-1", state.Pending.Identity)
	assert.Equal(t, clock.Now().Add(30*time.Second), state.Pending.Due)

	// When cancelled twice
	first := p.Cancel()
	second := p.Cancel()

	// Then
	assert.True(t, first)
	assert.False(t, second)

	select {
	case err := <-done:
		assert.ErrorIs(t, err, domain.ErrPollCancelled)
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after Cancel")
	}

	assert.Equal(t, PhaseIdle, p.State().Phase)
	assert.Nil(t, p.State().Pending)
	assert.Len(t, srv.Bodies(), 1, "no status check after cancel")

	clock.mu.Lock()
	require.Len(t, clock.timers, 1)
	timer := clock.timers[0]
	clock.mu.Unlock()
	assert.Equal(t, 1, timer.stops)
}

func TestPoller_Start_ContextCancelledWhileWaiting(t *testing.T) {
	clock := newFakeClock(false)
	srv := newCSOMServer(t, clock, operationResponse(false, 30000, "id-1"))
	p := newTestPoller(srv)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- p.Start(ctx, domain.OperationRemoveSite, testSiteURL, true)
	}()

	select {
	case <-clock.scheduled:
	case <-time.After(5 * time.Second):
		t.Fatal("timer was never scheduled")
	}
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after context cancellation")
	}
	assert.Equal(t, PhaseIdle, p.State().Phase)
	assert.False(t, p.Cancel())
}

func TestPoller_Start_BusyWhileWaiting(t *testing.T) {
	clock := newFakeClock(false)
	srv := newCSOMServer(t, clock, operationResponse(false, 30000, "id-1"))
	p := newTestPoller(srv)

	done := make(chan error, 1)
	go func() {
		done <- p.Start(context.Background(), domain.OperationRemoveSite, testSiteURL, true)
	}()
	select {
	case <-clock.scheduled:
	case <-time.After(5 * time.Second):
		t.Fatal("timer was never scheduled")
	}

	err := p.Start(context.Background(), domain.OperationRemoveSite, testSiteURL, true)
	assert.ErrorIs(t, err, domain.ErrPollerBusy)

	require.True(t, p.Cancel())
	assert.ErrorIs(t, <-done, domain.ErrPollCancelled)
}

func TestPoller_Start_EscapesIdentityInStatusQuery(t *testing.T) {
	identity := `740c6a0b|908bed80\nSpoOperation\nRemoveSite\n"quoted"&<x>`
	clock := newFakeClock(true)
	srv := newCSOMServer(t, clock,
		`[{"ErrorInfo":null},{"IsComplete":false,"PollingInterval":10,"_ObjectIdentity_":`+
			`"740c6a0b|908bed80\\nSpoOperation\\nRemoveSite\\n\"quoted\"&<x>"}]`,
		operationResponse(true, 0, "done"),
	)
	p := newTestPoller(srv)

	err := p.Start(context.Background(), domain.OperationRemoveSite, testSiteURL, true)
	require.NoError(t, err)

	bodies := srv.Bodies()
	require.Len(t, bodies, 2)
	assert.NotContains(t, bodies[1], `"quoted"`)

	var req struct {
		ObjectPaths struct {
			Identity struct {
				Name string `xml:"Name,attr"`
			} `xml:"Identity"`
		} `xml:"ObjectPaths"`
	}
	require.NoError(t, xml.Unmarshal([]byte(bodies[1]), &req))
	assert.Equal(t, strings.ReplaceAll(identity, `\n`, "\n"), req.ObjectPaths.Identity.Name)
}

func TestPoller_Start_RealClockHonoursInterval(t *testing.T) {
	srv := newCSOMServer(t, nil,
		operationResponse(false, 50, "id-1"),
		operationResponse(true, 0, "id-1"),
	)
	p := NewPoller(newTestClient(srv.Server, &fakeTokens{token: "token"}))

	start := time.Now()
	err := p.Start(context.Background(), domain.OperationRemoveSite, testSiteURL, true)

	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
	assert.Len(t, srv.Bodies(), 2)
}

func TestPhase_String(t *testing.T) {
	assert.Equal(t, "idle", PhaseIdle.String())
	assert.Equal(t, "dispatching", PhaseDispatching.String())
	assert.Equal(t, "waiting", PhaseWaiting.String())
	assert.Equal(t, "done", PhaseDone.String())
	assert.Equal(t, "failed", PhaseFailed.String())
	assert.Equal(t, "phase(9)", Phase(9).String())
}
