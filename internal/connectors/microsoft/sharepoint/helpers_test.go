package sharepoint

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/custodia-labs/o365-cli/internal/connectors/microsoft"
)

// fakeClock implements Clock. With autoFire, timers fire at once and the clock
// advances by the timer duration, simulating the elapsed wait.
type fakeClock struct {
	mu        sync.Mutex
	now       time.Time
	autoFire  bool
	scheduled chan time.Duration
	timers    []*fakeTimer
}

func newFakeClock(autoFire bool) *fakeClock {
	return &fakeClock{
		now:       time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
		autoFire:  autoFire,
		scheduled: make(chan time.Duration, 64),
	}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *fakeClock) NewTimer(d time.Duration) Timer {
	t := &fakeTimer{ch: make(chan time.Time, 1)}

	c.mu.Lock()
	c.timers = append(c.timers, t)
	if c.autoFire {
		c.now = c.now.Add(d)
		t.ch <- c.now
	}
	c.mu.Unlock()

	c.scheduled <- d
	return t
}

// Scheduled drains and returns the durations of all timers created so far.
func (c *fakeClock) Scheduled() []time.Duration {
	var out []time.Duration
	for {
		select {
		case d := <-c.scheduled:
			out = append(out, d)
		default:
			return out
		}
	}
}

type fakeTimer struct {
	mu      sync.Mutex
	ch      chan time.Time
	stopped bool
	stops   int
}

func (t *fakeTimer) C() <-chan time.Time {
	return t.ch
}

func (t *fakeTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stops++
	wasActive := !t.stopped
	t.stopped = true
	return wasActive
}

// fakeTokens implements driven.TokenProvider for testing.
type fakeTokens struct {
	mu        sync.Mutex
	token     string
	err       error
	resources []string
}

func (f *fakeTokens) GetToken(_ context.Context, resource string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resources = append(f.resources, resource)
	return f.token, f.err
}

// csomServer scripts ProcessQuery responses and records requests.
type csomServer struct {
	*httptest.Server

	clock         *fakeClock
	digestTimeout int

	mu               sync.Mutex
	responses        []string
	bodies           []string
	digests          []string
	authHeaders      []string
	requestTimes     []time.Time
	contextInfoCalls int
}

func newCSOMServer(t *testing.T, clock *fakeClock, responses ...string) *csomServer {
	t.Helper()

	s := &csomServer{clock: clock, digestTimeout: 1800, responses: responses}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

func (s *csomServer) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch r.URL.Path {
	case contextInfoPath:
		s.contextInfoCalls++
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"FormDigestValue":"digest-%d","FormDigestTimeoutSeconds":%d}`,
			s.contextInfoCalls, s.digestTimeout)
	case processQueryPath:
		body, _ := io.ReadAll(r.Body)
		s.bodies = append(s.bodies, string(body))
		s.digests = append(s.digests, r.Header.Get("X-RequestDigest"))
		s.authHeaders = append(s.authHeaders, r.Header.Get("Authorization"))
		if s.clock != nil {
			s.requestTimes = append(s.requestTimes, s.clock.Now())
		}
		if len(s.responses) == 0 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		resp := s.responses[0]
		s.responses = s.responses[1:]
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, resp)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (s *csomServer) Bodies() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.bodies...)
}

func (s *csomServer) Digests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.digests...)
}

func (s *csomServer) ContextInfoCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.contextInfoCalls
}

func (s *csomServer) RequestTimes() []time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Time(nil), s.requestTimes...)
}

func newTestClient(srv *httptest.Server, tokens *fakeTokens) *Client {
	rl := microsoft.NewRateLimiterWithConfig(microsoft.ServiceSharePoint,
		microsoft.RateLimitConfig{RequestsPerSecond: 1000, BurstSize: 1000})
	api := microsoft.NewClient(srv.URL, tokens, rl, srv.Client())
	return NewClient(srv.URL, api)
}

func newTestPoller(srv *csomServer, opts ...Option) *Poller {
	opts = append([]Option{WithClock(srv.clock)}, opts...)
	return NewPoller(newTestClient(srv.Server, &fakeTokens{token: "token"}), opts...)
}

// operationResponse renders a successful ProcessQuery response ending in an SpoOperation.
func operationResponse(complete bool, intervalMs int, identity string) string {
	return fmt.Sprintf(`[{"SchemaVersion":"15.0.0.0","LibraryVersion":"16.0.7206.1204","ErrorInfo":null,`+
		`"TraceCorrelationId":"trace"},59,{"IsNull":false},60,`+
		`{"_ObjectType_":"Microsoft.Online.SharePoint.TenantAdministration.SpoOperation",`+
		`"_ObjectIdentity_":%q,"IsComplete":%t,"PollingInterval":%d}]`, identity, complete, intervalMs)
}

// errorResponse renders a ProcessQuery response carrying ErrorInfo.
func errorResponse(message string) string {
	return fmt.Sprintf(`[{"SchemaVersion":"15.0.0.0","LibraryVersion":"16.0.7206.1204",`+
		`"ErrorInfo":{"ErrorMessage":%q,"ErrorValue":null,"TraceCorrelationId":"corr",`+
		`"ErrorCode":-2147024809,"ErrorTypeName":"System.ArgumentException"},"TraceCorrelationId":"corr"}]`, message)
}
