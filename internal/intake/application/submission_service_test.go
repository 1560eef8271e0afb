package application

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sngm3741/portfolio-services/api/internal/infrastructure/memory"
	"github.com/sngm3741/portfolio-services/api/internal/intake/domain"
)

type fakeRelay struct {
	mu            sync.Mutex
	err           error
	calls         int
	destinations  []string
	notifications []domain.Notification
	deadlineSet   bool
	onDeliver     func()
}

func (r *fakeRelay) Deliver(ctx context.Context, destination string, n domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.destinations = append(r.destinations, destination)
	r.notifications = append(r.notifications, n)
	_, r.deadlineSet = ctx.Deadline()
	if r.onDeliver != nil {
		r.onDeliver()
	}
	return r.err
}

type fakeRecorder struct {
	failures []domain.RelayFailure
	err      error
}

func (r *fakeRecorder) RecordRelayFailure(_ context.Context, failure domain.RelayFailure) error {
	r.failures = append(r.failures, failure)
	return r.err
}

type fakeGeo struct {
	origin domain.RequestOrigin
	calls  int
}

func (g *fakeGeo) Lookup(string) (domain.RequestOrigin, bool) {
	g.calls++
	return g.origin, true
}

type brokenLedger struct{}

func (brokenLedger) LastAccepted(context.Context, string) (time.Time, bool, error) {
	return time.Time{}, false, errors.New("connection refused")
}

func (brokenLedger) Record(context.Context, string, time.Time) error {
	return errors.New("connection refused")
}

type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time { return c.now }

func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type fixture struct {
	svc         SubmissionService
	ledger      *memory.CooldownLedger
	relay       *fakeRelay
	recorder    *fakeRecorder
	clock       *clock
	destination string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		ledger:      memory.NewCooldownLedger(),
		relay:       &fakeRelay{},
		recorder:    &fakeRecorder{},
		clock:       &clock{now: time.UnixMilli(1_760_000_000_000)},
		destination: "https://discord.example/api/webhooks/1/token",
	}
	f.svc = NewSubmissionService(SubmissionServiceConfig{
		Ledger:        f.ledger,
		Relay:         f.relay,
		Failures:      f.recorder,
		Destination:   func() string { return f.destination },
		Now:           f.clock.Now,
		NewIncidentID: func() string { return "incident-1" },
	})
	return f
}

func headersFor(source string) http.Header {
	h := http.Header{}
	if source != "" {
		h.Set("X-Forwarded-For", source)
	}
	return h
}

func TestSubmitRelaysAndRecordsCooldown(t *testing.T) {
	f := newFixture(t)
	h := headersFor("203.0.113.7, 10.0.0.1")
	h.Set("x-vercel-ip-country", "JP")
	h.Set("x-vercel-ip-city", "Tokyo")

	err := f.svc.Submit(context.Background(), []byte(`{"message":"  hello  "}`), h)
	require.NoError(t, err)

	require.Equal(t, 1, f.relay.calls)
	assert.Equal(t, f.destination, f.relay.destinations[0])
	assert.True(t, f.relay.deadlineSet, "relay must run with a bounded timeout")
	content := f.relay.notifications[0].Content
	assert.Contains(t, content, "New message:\nhello\n")
	assert.Contains(t, content, "IP: 203.0.113.7")
	assert.Contains(t, content, "Location: Tokyo, unknown, JP")
	assert.Contains(t, content, "Coords: unknown, unknown")

	at, ok, err := f.ledger.LastAccepted(context.Background(), "203.0.113.7")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, at.Equal(f.clock.now))
	assert.Empty(t, f.recorder.failures)
}

func TestSubmitValidationErrorsHaveNoSideEffects(t *testing.T) {
	cases := []struct {
		name string
		body string
		want error
	}{
		{name: "malformed", body: `{`, want: domain.ErrMalformedInput},
		{name: "missing", body: `{}`, want: domain.ErrInvalidField},
		{name: "non-string", body: `{"message":1}`, want: domain.ErrInvalidField},
		{name: "empty", body: `{"message":""}`, want: domain.ErrEmptyMessage},
		{name: "too long", body: `{"message":"` + strings.Repeat("x", 501) + `"}`, want: domain.ErrMessageTooLong},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			err := f.svc.Submit(context.Background(), []byte(tc.body), headersFor("1.1.1.1"))
			require.ErrorIs(t, err, tc.want)
			assert.Zero(t, f.relay.calls)
			assert.Zero(t, f.ledger.Len())
		})
	}
}

func TestSubmitLengthBoundary(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.svc.Submit(context.Background(), []byte(`{"message":"`+strings.Repeat("x", 500)+`"}`), headersFor("a")))

	err := f.svc.Submit(context.Background(), []byte(`{"message":"`+strings.Repeat("x", 501)+`"}`), headersFor("b"))
	require.ErrorIs(t, err, domain.ErrMessageTooLong)
}

func TestSubmitNotConfigured(t *testing.T) {
	f := newFixture(t)
	f.destination = "   "

	err := f.svc.Submit(context.Background(), []byte(`{"message":"hello"}`), headersFor("1.1.1.1"))
	require.ErrorIs(t, err, domain.ErrNotConfigured)
	assert.Zero(t, f.relay.calls)
	assert.Zero(t, f.ledger.Len(), "cooldown must not be consumed when not configured")
}

func TestSubmitReadsDestinationPerInvocation(t *testing.T) {
	f := newFixture(t)
	f.destination = ""
	require.ErrorIs(t, f.svc.Submit(context.Background(), []byte(`{"message":"hello"}`), headersFor("a")), domain.ErrNotConfigured)

	f.destination = "https://hooks.example/late"
	require.NoError(t, f.svc.Submit(context.Background(), []byte(`{"message":"hello"}`), headersFor("a")))
	assert.Equal(t, []string{"https://hooks.example/late"}, f.relay.destinations)
}

func TestSubmitCooldownWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	body := []byte(`{"message":"hello"}`)

	require.NoError(t, f.svc.Submit(ctx, body, headersFor("203.0.113.7")))

	f.clock.Advance(4999 * time.Millisecond)
	err := f.svc.Submit(ctx, []byte(`{"message":"different content"}`), headersFor("203.0.113.7"))
	require.ErrorIs(t, err, domain.ErrRateLimited)
	var cooldown *domain.CooldownError
	require.ErrorAs(t, err, &cooldown)
	assert.Equal(t, time.Millisecond, cooldown.RetryAfter)
	assert.Equal(t, 1, f.relay.calls)

	f.clock.Advance(time.Millisecond)
	require.NoError(t, f.svc.Submit(ctx, body, headersFor("203.0.113.7")))
	assert.Equal(t, 2, f.relay.calls)
}

func TestSubmitRateLimitedDoesNotExtendWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	body := []byte(`{"message":"hello"}`)
	start := f.clock.now

	require.NoError(t, f.svc.Submit(ctx, body, headersFor("k")))
	f.clock.Advance(3 * time.Second)
	require.ErrorIs(t, f.svc.Submit(ctx, body, headersFor("k")), domain.ErrRateLimited)

	at, _, _ := f.ledger.LastAccepted(ctx, "k")
	assert.True(t, at.Equal(start))
}

func TestSubmitDifferentSourcesDoNotInterfere(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	body := []byte(`{"message":"hello"}`)

	require.NoError(t, f.svc.Submit(ctx, body, headersFor("203.0.113.7")))
	require.NoError(t, f.svc.Submit(ctx, body, headersFor("198.51.100.4")))
	require.NoError(t, f.svc.Submit(ctx, body, http.Header{}))
	require.ErrorIs(t, f.svc.Submit(ctx, body, http.Header{}), domain.ErrRateLimited, "requests without headers share the unknown key")
	assert.Equal(t, 3, f.ledger.Len())
}

func TestSubmitRelayFailureConsumesCooldown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.relay.err = errors.New("webhook returned status=500")
	f.recorder.err = errors.New("mongo down")

	err := f.svc.Submit(ctx, []byte(`{"message":"hello"}`), headersFor("203.0.113.7"))
	require.ErrorIs(t, err, domain.ErrRelayFailed)
	assert.Equal(t, 1, f.relay.calls, "no internal retry")

	_, ok, _ := f.ledger.LastAccepted(ctx, "203.0.113.7")
	assert.True(t, ok, "ledger is written before the relay")

	require.Len(t, f.recorder.failures, 1)
	failure := f.recorder.failures[0]
	assert.Equal(t, "incident-1", failure.IncidentID)
	assert.Equal(t, "203.0.113.7", failure.SourceKey)
	assert.Equal(t, "hello", failure.Message)

	f.relay.err = nil
	require.ErrorIs(t, f.svc.Submit(ctx, []byte(`{"message":"hello"}`), headersFor("203.0.113.7")), domain.ErrRateLimited)
	assert.Equal(t, 1, f.relay.calls)
}

func TestSubmitLedgerWrittenBeforeRelay(t *testing.T) {
	f := newFixture(t)
	var recordedBeforeRelay bool
	f.relay.onDeliver = func() {
		_, recordedBeforeRelay, _ = f.ledger.LastAccepted(context.Background(), "k")
	}

	require.NoError(t, f.svc.Submit(context.Background(), []byte(`{"message":"hello"}`), headersFor("k")))
	assert.True(t, recordedBeforeRelay)
}

func TestSubmitRelayIgnoresCallerCancellation(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var relayCtxErr error
	f.relay.onDeliver = func() { cancel() }

	svc := f.svc.(*submissionService)
	svc.relay = relayFunc(func(rc context.Context, d string, n domain.Notification) error {
		_ = f.relay.Deliver(rc, d, n)
		relayCtxErr = rc.Err()
		return nil
	})

	require.NoError(t, svc.Submit(ctx, []byte(`{"message":"hello"}`), headersFor("k")))
	assert.NoError(t, relayCtxErr)
}

type relayFunc func(ctx context.Context, destination string, n domain.Notification) error

func (f relayFunc) Deliver(ctx context.Context, destination string, n domain.Notification) error {
	return f(ctx, destination, n)
}

func TestSubmitLedgerUnavailable(t *testing.T) {
	relay := &fakeRelay{}
	svc := NewSubmissionService(SubmissionServiceConfig{
		Ledger:      brokenLedger{},
		Relay:       relay,
		Destination: func() string { return "https://hooks.example" },
	})

	err := svc.Submit(context.Background(), []byte(`{"message":"hello"}`), headersFor("k"))
	require.ErrorIs(t, err, domain.ErrLedgerUnavailable)
	assert.Zero(t, relay.calls)
}

func TestSubmitGeoEnrichment(t *testing.T) {
	f := newFixture(t)
	geo := &fakeGeo{origin: domain.RequestOrigin{Country: "US", Region: "CA", City: "San Jose", Latitude: "37.3", Longitude: "-121.9"}}
	svc := f.svc.(*submissionService)
	svc.geo = geo

	h := headersFor("203.0.113.7")
	h.Set("x-vercel-ip-country", "JP")
	require.NoError(t, svc.Submit(context.Background(), []byte(`{"message":"hello"}`), h))

	content := f.relay.notifications[0].Content
	assert.Contains(t, content, "Location: San Jose, CA, JP")
	assert.Contains(t, content, "Coords: 37.3, -121.9")
	assert.Equal(t, 1, geo.calls)

	for _, key := range []string{"x-vercel-ip-country-region", "x-vercel-ip-city", "x-vercel-ip-latitude", "x-vercel-ip-longitude"} {
		h.Set(key, "x")
	}
	f.clock.Advance(domain.CooldownWindow)
	require.NoError(t, svc.Submit(context.Background(), []byte(`{"message":"hello"}`), h))
	assert.Equal(t, 1, geo.calls, "lookup skipped when headers are complete")
}
