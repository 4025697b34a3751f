package alert_test

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/water-quality-monitor/internal/alert"
	"github.com/couchcryptid/water-quality-monitor/internal/domain"
	"github.com/couchcryptid/water-quality-monitor/internal/observability"
)

type fakeNotifier struct {
	mu       sync.Mutex
	messages []string
	err      error
	block    chan struct{} // when set, Send waits for it (or ctx)
}

func (n *fakeNotifier) Send(ctx context.Context, message string) error {
	if n.block != nil {
		select {
		case <-n.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.messages = append(n.messages, message)
	return nil
}

func (n *fakeNotifier) sent() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.messages...)
}

func closeDispatcher(t *testing.T, d *alert.Dispatcher) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, d.Close(ctx))
}

func TestDispatcher_NotifiesHighAndCritical(t *testing.T) {
	notifier := &fakeNotifier{}
	d := alert.NewDispatcher(notifier, slog.Default(), observability.NewMetricsForTesting(), alert.Options{})

	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	d.Dispatch(domain.SeverityOK, nil, ts)
	d.Dispatch(domain.SeverityMedium, []string{"Turbidity high (2.0 NTU)"}, ts)
	d.Dispatch(domain.SeverityHigh, []string{"pH out of range (9.0)"}, ts)
	d.Dispatch(domain.SeverityCritical, []string{"Low chlorine (0.1 mg/L)"}, ts)
	closeDispatcher(t, d)

	sent := notifier.sent()
	require.Len(t, sent, 2, "only HIGH and CRITICAL notify")
	assert.Contains(t, sent[0], "[HIGH]")
	assert.Contains(t, sent[1], "[CRITICAL]")
}

func TestDispatcher_MessageFormat(t *testing.T) {
	notifier := &fakeNotifier{}
	d := alert.NewDispatcher(notifier, slog.Default(), observability.NewMetricsForTesting(), alert.Options{})

	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	d.Dispatch(domain.SeverityCritical, []string{"pH out of range (9.0)", "Low chlorine (0.1 mg/L)"}, ts)
	closeDispatcher(t, d)

	sent := notifier.sent()
	require.Len(t, sent, 1)
	lines := strings.Split(sent[0], "\n")
	assert.Equal(t, "Water quality alert [CRITICAL] at 2025-06-01T12:00:00Z", lines[0])
	assert.Equal(t, []string{"pH out of range (9.0)", "Low chlorine (0.1 mg/L)"}, lines[1:])
}

func TestDispatcher_SwallowsSendFailures(t *testing.T) {
	notifier := &fakeNotifier{err: errors.New("channel unreachable")}
	d := alert.NewDispatcher(notifier, slog.Default(), observability.NewMetricsForTesting(), alert.Options{})

	// Must not panic, block, or surface the error anywhere.
	d.Dispatch(domain.SeverityCritical, []string{"Low chlorine (0.1 mg/L)"}, time.Now())
	closeDispatcher(t, d)

	assert.Empty(t, notifier.sent())
}

func TestDispatcher_SendTimeoutIsBounded(t *testing.T) {
	notifier := &fakeNotifier{block: make(chan struct{})} // never released
	d := alert.NewDispatcher(notifier, slog.Default(), observability.NewMetricsForTesting(), alert.Options{
		Timeout: 50 * time.Millisecond,
	})

	d.Dispatch(domain.SeverityHigh, []string{"pH out of range (9.0)"}, time.Now())

	// Close succeeds because the hung send is abandoned at the timeout.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, d.Close(ctx))
	assert.Empty(t, notifier.sent())
}

func TestDispatcher_FullQueueDropsInsteadOfBlocking(t *testing.T) {
	release := make(chan struct{})
	notifier := &fakeNotifier{block: release}
	d := alert.NewDispatcher(notifier, slog.Default(), observability.NewMetricsForTesting(), alert.Options{
		QueueSize: 1,
		Timeout:   5 * time.Second,
	})

	ts := time.Now()
	// First alert occupies the worker, second fills the queue, the rest
	// must drop without blocking this goroutine.
	for i := 0; i < 5; i++ {
		done := make(chan struct{})
		go func() {
			d.Dispatch(domain.SeverityHigh, []string{"pH out of range (9.0)"}, ts)
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("Dispatch blocked on a full queue")
		}
	}

	close(release)
	closeDispatcher(t, d)
	assert.LessOrEqual(t, len(notifier.sent()), 2)
}

func TestDispatcher_DispatchAfterCloseIsDropped(t *testing.T) {
	notifier := &fakeNotifier{}
	d := alert.NewDispatcher(notifier, slog.Default(), observability.NewMetricsForTesting(), alert.Options{})
	closeDispatcher(t, d)

	// A consumer goroutine can still be finishing an ingest when shutdown
	// closes the dispatcher; its trailing Dispatch must not panic.
	require.NotPanics(t, func() {
		d.Dispatch(domain.SeverityCritical, []string{"Low chlorine (0.1 mg/L)"}, time.Now())
	})
	assert.Empty(t, notifier.sent())
}

func TestDispatcher_ConcurrentDispatchAndClose(t *testing.T) {
	notifier := &fakeNotifier{}
	d := alert.NewDispatcher(notifier, slog.Default(), observability.NewMetricsForTesting(), alert.Options{})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.Dispatch(domain.SeverityHigh, []string{"pH out of range (9.0)"}, time.Now())
		}()
	}
	closeDispatcher(t, d)
	wg.Wait()

	// Close is idempotent and late closes still succeed.
	closeDispatcher(t, d)
}

func TestDispatcher_Cooldown(t *testing.T) {
	notifier := &fakeNotifier{}
	d := alert.NewDispatcher(notifier, slog.Default(), observability.NewMetricsForTesting(), alert.Options{
		Cooldown: alert.NewMemoryCooldown(time.Hour),
	})

	ts := time.Now()
	d.Dispatch(domain.SeverityHigh, []string{"pH out of range (9.0)"}, ts)
	d.Dispatch(domain.SeverityHigh, []string{"pH out of range (9.1)"}, ts)
	d.Dispatch(domain.SeverityCritical, []string{"Low chlorine (0.1 mg/L)"}, ts)
	closeDispatcher(t, d)

	sent := notifier.sent()
	require.Len(t, sent, 2, "second HIGH inside the window is suppressed")
	assert.Contains(t, sent[0], "[HIGH]")
	assert.Contains(t, sent[1], "[CRITICAL]")
}

func TestNotifyAtOrAbove(t *testing.T) {
	p := alert.NotifyAtOrAbove(domain.SeverityHigh)

	assert.False(t, p.ShouldNotify(domain.SeverityOK))
	assert.False(t, p.ShouldNotify(domain.SeverityMedium))
	assert.True(t, p.ShouldNotify(domain.SeverityHigh))
	assert.True(t, p.ShouldNotify(domain.SeverityCritical))
}
