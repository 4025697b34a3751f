package alert

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/couchcryptid/water-quality-monitor/internal/domain"
	"github.com/couchcryptid/water-quality-monitor/internal/observability"
)

// Dispatcher queues alerts for a single worker goroutine so a slow
// notification channel never blocks the ingestion path. Every failure mode
// (send error, timeout, full queue, cooldown) resolves to a log line and a
// metric; nothing propagates to the caller of Dispatch.
type Dispatcher struct {
	notifier Notifier
	policy   Policy
	cooldown Cooldown
	timeout  time.Duration
	logger   *slog.Logger
	metrics  *observability.Metrics

	mu     sync.Mutex
	closed bool
	queue  chan Alert
	done   chan struct{}
}

// Options tune a Dispatcher. Zero values select the defaults.
type Options struct {
	Policy    Policy        // default NotifyAtOrAbove(SeverityHigh)
	Cooldown  Cooldown      // default none
	Timeout   time.Duration // per-send deadline, default 10s
	QueueSize int           // default 64
}

// NewDispatcher creates a dispatcher and starts its worker.
func NewDispatcher(notifier Notifier, logger *slog.Logger, metrics *observability.Metrics, opts Options) *Dispatcher {
	if opts.Policy == nil {
		opts.Policy = NotifyAtOrAbove(domain.SeverityHigh)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 64
	}

	d := &Dispatcher{
		notifier: notifier,
		policy:   opts.Policy,
		cooldown: opts.Cooldown,
		timeout:  opts.Timeout,
		logger:   logger,
		metrics:  metrics,
		queue:    make(chan Alert, opts.QueueSize),
		done:     make(chan struct{}),
	}
	go d.run()
	return d
}

// Dispatch enqueues a notification for the given classification if the
// policy calls for one. Non-blocking: when the queue is full the alert is
// dropped and counted, because stalling ingestion over a slow notification
// channel is the one thing this component must never do. Safe to call
// concurrently with Close; alerts arriving after Close are dropped.
func (d *Dispatcher) Dispatch(severity domain.Severity, issues []string, recordedAt time.Time) {
	if !d.policy.ShouldNotify(severity) {
		return
	}

	a := Alert{
		ID:         uuid.NewString(),
		Severity:   severity,
		Issues:     issues,
		RecordedAt: recordedAt,
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		d.logger.Warn("dispatcher closed, dropping alert",
			"alert_id", a.ID, "severity", severity.String())
		d.metrics.AlertsDispatched.WithLabelValues("dropped").Inc()
		return
	}

	select {
	case d.queue <- a:
		d.metrics.AlertQueueDepth.Inc()
	default:
		d.logger.Error("alert queue full, dropping alert",
			"alert_id", a.ID, "severity", severity.String())
		d.metrics.AlertsDispatched.WithLabelValues("dropped").Inc()
	}
}

// Close stops accepting alerts and waits for the worker to drain the queue,
// bounded by ctx. Idempotent.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for a := range d.queue {
		d.metrics.AlertQueueDepth.Dec()
		d.send(a)
	}
}

func (d *Dispatcher) send(a Alert) {
	if d.cooldown != nil {
		allowed, err := d.cooldown.Allow(context.Background(), a.Severity)
		if err != nil {
			// Fail open: a broken cooldown store must not silence alerts.
			d.logger.Warn("cooldown check failed", "alert_id", a.ID, "error", err)
		} else if !allowed {
			d.logger.Info("alert suppressed by cooldown",
				"alert_id", a.ID, "severity", a.Severity.String())
			d.metrics.AlertsDispatched.WithLabelValues("suppressed").Inc()
			return
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	if err := d.notifier.Send(ctx, a.Body()); err != nil {
		d.logger.Error("alert notification failed",
			"alert_id", a.ID, "severity", a.Severity.String(), "error", err)
		d.metrics.AlertsDispatched.WithLabelValues("failed").Inc()
		return
	}

	d.logger.Info("alert notified",
		"alert_id", a.ID, "severity", a.Severity.String(), "issues", len(a.Issues))
	d.metrics.AlertsDispatched.WithLabelValues("sent").Inc()
}
