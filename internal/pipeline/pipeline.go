// Package pipeline orchestrates the ingestion of a single reading: parse,
// classify against the live thresholds, persist, then hand off to alerting.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/water-quality-monitor/internal/domain"
	"github.com/couchcryptid/water-quality-monitor/internal/observability"
)

// ThresholdSource supplies the current threshold set. Never fails.
type ThresholdSource interface {
	Get() domain.Thresholds
}

// ReadingRecorder persists classified readings and reports backend health.
type ReadingRecorder interface {
	Insert(ctx context.Context, in domain.ReadingInput, severity domain.Severity) (domain.StoredReading, error)
	Ping(ctx context.Context) error
}

// Alerter receives every classification outcome after the reading is
// committed. Implementations must never block or fail the caller.
type Alerter interface {
	Dispatch(severity domain.Severity, issues []string, recordedAt time.Time)
}

// Result is what a successful ingestion returns to the caller.
type Result struct {
	Reading  domain.StoredReading `json:"reading"`
	Severity domain.Severity      `json:"severity"`
	Issues   []string             `json:"issues"`
}

// Pipeline wires the ingestion stages together. Stateless between calls:
// every Ingest is an independent transaction over the stores.
type Pipeline struct {
	thresholds ThresholdSource
	readings   ReadingRecorder
	alerter    Alerter
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// New creates a Pipeline with the given stages and observability.
func New(thresholds ThresholdSource, readings ReadingRecorder, alerter Alerter, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		thresholds: thresholds,
		readings:   readings,
		alerter:    alerter,
		logger:     logger,
		metrics:    metrics,
	}
}

// Ingest runs one reading through the full path. The sequencing is a
// contract: the reading is persisted before the dispatcher sees it, so a
// failed or slow notification can never lose or roll back data. A storage
// failure surfaces to the caller wrapping domain.ErrStorageUnavailable and
// means the reading was not recorded.
func (p *Pipeline) Ingest(ctx context.Context, raw domain.RawReading) (Result, error) {
	start := time.Now()

	in := domain.ParseRawReading(raw)
	thresholds := p.thresholds.Get()
	severity, issues := domain.Classify(in, thresholds)

	stored, err := p.readings.Insert(ctx, in, severity)
	if err != nil {
		p.metrics.IngestFailures.Inc()
		return Result{}, fmt.Errorf("ingest reading: %w", err)
	}

	p.metrics.ReadingsIngested.Inc()
	p.metrics.ReadingsBySeverity.WithLabelValues(severity.String()).Inc()
	p.metrics.IngestDuration.Observe(time.Since(start).Seconds())

	p.alerter.Dispatch(severity, issues, stored.RecordedAt)

	p.logger.Debug("reading ingested",
		"id", stored.ID, "severity", severity.String(), "issues", len(issues))

	return Result{Reading: stored, Severity: severity, Issues: issues}, nil
}

// CheckReadiness reports whether the persistence backend is reachable.
func (p *Pipeline) CheckReadiness(ctx context.Context) error {
	return p.readings.Ping(ctx)
}
