// Package alert decides when a classified reading warrants an external
// notification and delivers it best-effort. Notification is strictly
// downstream of persistence: the reading is already committed when an alert
// is dispatched, so every failure here is logged and dropped, never
// propagated back to the ingestion path.
package alert

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/couchcryptid/water-quality-monitor/internal/domain"
)

// Notifier is the single capability the dispatcher needs from a
// notification channel. Implementations wrap failures in
// domain.ErrNotifyFailed.
type Notifier interface {
	Send(ctx context.Context, message string) error
}

// Alert is one pending notification.
type Alert struct {
	ID         string
	Severity   domain.Severity
	Issues     []string
	RecordedAt time.Time
}

// Body renders the notification text: severity label, reading timestamp,
// and one issue per line.
func (a Alert) Body() string {
	return fmt.Sprintf("Water quality alert [%s] at %s\n%s",
		a.Severity, a.RecordedAt.Format(time.RFC3339), strings.Join(a.Issues, "\n"))
}

// LogNotifier writes alerts to the service log. It is the fallback channel
// when no external transport is configured.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a log-backed notifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Send(_ context.Context, message string) error {
	n.logger.Warn("water quality alert", "message", message)
	return nil
}
