package alert

import "github.com/couchcryptid/water-quality-monitor/internal/domain"

// Policy decides whether a severity warrants notification. Kept separate
// from classification so notification rules can change without touching the
// classifier.
type Policy interface {
	ShouldNotify(severity domain.Severity) bool
}

// NotifyAtOrAbove returns a Policy that notifies when severity reaches min.
// The default policy is NotifyAtOrAbove(SeverityHigh): HIGH and CRITICAL
// notify, OK and MEDIUM do not.
func NotifyAtOrAbove(min domain.Severity) Policy {
	return minSeverityPolicy(min)
}

type minSeverityPolicy domain.Severity

func (p minSeverityPolicy) ShouldNotify(severity domain.Severity) bool {
	return severity >= domain.Severity(p)
}
