package domain

import (
	"encoding/json"
	"fmt"
)

// Severity is the alert level assigned to a reading. Levels are ordered:
// OK < MEDIUM < HIGH < CRITICAL.
type Severity int

const (
	SeverityOK Severity = iota
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

var severityNames = [...]string{"OK", "MEDIUM", "HIGH", "CRITICAL"}

func (s Severity) String() string {
	if s < SeverityOK || s > SeverityCritical {
		return fmt.Sprintf("Severity(%d)", int(s))
	}
	return severityNames[s]
}

// ParseSeverity converts a stored severity label back to a Severity.
func ParseSeverity(label string) (Severity, error) {
	for i, name := range severityNames {
		if name == label {
			return Severity(i), nil
		}
	}
	return SeverityOK, fmt.Errorf("unknown severity %q", label)
}

// MarshalJSON encodes the severity as its label, e.g. "HIGH".
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a severity label.
func (s *Severity) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err != nil {
		return err
	}
	parsed, err := ParseSeverity(label)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
