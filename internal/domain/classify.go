package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Classify evaluates a reading against the given thresholds and returns the
// resulting severity plus one issue string per violated rule, in rule order
// (pH, turbidity, chlorine). No issues means SeverityOK.
//
// Each rule raises severity to at least its own level without downgrading an
// earlier outcome, except the chlorine rule: residual free chlorine below
// rfc_low sets CRITICAL unconditionally. Absent measurements are skipped and
// never influence the outcome.
func Classify(in ReadingInput, thresholds Thresholds) (Severity, []string) {
	severity := SeverityOK
	var issues []string

	if in.PH != nil {
		if *in.PH < thresholds.value(ThresholdPHLow) || *in.PH > thresholds.value(ThresholdPHHigh) {
			issues = append(issues, fmt.Sprintf("pH out of range (%s)", formatMeasurement(*in.PH)))
			severity = SeverityHigh
		}
	}

	if in.Turbidity != nil {
		if *in.Turbidity > thresholds.value(ThresholdTurbidityHigh) {
			issues = append(issues, fmt.Sprintf("Turbidity high (%s NTU)", formatMeasurement(*in.Turbidity)))
			if severity < SeverityMedium {
				severity = SeverityMedium
			}
		}
	}

	if in.RFC != nil {
		if *in.RFC < thresholds.value(ThresholdRFCLow) {
			issues = append(issues, fmt.Sprintf("Low chlorine (%s mg/L)", formatMeasurement(*in.RFC)))
			severity = SeverityCritical
		}
	}

	return severity, issues
}

// formatMeasurement renders a measurement with an explicit decimal point:
// 9 → "9.0", 0.25 → "0.25". Issue strings end up in operator notifications,
// where "pH out of range (9)" reads like a truncated value.
func formatMeasurement(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
