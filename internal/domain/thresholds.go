package domain

import "fmt"

// Threshold keys. The set is open-ended: operators may configure additional
// keys (a future tds_high, for example) without a code change, but these
// four drive classification today.
const (
	ThresholdPHLow         = "pH_low"
	ThresholdPHHigh        = "pH_high"
	ThresholdTurbidityHigh = "turbidity_high"
	ThresholdRFCLow        = "rfc_low"
)

// Thresholds maps threshold keys to their configured values.
type Thresholds map[string]float64

// DefaultThresholds returns the factory configuration, applied when no
// thresholds have ever been saved. Values follow WHO drinking-water
// guidelines.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ThresholdPHLow:         6.5,
		ThresholdPHHigh:        8.5,
		ThresholdTurbidityHigh: 1.0,
		ThresholdRFCLow:        0.2,
	}
}

// Validate checks the configuration invariant: the pH band must be a
// non-empty interval. Returns an error wrapping ErrInvalidThreshold.
func (t Thresholds) Validate() error {
	low, hasLow := t[ThresholdPHLow]
	high, hasHigh := t[ThresholdPHHigh]
	if hasLow && hasHigh && low >= high {
		return fmt.Errorf("%w: pH_low (%g) must be below pH_high (%g)", ErrInvalidThreshold, low, high)
	}
	return nil
}

// Merge returns a copy of t with the keys of partial overlaid. Neither
// receiver nor argument is modified.
func (t Thresholds) Merge(partial Thresholds) Thresholds {
	merged := t.Clone()
	for k, v := range partial {
		merged[k] = v
	}
	return merged
}

// Clone returns an independent copy of t.
func (t Thresholds) Clone() Thresholds {
	clone := make(Thresholds, len(t))
	for k, v := range t {
		clone[k] = v
	}
	return clone
}

// value reads a threshold, falling back to the factory default when the key
// was never configured. Classification never fails on a sparse set.
func (t Thresholds) value(key string) float64 {
	if v, ok := t[key]; ok {
		return v
	}
	return DefaultThresholds()[key]
}
