package domain

import (
	"math"
	"strconv"
	"strings"
)

// ParseRawReading converts caller-supplied string fields into parsed
// measurements. Empty or unparseable fields become absent measurements, not
// errors: a reading with a dead sensor is still worth recording.
func ParseRawReading(raw RawReading) ReadingInput {
	return ReadingInput{
		PH:        parseOptionalFloat(raw.PH),
		Turbidity: parseOptionalFloat(raw.Turbidity),
		RFC:       parseOptionalFloat(raw.RFC),
		TDS:       parseOptionalFloat(raw.TDS),
		Lat:       parseOptionalFloat(raw.Lat),
		Lon:       parseOptionalFloat(raw.Lon),
	}
}

// parseOptionalFloat parses a string as float64, returning nil for empty or
// malformed input. NaN and infinities are rejected too: they are sensor
// garbage, not measurements.
func parseOptionalFloat(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
