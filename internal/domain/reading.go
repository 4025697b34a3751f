package domain

import "time"

// RawReading is a reading exactly as submitted by a caller: every
// measurement is an unparsed string. Probes publish this shape as JSON and
// the HTTP adapter builds it from request fields.
type RawReading struct {
	PH        string `json:"ph"`
	Turbidity string `json:"turbidity"`
	RFC       string `json:"rfc"`
	TDS       string `json:"tds"`
	Lat       string `json:"lat"`
	Lon       string `json:"lon"`
}

// ReadingInput holds the parsed measurements of a reading before it is
// classified and stored. A nil pointer means the measurement is absent.
type ReadingInput struct {
	PH        *float64
	Turbidity *float64
	RFC       *float64
	TDS       *float64
	Lat       *float64
	Lon       *float64
}

// StoredReading is a persisted, classified reading. Immutable once stored:
// the store assigns ID and RecordedAt, the classifier assigns Severity, and
// nothing updates or deletes it afterwards.
type StoredReading struct {
	ID         int64     `json:"id"`
	RecordedAt time.Time `json:"recorded_at"`
	PH         *float64  `json:"ph"`
	Turbidity  *float64  `json:"turbidity"`
	RFC        *float64  `json:"rfc"`
	TDS        *float64  `json:"tds"`
	Lat        *float64  `json:"lat"`
	Lon        *float64  `json:"lon"`
	Severity   Severity  `json:"severity"`
}
