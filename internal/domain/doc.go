// Package domain models drinking-water quality readings and their
// classification.
//
// # Measurements
//
// A reading carries up to six measurements, all optional:
//
//	pH         acidity, unitless (WHO guideline band: 6.5 to 8.5)
//	turbidity  cloudiness in NTU (Nephelometric Turbidity Units)
//	rfc        residual free chlorine in mg/L
//	tds        total dissolved solids in ppm (recorded, not classified)
//	lat, lon   WGS-84 sample location
//
// Field probes and manual entry both submit measurements as free-form
// strings. Anything that does not parse as a number is treated as an absent
// measurement rather than an input error, so a probe with a failed sensor
// still produces a reduced but usable reading. Parsing happens exactly once,
// at the ingestion boundary ([ParseRawReading]); downstream code only sees
// present/absent *float64 values.
//
// # Severity classification
//
// [Classify] maps a reading against the active thresholds to one of four
// ordered severity levels: OK < MEDIUM < HIGH < CRITICAL.
//
//	pH outside [pH_low, pH_high]   → at least HIGH
//	turbidity above turbidity_high → at least MEDIUM
//	rfc below rfc_low              → always CRITICAL
//
// A chlorine deficit forces CRITICAL even when pH and turbidity are fine:
// unchlorinated water cannot be assumed safe regardless of how clear it
// looks. That precedence is deliberate and load-bearing; see DESIGN.md
// before changing it.
//
// Issue strings embed the offending value formatted with an explicit
// decimal point ("pH out of range (9.0)"), matching the notification
// format field operators already receive.
package domain
