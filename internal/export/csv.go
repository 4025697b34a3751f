// Package export renders stored readings into downloadable formats. The
// HTTP adapter streams these directly into responses.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/couchcryptid/water-quality-monitor/internal/domain"
)

var csvHeader = []string{"id", "recorded_at", "ph", "turbidity", "rfc", "tds", "lat", "lon", "severity"}

// WriteCSV writes readings as CSV with a header row. Absent measurements
// render as empty cells.
func WriteCSV(w io.Writer, readings []domain.StoredReading) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, r := range readings {
		record := []string{
			strconv.FormatInt(r.ID, 10),
			r.RecordedAt.Format(time.RFC3339),
			formatCell(r.PH),
			formatCell(r.Turbidity),
			formatCell(r.RFC),
			formatCell(r.TDS),
			formatCell(r.Lat),
			formatCell(r.Lon),
			r.Severity.String(),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func formatCell(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
