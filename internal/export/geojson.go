package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/couchcryptid/water-quality-monitor/internal/domain"
)

// GeoJSON feature collection types. Only readings with both coordinates
// become features; the rest have nowhere to sit on a map.

type featureCollection struct {
	Type     string    `json:"type"`
	Features []feature `json:"features"`
}

type feature struct {
	Type       string            `json:"type"`
	Geometry   geometry          `json:"geometry"`
	Properties featureProperties `json:"properties"`
}

type geometry struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"` // [lon, lat]
}

type featureProperties struct {
	ID         int64    `json:"id"`
	RecordedAt string   `json:"recorded_at"`
	PH         *float64 `json:"ph"`
	Turbidity  *float64 `json:"turbidity"`
	RFC        *float64 `json:"rfc"`
	TDS        *float64 `json:"tds"`
	Severity   string   `json:"severity"`
}

// WriteGeoJSON writes located readings as a GeoJSON FeatureCollection.
// Readings without coordinates are skipped.
func WriteGeoJSON(w io.Writer, readings []domain.StoredReading) error {
	fc := featureCollection{
		Type:     "FeatureCollection",
		Features: []feature{},
	}

	for _, r := range readings {
		if r.Lat == nil || r.Lon == nil {
			continue
		}
		fc.Features = append(fc.Features, feature{
			Type: "Feature",
			Geometry: geometry{
				Type:        "Point",
				Coordinates: [2]float64{*r.Lon, *r.Lat},
			},
			Properties: featureProperties{
				ID:         r.ID,
				RecordedAt: r.RecordedAt.Format(time.RFC3339),
				PH:         r.PH,
				Turbidity:  r.Turbidity,
				RFC:        r.RFC,
				TDS:        r.TDS,
				Severity:   r.Severity.String(),
			},
		})
	}

	if err := json.NewEncoder(w).Encode(fc); err != nil {
		return fmt.Errorf("encode geojson: %w", err)
	}
	return nil
}
