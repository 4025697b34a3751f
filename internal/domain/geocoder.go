package domain

import "context"

// GeocodingResult contains location data returned by a geocoding provider.
type GeocodingResult struct {
	Lat        float64
	Lon        float64
	PlaceName  string
	Confidence float64 // 0.0–1.0 provider confidence score
}

// Geocoder resolves a free-text place name to coordinates. The HTTP adapter
// uses it to fill lat/lon before ingestion when a caller supplies a place
// name instead of coordinates; the core itself never geocodes.
type Geocoder interface {
	ForwardGeocode(ctx context.Context, place string) (GeocodingResult, error)
}
