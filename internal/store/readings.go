package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/water-quality-monitor/internal/domain"
)

// ReadingRepository is the append-only Postgres log of classified readings.
// Rows are inserted once and never updated or deleted.
type ReadingRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewReadingRepository creates a reading repository over an open connection.
func NewReadingRepository(db *sql.DB, logger *slog.Logger) *ReadingRepository {
	return &ReadingRepository{db: db, logger: logger}
}

const readingColumns = `id, recorded_at, ph, turbidity, rfc, tds, lat, lon, severity`

// Insert persists a classified reading. The database assigns both the
// identity and the timestamp in the same statement, so listing by id never
// shows timestamps out of order even under concurrent inserts; the caller
// never supplies either. Absent measurements persist as NULL.
func (r *ReadingRepository) Insert(ctx context.Context, in domain.ReadingInput, severity domain.Severity) (domain.StoredReading, error) {
	stored := domain.StoredReading{
		PH:        in.PH,
		Turbidity: in.Turbidity,
		RFC:       in.RFC,
		TDS:       in.TDS,
		Lat:       in.Lat,
		Lon:       in.Lon,
		Severity:  severity,
	}

	err := r.db.QueryRowContext(ctx,
		`INSERT INTO readings (recorded_at, ph, turbidity, rfc, tds, lat, lon, severity)
		 VALUES (clock_timestamp(), $1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, recorded_at`,
		in.PH, in.Turbidity, in.RFC, in.TDS, in.Lat, in.Lon, severity.String(),
	).Scan(&stored.ID, &stored.RecordedAt)
	if err != nil {
		r.logger.Error("insert reading failed", "error", err)
		return domain.StoredReading{}, fmt.Errorf("insert reading: %w: %v", domain.ErrStorageUnavailable, err)
	}
	stored.RecordedAt = stored.RecordedAt.UTC()

	return stored, nil
}

// ListRecent returns at most limit readings, newest first.
func (r *ReadingRepository) ListRecent(ctx context.Context, limit int) ([]domain.StoredReading, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("list recent: limit must be positive, got %d", limit)
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+readingColumns+` FROM readings ORDER BY id DESC LIMIT $1`, limit)
	if err != nil {
		r.logger.Error("list recent readings failed", "error", err)
		return nil, fmt.Errorf("list recent readings: %w: %v", domain.ErrStorageUnavailable, err)
	}
	return scanReadings(rows)
}

// ListAll returns every stored reading, newest first.
func (r *ReadingRepository) ListAll(ctx context.Context) ([]domain.StoredReading, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+readingColumns+` FROM readings ORDER BY id DESC`)
	if err != nil {
		r.logger.Error("list all readings failed", "error", err)
		return nil, fmt.Errorf("list all readings: %w: %v", domain.ErrStorageUnavailable, err)
	}
	return scanReadings(rows)
}

// Ping reports whether the backing database is reachable.
func (r *ReadingRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func scanReadings(rows *sql.Rows) ([]domain.StoredReading, error) {
	defer rows.Close() //nolint:errcheck // read-only cursor

	var readings []domain.StoredReading
	for rows.Next() {
		var stored domain.StoredReading
		var ph, turbidity, rfc, tds, lat, lon sql.NullFloat64
		var severityLabel string
		err := rows.Scan(&stored.ID, &stored.RecordedAt,
			&ph, &turbidity, &rfc, &tds, &lat, &lon, &severityLabel)
		if err != nil {
			return nil, fmt.Errorf("scan reading: %w: %v", domain.ErrStorageUnavailable, err)
		}

		stored.PH = nullToPtr(ph)
		stored.Turbidity = nullToPtr(turbidity)
		stored.RFC = nullToPtr(rfc)
		stored.TDS = nullToPtr(tds)
		stored.Lat = nullToPtr(lat)
		stored.Lon = nullToPtr(lon)

		stored.Severity, err = domain.ParseSeverity(severityLabel)
		if err != nil {
			return nil, fmt.Errorf("scan reading %d: %w", stored.ID, err)
		}

		readings = append(readings, stored)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate readings: %w: %v", domain.ErrStorageUnavailable, err)
	}
	return readings, nil
}
