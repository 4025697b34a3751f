package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"

	"github.com/couchcryptid/water-quality-monitor/internal/domain"
)

// ThresholdRepository holds the single live threshold set. Reads are served
// from an in-process copy so Get never fails; updates validate, persist to
// Postgres in one transaction, then swap the copy atomically. Readers only
// ever observe a complete set, never a partial merge.
type ThresholdRepository struct {
	db     *sql.DB
	logger *slog.Logger

	mu      sync.RWMutex
	current domain.Thresholds
}

// NewThresholdRepository loads the persisted thresholds, overlaying them on
// the factory defaults so a fresh or partially seeded table still yields a
// complete set.
func NewThresholdRepository(ctx context.Context, db *sql.DB, logger *slog.Logger) (*ThresholdRepository, error) {
	rows, err := db.QueryContext(ctx, `SELECT key, value FROM thresholds`)
	if err != nil {
		return nil, fmt.Errorf("load thresholds: %w: %v", domain.ErrStorageUnavailable, err)
	}
	defer rows.Close() //nolint:errcheck // read-only cursor

	persisted := domain.Thresholds{}
	for rows.Next() {
		var (
			key   string
			value float64
		)
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan threshold: %w: %v", domain.ErrStorageUnavailable, err)
		}
		persisted[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate thresholds: %w: %v", domain.ErrStorageUnavailable, err)
	}

	return &ThresholdRepository{
		db:      db,
		logger:  logger,
		current: domain.DefaultThresholds().Merge(persisted),
	}, nil
}

// Get returns the current threshold set. Never fails: the set is always
// complete in memory, falling back to factory defaults before any update
// has ever been applied.
func (r *ThresholdRepository) Get() domain.Thresholds {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current.Clone()
}

// Update merges partial into the current set. The merged result is validated
// before any mutation; on violation the stored set stays untouched and the
// error wraps domain.ErrInvalidThreshold. Persistence and the in-process
// swap happen as one logical step, so concurrent readers see either the old
// or the new set in full.
func (r *ThresholdRepository) Update(ctx context.Context, partial domain.Thresholds) error {
	if len(partial) == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	merged := r.current.Merge(partial)
	if err := merged.Validate(); err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("update thresholds: %w: %v", domain.ErrStorageUnavailable, err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for key, value := range partial {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO thresholds (key, value) VALUES ($1, $2)
			 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`,
			key, value)
		if err != nil {
			return fmt.Errorf("update threshold %s: %w: %v", key, domain.ErrStorageUnavailable, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit thresholds: %w: %v", domain.ErrStorageUnavailable, err)
	}

	r.current = merged
	r.logger.Info("thresholds updated", "keys", keysOf(partial))
	return nil
}

func keysOf(t domain.Thresholds) []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	return keys
}
