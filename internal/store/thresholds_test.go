package store

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/water-quality-monitor/internal/domain"
)

func setupThresholdRepo(t *testing.T, persisted map[string]float64) (*sql.DB, sqlmock.Sqlmock, *ThresholdRepository) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	rows := sqlmock.NewRows([]string{"key", "value"})
	for k, v := range persisted {
		rows.AddRow(k, v)
	}
	mock.ExpectQuery(`SELECT key, value FROM thresholds`).WillReturnRows(rows)

	repo, err := NewThresholdRepository(context.Background(), db, slog.Default())
	require.NoError(t, err)
	return db, mock, repo
}

func TestThresholdRepository_Get_Defaults(t *testing.T) {
	db, _, repo := setupThresholdRepo(t, nil)
	defer db.Close()

	got := repo.Get()

	assert.Equal(t, domain.DefaultThresholds(), got)
}

func TestThresholdRepository_Get_LoadsPersisted(t *testing.T) {
	db, _, repo := setupThresholdRepo(t, map[string]float64{
		domain.ThresholdRFCLow: 0.5,
		"tds_high":             500,
	})
	defer db.Close()

	got := repo.Get()

	assert.Equal(t, 0.5, got[domain.ThresholdRFCLow])
	assert.Equal(t, 500.0, got["tds_high"])
	assert.Equal(t, 6.5, got[domain.ThresholdPHLow], "unset keys fall back to defaults")
}

func TestThresholdRepository_Update(t *testing.T) {
	t.Run("merges and persists", func(t *testing.T) {
		db, mock, repo := setupThresholdRepo(t, nil)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO thresholds`).
			WithArgs(domain.ThresholdTurbidityHigh, 2.5).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.Update(context.Background(), domain.Thresholds{domain.ThresholdTurbidityHigh: 2.5})

		require.NoError(t, err)
		got := repo.Get()
		assert.Equal(t, 2.5, got[domain.ThresholdTurbidityHigh])
		assert.Equal(t, 6.5, got[domain.ThresholdPHLow], "untouched keys survive")
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("repeating the same update is idempotent", func(t *testing.T) {
		db, mock, repo := setupThresholdRepo(t, nil)
		defer db.Close()

		for i := 0; i < 2; i++ {
			mock.ExpectBegin()
			mock.ExpectExec(`INSERT INTO thresholds`).
				WithArgs(domain.ThresholdRFCLow, 0.3).
				WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectCommit()

			require.NoError(t, repo.Update(context.Background(), domain.Thresholds{domain.ThresholdRFCLow: 0.3}))
		}

		assert.Equal(t, 0.3, repo.Get()[domain.ThresholdRFCLow])
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("inverted pH band is rejected before any write", func(t *testing.T) {
		db, mock, repo := setupThresholdRepo(t, nil)
		defer db.Close()

		err := repo.Update(context.Background(), domain.Thresholds{domain.ThresholdPHLow: 9.0})

		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrInvalidThreshold)
		assert.Equal(t, domain.DefaultThresholds(), repo.Get(), "stored set unchanged")
		require.NoError(t, mock.ExpectationsWereMet(), "no transaction was started")
	})

	t.Run("database failure keeps the old set", func(t *testing.T) {
		db, mock, repo := setupThresholdRepo(t, nil)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO thresholds`).
			WillReturnError(errors.New("connection reset"))
		mock.ExpectRollback()

		err := repo.Update(context.Background(), domain.Thresholds{domain.ThresholdRFCLow: 0.4})

		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
		assert.Equal(t, 0.2, repo.Get()[domain.ThresholdRFCLow])
	})

	t.Run("empty partial is a no-op", func(t *testing.T) {
		db, mock, repo := setupThresholdRepo(t, nil)
		defer db.Close()

		require.NoError(t, repo.Update(context.Background(), nil))
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestNewThresholdRepository_LoadError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT key, value FROM thresholds`).
		WillReturnError(errors.New("relation does not exist"))

	_, err = NewThresholdRepository(context.Background(), db, slog.Default())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
}
