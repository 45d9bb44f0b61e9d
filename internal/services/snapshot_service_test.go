package services

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestSnapshotService_TakeDailySnapshot(t *testing.T) {
	today := time.Date(2026, 3, 10, 23, 55, 0, 0, time.UTC)

	t.Run("creates one snapshot per active student", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		service := NewSnapshotService(db, NewLedgerService(db))

		mock.ExpectQuery(`SELECT id FROM users WHERE role = 'student' AND is_active = TRUE ORDER BY id`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5).AddRow(6))

		mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\) FROM transactions WHERE user_id = \$1`).
			WithArgs(5).
			WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(120))
		mock.ExpectExec("INSERT INTO daily_snapshots").
			WithArgs(5, "2026-03-10", 120).
			WillReturnResult(sqlmock.NewResult(1, 1))

		mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\) FROM transactions WHERE user_id = \$1`).
			WithArgs(6).
			WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(0))
		mock.ExpectExec("INSERT INTO daily_snapshots").
			WithArgs(6, "2026-03-10", 0).
			WillReturnResult(sqlmock.NewResult(2, 1))

		created, err := service.TakeDailySnapshot(today)
		assert.NoError(t, err)
		assert.Equal(t, 2, created)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("second run of the same day creates nothing", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		service := NewSnapshotService(db, NewLedgerService(db))

		mock.ExpectQuery(`SELECT id FROM users WHERE role = 'student' AND is_active = TRUE ORDER BY id`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))

		mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\) FROM transactions WHERE user_id = \$1`).
			WithArgs(5).
			WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(120))

		// ON CONFLICT DO NOTHING reports zero rows affected.
		mock.ExpectExec("INSERT INTO daily_snapshots").
			WithArgs(5, "2026-03-10", 120).
			WillReturnResult(sqlmock.NewResult(0, 0))

		created, err := service.TakeDailySnapshot(today)
		assert.NoError(t, err)
		assert.Equal(t, 0, created)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no active students", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()

		service := NewSnapshotService(db, NewLedgerService(db))

		mock.ExpectQuery(`SELECT id FROM users WHERE role = 'student' AND is_active = TRUE ORDER BY id`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		created, err := service.TakeDailySnapshot(today)
		assert.NoError(t, err)
		assert.Equal(t, 0, created)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSnapshotService_MinSnapshotBalance(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewSnapshotService(db, NewLedgerService(db))
	from := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	t.Run("returns the window minimum", func(t *testing.T) {
		mock.ExpectQuery(`SELECT MIN\(balance_at_snapshot\) FROM daily_snapshots`).
			WithArgs(5, "2026-03-03", "2026-03-10").
			WillReturnRows(sqlmock.NewRows([]string{"min"}).AddRow(50))

		min, ok, err := service.MinSnapshotBalance(5, from, to)
		assert.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, 50, min)
	})

	t.Run("no snapshots in window", func(t *testing.T) {
		mock.ExpectQuery(`SELECT MIN\(balance_at_snapshot\) FROM daily_snapshots`).
			WithArgs(5, "2026-03-03", "2026-03-10").
			WillReturnRows(sqlmock.NewRows([]string{"min"}).AddRow(nil))

		_, ok, err := service.MinSnapshotBalance(5, from, to)
		assert.NoError(t, err)
		assert.False(t, ok)
	})
}
