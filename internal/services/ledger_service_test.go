package services

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"github.com/dibbydollars/backend/internal/models"
)

func TestLedgerService_Append(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewLedgerService(db)

	t.Run("successful append", func(t *testing.T) {
		notes := "Weekly deposit"
		creatorID := 2

		mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM users WHERE id = \$1\)`).
			WithArgs(5).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		mock.ExpectQuery("INSERT INTO transactions").
			WithArgs(5, 100, models.TxDeposit, nil, &notes, &creatorID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).
				AddRow(42, time.Now()))

		entry, err := service.Append(5, 100, models.TxDeposit, nil, &notes, &creatorID)
		assert.NoError(t, err)
		assert.Equal(t, 42, entry.ID)
		assert.Equal(t, 5, entry.UserID)
		assert.Equal(t, 100, entry.Amount)
		assert.Equal(t, models.TxDeposit, entry.Type)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown account", func(t *testing.T) {
		mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM users WHERE id = \$1\)`).
			WithArgs(999).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		entry, err := service.Append(999, 1, models.TxAward, nil, nil, nil)
		assert.Nil(t, entry)
		assert.ErrorIs(t, err, ErrAccountNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("negative amounts are allowed", func(t *testing.T) {
		// Spends and corrections enter the ledger as negative entries.
		mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM users WHERE id = \$1\)`).
			WithArgs(5).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		mock.ExpectQuery("INSERT INTO transactions").
			WithArgs(5, -30, models.TxSpend, nil, nil, nil).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).
				AddRow(43, time.Now()))

		entry, err := service.Append(5, -30, models.TxSpend, nil, nil, nil)
		assert.NoError(t, err)
		assert.Equal(t, -30, entry.Amount)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLedgerService_Balance(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewLedgerService(db)

	t.Run("sums the full history", func(t *testing.T) {
		mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\) FROM transactions WHERE user_id = \$1`).
			WithArgs(5).
			WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(170))

		balance, err := service.Balance(5)
		assert.NoError(t, err)
		assert.Equal(t, 170, balance)
	})

	t.Run("empty history is zero", func(t *testing.T) {
		mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\) FROM transactions WHERE user_id = \$1`).
			WithArgs(7).
			WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(0))

		balance, err := service.Balance(7)
		assert.NoError(t, err)
		assert.Equal(t, 0, balance)
	})
}

func TestLedgerService_InterestEarned(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewLedgerService(db)

	mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\) FROM transactions WHERE user_id = \$1 AND type = \$2`).
		WithArgs(5, models.TxInterest).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(12))

	total, err := service.InterestEarned(5)
	assert.NoError(t, err)
	assert.Equal(t, 12, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
