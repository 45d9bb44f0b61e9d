package services

import (
	"database/sql"
	"fmt"

	"github.com/dibbydollars/backend/internal/models"
)

// LedgerService owns the append-only DB$ transaction ledger. Balances are
// never stored: every read folds over the full transaction history, so the
// ledger stays the single source of truth. Corrections are compensating
// transactions, never updates or deletes.
type LedgerService struct {
	db *sql.DB
}

func NewLedgerService(db *sql.DB) *LedgerService {
	return &LedgerService{db: db}
}

// Append inserts one immutable ledger entry for the given user. The only
// validation done here is referential: the account must exist. Business rules
// (award amounts, deposit positivity) belong to the calling operation.
func (s *LedgerService) Append(userID, amount int, txType string, categoryID *int, notes *string, createdByID *int) (*models.Transaction, error) {
	return s.appendTx(nil, userID, amount, txType, categoryID, notes, createdByID)
}

// AppendTx is Append inside a caller-owned database transaction, for
// operations that pair a ledger entry with another write (e.g. raffle draws).
func (s *LedgerService) AppendTx(tx *sql.Tx, userID, amount int, txType string, categoryID *int, notes *string, createdByID *int) (*models.Transaction, error) {
	return s.appendTx(tx, userID, amount, txType, categoryID, notes, createdByID)
}

func (s *LedgerService) appendTx(tx *sql.Tx, userID, amount int, txType string, categoryID *int, notes *string, createdByID *int) (*models.Transaction, error) {
	var exists bool
	err := s.queryRow(tx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("account lookup failed: %w", err)
	}
	if !exists {
		return nil, ErrAccountNotFound
	}

	entry := &models.Transaction{
		UserID:      userID,
		Amount:      amount,
		Type:        txType,
		CategoryID:  categoryID,
		Notes:       notes,
		CreatedByID: createdByID,
	}

	err = s.queryRow(tx, `
		INSERT INTO transactions (user_id, amount, type, category_id, notes, created_by_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		userID, amount, txType, categoryID, notes, createdByID).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("ledger append failed: %w", err)
	}

	return entry, nil
}

// Balance returns the sum of all transaction amounts for the user, computed
// fresh on every call. Returns 0 for an account with no transactions.
func (s *LedgerService) Balance(userID int) (int, error) {
	var balance int
	err := s.db.QueryRow(`
		SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE user_id = $1`,
		userID).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("balance query failed: %w", err)
	}
	return balance, nil
}

// InterestEarned returns the lifetime sum of interest-type transactions.
func (s *LedgerService) InterestEarned(userID int) (int, error) {
	var total int
	err := s.db.QueryRow(`
		SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE user_id = $1 AND type = $2`,
		userID, models.TxInterest).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("interest earned query failed: %w", err)
	}
	return total, nil
}

func (s *LedgerService) queryRow(tx *sql.Tx, query string, args ...any) *sql.Row {
	if tx != nil {
		return tx.QueryRow(query, args...)
	}
	return s.db.QueryRow(query, args...)
}
