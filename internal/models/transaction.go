package models

import "time"

// Transaction types. Awards are always exactly 1 DB$.
const (
	TxDeposit  = "deposit"  // physical token cashed in
	TxAward    = "award"    // behavioral reward
	TxSpend    = "spend"    // future: in-app purchases
	TxInterest = "interest" // weekly interest credit
	TxRaffle   = "raffle"   // raffle prize winnings
)

// Transaction is one immutable entry in the DB$ ledger.
// A user's balance is the sum of all their transaction amounts; entries are
// never updated or deleted, corrections are compensating transactions.
type Transaction struct {
	ID           int       `json:"id" db:"id"`
	UserID       int       `json:"userId" db:"user_id"`
	Amount       int       `json:"amount" db:"amount"` // positive credit, negative debit
	Type         string    `json:"type" db:"type"`
	CategoryID   *int      `json:"categoryId" db:"category_id"`
	CategoryName *string   `json:"categoryName,omitempty"`
	Notes        *string   `json:"notes" db:"notes"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	CreatedByID  *int      `json:"createdById" db:"created_by_id"` // nil = system-generated
}

// ValidTxType reports whether s is one of the known transaction types.
func ValidTxType(s string) bool {
	switch s {
	case TxDeposit, TxAward, TxSpend, TxInterest, TxRaffle:
		return true
	}
	return false
}
