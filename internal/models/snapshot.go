package models

import "time"

// DailySnapshot records a student's derived balance for one calendar day.
// At most one row exists per (user, date); the snapshot job relies on that
// uniqueness to stay idempotent across re-runs.
type DailySnapshot struct {
	ID      int       `json:"id" db:"id"`
	UserID  int       `json:"userId" db:"user_id"`
	Date    time.Time `json:"date" db:"snapshot_date"`
	Balance int       `json:"balance" db:"balance_at_snapshot"`
}

// InterestRunResult summarizes one weekly interest run. It is returned for
// observability only; the interest transactions themselves are the audit trail.
type InterestRunResult struct {
	Success                   bool    `json:"success"`
	Skipped                   bool    `json:"skipped,omitempty"`
	Reason                    string  `json:"reason,omitempty"`
	StudentsReceivingInterest int     `json:"studentsReceivingInterest"`
	TotalInterestDistributed  int     `json:"totalInterestDistributed"`
	InterestRate              float64 `json:"interestRate"`
}
