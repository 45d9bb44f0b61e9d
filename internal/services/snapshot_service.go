package services

import (
	"database/sql"
	"fmt"
	"log"
	"time"
)

// SnapshotService captures one balance snapshot per active student per
// calendar day. The per-(user, date) uniqueness constraint makes the job
// re-entrant: a crash halfway through a batch is repaired by simply running
// it again, since completed rows are skipped at the database level.
type SnapshotService struct {
	db     *sql.DB
	ledger *LedgerService
}

func NewSnapshotService(db *sql.DB, ledger *LedgerService) *SnapshotService {
	return &SnapshotService{db: db, ledger: ledger}
}

// TakeDailySnapshot records the current derived balance of every active
// student for the given day. Safe to invoke multiple times per day; only
// missing rows are created. Returns the number of snapshots created.
func (s *SnapshotService) TakeDailySnapshot(today time.Time) (int, error) {
	students, err := s.ListActiveStudentIDs()
	if err != nil {
		return 0, err
	}

	created := 0
	for _, studentID := range students {
		balance, err := s.ledger.Balance(studentID)
		if err != nil {
			return created, fmt.Errorf("snapshot balance read for user %d: %w", studentID, err)
		}

		// Duplicate days resolve to a no-op insert, never an error.
		result, err := s.db.Exec(`
			INSERT INTO daily_snapshots (user_id, snapshot_date, balance_at_snapshot)
			VALUES ($1, $2, $3)
			ON CONFLICT (user_id, snapshot_date) DO NOTHING`,
			studentID, today.Format("2006-01-02"), balance)
		if err != nil {
			return created, fmt.Errorf("snapshot insert for user %d: %w", studentID, err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return created, err
		}
		if rows > 0 {
			created++
		}
	}

	log.Printf("[SNAPSHOT] Daily snapshot complete: %d snapshots created", created)
	return created, nil
}

// ListActiveStudentIDs returns the ids of all accounts that participate in
// snapshotting and interest, ordered for deterministic batch processing.
func (s *SnapshotService) ListActiveStudentIDs() ([]int, error) {
	rows, err := s.db.Query(`
		SELECT id FROM users WHERE role = 'student' AND is_active = TRUE ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("active student query failed: %w", err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// MinSnapshotBalance returns the minimum snapshotted balance for the user in
// the inclusive [from, to] window, or ok=false when no snapshots exist there.
func (s *SnapshotService) MinSnapshotBalance(userID int, from, to time.Time) (int, bool, error) {
	var min sql.NullInt64
	err := s.db.QueryRow(`
		SELECT MIN(balance_at_snapshot) FROM daily_snapshots
		WHERE user_id = $1 AND snapshot_date >= $2 AND snapshot_date <= $3`,
		userID, from.Format("2006-01-02"), to.Format("2006-01-02")).Scan(&min)
	if err != nil {
		return 0, false, fmt.Errorf("snapshot window query failed: %w", err)
	}
	if !min.Valid {
		return 0, false, nil
	}
	return int(min.Int64), true, nil
}
