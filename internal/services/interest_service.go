package services

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/dibbydollars/backend/internal/models"
)

// InterestService applies weekly interest to active student accounts based on
// the minimum balance observed across the trailing week of daily snapshots.
// Paying on the weekly minimum rather than the closing balance means a
// deposit made just before the run and withdrawn right after earns nothing;
// interest rewards sustained balance.
//
// A run is NOT idempotent: invoking it twice in the same week credits
// interest twice. There is no "already applied" guard; the scheduler firing
// at most once per week is an operational precondition.
type InterestService struct {
	db        *sql.DB
	ledger    *LedgerService
	snapshots *SnapshotService
	config    *ConfigService
}

func NewInterestService(db *sql.DB, ledger *LedgerService, snapshots *SnapshotService, config *ConfigService) *InterestService {
	return &InterestService{
		db:        db,
		ledger:    ledger,
		snapshots: snapshots,
		config:    config,
	}
}

// CalculateWeeklyInterest computes and credits interest for every active
// student. The rate is resolved from system config at call time; a
// non-positive rate short-circuits the whole run as a skip, not an error.
func (s *InterestService) CalculateWeeklyInterest(today time.Time) (*models.InterestRunResult, error) {
	rate, err := s.config.GetInterestRate()
	if err != nil {
		return nil, err
	}

	if rate <= 0 {
		log.Printf("[INTEREST] Skipping weekly interest: rate is %v", rate)
		return &models.InterestRunResult{
			Skipped:      true,
			Reason:       "Interest rate is 0",
			InterestRate: rate,
		}, nil
	}

	weekStart := today.AddDate(0, 0, -7)

	students, err := s.snapshots.ListActiveStudentIDs()
	if err != nil {
		return nil, err
	}

	credited := 0
	totalAmount := 0

	for _, studentID := range students {
		amount, minBalance, err := s.creditInterest(studentID, weekStart, today, rate)
		if err != nil {
			return nil, fmt.Errorf("interest for user %d: %w", studentID, err)
		}
		if amount > 0 {
			credited++
			totalAmount += amount
			log.Printf("[INTEREST] Credited %d DB$ to user %d (%.1f%% on min balance %d)",
				amount, studentID, rate, minBalance)
		}
	}

	log.Printf("[INTEREST] Weekly interest complete: %d students credited, %d DB$ distributed", credited, totalAmount)
	return &models.InterestRunResult{
		Success:                   true,
		StudentsReceivingInterest: credited,
		TotalInterestDistributed:  totalAmount,
		InterestRate:              rate,
	}, nil
}

// creditInterest applies interest for one student and returns the amount
// credited (0 when the student was skipped) plus the minimum balance used.
func (s *InterestService) creditInterest(studentID int, weekStart, today time.Time, rate float64) (int, int, error) {
	minBalance, ok, err := s.snapshots.MinSnapshotBalance(studentID, weekStart, today)
	if err != nil {
		return 0, 0, err
	}

	// No snapshots in the window (new account, or the snapshot job never
	// ran): treat the current balance as having been held all week. This is a
	// deliberate approximation that can overstate interest for accounts that
	// recently lost balance.
	if !ok {
		minBalance, err = s.ledger.Balance(studentID)
		if err != nil {
			return 0, 0, err
		}
	}

	// No interest on zero or negative balances.
	if minBalance <= 0 {
		return 0, minBalance, nil
	}

	// Truncate toward zero; zero-amount transactions are never created.
	amount := int(float64(minBalance) * rate / 100)
	if amount <= 0 {
		return 0, minBalance, nil
	}

	notes := fmt.Sprintf("Weekly interest (%v%% on min balance %d)", rate, minBalance)
	if _, err := s.ledger.Append(studentID, amount, models.TxInterest, nil, &notes, nil); err != nil {
		return 0, minBalance, err
	}

	return amount, minBalance, nil
}
