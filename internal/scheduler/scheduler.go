package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/spf13/viper"

	"github.com/dibbydollars/backend/internal/services"
)

// Scheduler drives the two batch jobs off wall-clock time: the daily balance
// snapshot and the weekly interest run. The services themselves carry no
// timing logic; anything that can call them on schedule (this ticker loop, an
// external cron, a manual admin trigger) works the same way.
//
// Firing the snapshot twice is harmless, the job is idempotent per day. The
// interest run is not: it must fire at most once per week, which this
// scheduler guarantees by sleeping a full week between runs.
type Scheduler struct {
	snapshots *services.SnapshotService
	interest  *services.InterestService
	config    *services.ConfigService
	stopCh    chan struct{}
}

func New(snapshots *services.SnapshotService, interest *services.InterestService, config *services.ConfigService) *Scheduler {
	viper.SetDefault("scheduler.snapshot_time", "23:55")
	viper.SetDefault("scheduler.interest_time", "23:59")

	return &Scheduler{
		snapshots: snapshots,
		interest:  interest,
		config:    config,
		stopCh:    make(chan struct{}),
	}
}

// Start runs both job loops until the context is canceled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	log.Println("[SCHEDULER] Background scheduler started")
	go s.runDailySnapshots(ctx)
	go s.runWeeklyInterest(ctx)
}

func (s *Scheduler) Stop() {
	close(s.stopCh)
}

func (s *Scheduler) runDailySnapshots(ctx context.Context) {
	hour, minute := parseClock(viper.GetString("scheduler.snapshot_time"), 23, 55)

	for {
		next := NextDaily(time.Now(), hour, minute)
		timer := time.NewTimer(time.Until(next))

		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-s.stopCh:
			timer.Stop()
			return
		case <-timer.C:
			count, err := s.snapshots.TakeDailySnapshot(time.Now())
			if err != nil {
				// Safe to leave for the next cycle: re-runs only fill
				// in snapshots that are still missing.
				log.Printf("[SCHEDULER] Daily snapshot failed: %v", err)
				continue
			}
			log.Printf("[SCHEDULER] Daily snapshot done: %d created", count)
		}
	}
}

func (s *Scheduler) runWeeklyInterest(ctx context.Context) {
	hour, minute := parseClock(viper.GetString("scheduler.interest_time"), 23, 59)

	for {
		day := s.interestDay()
		next := NextWeekly(time.Now(), day, hour, minute)
		timer := time.NewTimer(time.Until(next))

		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-s.stopCh:
			timer.Stop()
			return
		case <-timer.C:
			result, err := s.interest.CalculateWeeklyInterest(time.Now())
			if err != nil {
				log.Printf("[SCHEDULER] Weekly interest failed: %v", err)
				continue
			}
			if result.Skipped {
				log.Printf("[SCHEDULER] Weekly interest skipped: %s", result.Reason)
				continue
			}
			log.Printf("[SCHEDULER] Weekly interest done: %d students, %d DB$ at %.1f%%",
				result.StudentsReceivingInterest, result.TotalInterestDistributed, result.InterestRate)
		}
	}
}

// interestDay resolves the configured interest weekday, defaulting to Sunday.
func (s *Scheduler) interestDay() time.Weekday {
	raw, err := s.config.Get(services.ConfigInterestDay, "sunday")
	if err != nil {
		log.Printf("[SCHEDULER] Interest day lookup failed, using Sunday: %v", err)
		return time.Sunday
	}
	if day, ok := services.ParseWeekday(raw); ok {
		return day
	}
	return time.Sunday
}

// NextDaily returns the next occurrence of hour:minute strictly after now.
func NextDaily(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// NextWeekly returns the next occurrence of day at hour:minute strictly after now.
func NextWeekly(now time.Time, day time.Weekday, hour, minute int) time.Time {
	offset := (int(day) - int(now.Weekday()) + 7) % 7
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location()).AddDate(0, 0, offset)
	if !next.After(now) {
		next = next.AddDate(0, 0, 7)
	}
	return next
}

// parseClock parses "HH:MM", falling back to the given defaults.
func parseClock(s string, defHour, defMinute int) (int, int) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return defHour, defMinute
	}
	return t.Hour(), t.Minute()
}
