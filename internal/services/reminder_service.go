package services

import (
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/robfig/cron/v3"

	"taskline/internal/logging"
)

// ReminderService periodically scans the active collection and logs
// assignments whose deadline falls inside the reminder window (or has already
// passed) and that are not yet complete.
type ReminderService struct {
	scheduler gocron.Scheduler
	store     *CollectionStore
	window    time.Duration
	now       func() time.Time
}

// NewReminderService creates a reminder scheduler driven by a standard
// five-field cron expression.
func NewReminderService(store *CollectionStore, cronExpr string, window time.Duration) (*ReminderService, error) {
	if _, err := cron.ParseStandard(cronExpr); err != nil {
		return nil, fmt.Errorf("invalid reminder cron expression %q: %w", cronExpr, err)
	}

	scheduler, err := gocron.NewScheduler(
		gocron.WithLocation(time.UTC),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	rs := &ReminderService{
		scheduler: scheduler,
		store:     store,
		window:    window,
		now:       time.Now,
	}

	_, err = scheduler.NewJob(
		gocron.CronJob(cronExpr, false),
		gocron.NewTask(rs.Scan),
		gocron.WithName("deadline-reminders"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create reminder job: %w", err)
	}

	return rs, nil
}

// Start starts the scheduler.
func (rs *ReminderService) Start() {
	log.Println("⏰ Starting reminder service...")
	rs.scheduler.Start()
}

// Stop stops the scheduler.
func (rs *ReminderService) Stop() error {
	log.Println("⏹️ Stopping reminder service...")
	return rs.scheduler.Shutdown()
}

// Scan runs one reminder pass and returns how many assignments were flagged.
func (rs *ReminderService) Scan() int {
	now := rs.now()
	flagged := 0

	for _, a := range rs.store.Active() {
		if a.Progress >= 100 {
			continue
		}
		due, err := a.DeadlineTime()
		if err != nil {
			logging.WithAssignment(a.ID, a.Title).Warn("skipping reminder, bad deadline", "error", err)
			continue
		}

		until := due.Sub(now)
		switch {
		case until < 0:
			logging.WithAssignment(a.ID, a.Title).Warn("assignment overdue",
				"deadline", a.Deadline, "progress", a.Progress)
			flagged++
		case until <= rs.window:
			logging.WithAssignment(a.ID, a.Title).Info("assignment due soon",
				"deadline", a.Deadline, "due_in", until.Round(time.Hour).String(), "progress", a.Progress)
			flagged++
		}
	}
	return flagged
}
