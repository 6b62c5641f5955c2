package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/openshelf/library-server-go/monitoring"
	"github.com/openshelf/library-server-go/pkg/apierrors"
	"github.com/openshelf/library-server-go/v1/models"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// DefaultSweepSchedule runs the overdue sweep once a day at midnight
const DefaultSweepSchedule = "@daily"

// OverdueSweeper is the background job that marks open loans past their
// due date as overdue and keeps their fines current. It is the only
// writer of the overdue status outside the renewal path.
type OverdueSweeper struct {
	db       *gorm.DB
	circ     *CirculationService
	cron     *cron.Cron
	schedule string
}

// NewOverdueSweeper creates a sweeper on the given cron schedule,
// falling back to the daily default when the schedule is empty.
func NewOverdueSweeper(db *gorm.DB, circ *CirculationService, schedule string) *OverdueSweeper {
	if schedule == "" {
		schedule = DefaultSweepSchedule
	}
	return &OverdueSweeper{
		db:       db,
		circ:     circ,
		cron:     cron.New(),
		schedule: schedule,
	}
}

// Start registers the sweep on the cron schedule and launches it
func (s *OverdueSweeper) Start() error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		if _, err := s.RunSweep(context.Background()); err != nil {
			slog.Error("Overdue sweep failed", "error", err)
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	slog.Info("Started overdue sweeper", "schedule", s.schedule)
	return nil
}

// Stop halts the cron scheduler; a sweep already running finishes
func (s *OverdueSweeper) Stop() {
	s.cron.Stop()
}

// RunSweep executes one sweep: flips borrowed loans past due to overdue
// and recomputes fines on every open overdue loan that has not been
// paid. Returns the number of loans newly marked.
func (s *OverdueSweeper) RunSweep(ctx context.Context) (int64, error) {
	start := time.Now()
	var marked int64

	err := s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.LoanTransaction{}).
			Where("status = ? AND due_date < ?", models.TransactionStatusBorrowed, s.circ.now()).
			Update("status", models.TransactionStatusOverdue)
		if result.Error != nil {
			return apierrors.Database("mark overdue", result.Error)
		}
		marked = result.RowsAffected

		var open []models.LoanTransaction
		err := tx.Where("status = ? AND fine_paid = ?", models.TransactionStatusOverdue, false).
			Find(&open).Error
		if err != nil {
			return apierrors.Database("list overdue", err)
		}

		for i := range open {
			amount := s.circ.fineFor(&open[i])
			if amount == open[i].FineAmount {
				continue
			}
			err := tx.Model(&models.LoanTransaction{}).
				Where("transaction_id = ?", open[i].TransactionID).
				Update("fine_amount", amount).Error
			if err != nil {
				return apierrors.Database("update fine", err)
			}
		}
		return nil
	})

	monitoring.RecordOverdueSweep(ctx, time.Since(start), marked)
	if err != nil {
		return 0, err
	}

	if marked > 0 {
		slog.Info("Overdue sweep complete", "marked", marked, "duration", time.Since(start))
	}
	return marked, nil
}
