package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"staff_record_notifier/internal/domain/alert"
	idb "staff_record_notifier/internal/infra/database"
)

// Dispatcher walks a run's tasks batch by batch, sequentially within a
// batch, pausing per the plan, and records a ledger entry after every
// confirmed send. A duplicate ledger entry means another run already
// alerted that member at that tier and is a no-op; any other ledger write
// failure aborts the run because at-most-once delivery can no longer be
// guaranteed.
type Dispatcher struct {
	sender *RetryingSender
	ledger alert.Ledger
	logger *logrus.Logger

	sleep func(context.Context, time.Duration)
	now   func() time.Time
}

func NewDispatcher(sender *RetryingSender, ledger alert.Ledger, logger *logrus.Logger) *Dispatcher {
	return &Dispatcher{
		sender: sender,
		ledger: ledger,
		logger: logger,
		sleep:  sleepCtx,
		now:    time.Now,
	}
}

// Dispatch returns one outcome per attempted task. The outcome slice is
// valid even on error; a non-nil error means the run stopped (ledger
// unavailable or context canceled) before all tasks were attempted.
//
// The ledger entry is written only after the send is confirmed, so a crash
// between the two can cause one duplicate send on the next run. That
// matches the source system's behavior; closing the window would need a
// reserve/commit scheme with different observable semantics.
func (d *Dispatcher) Dispatch(ctx context.Context, tasks []Task, plan BatchPlan) ([]Outcome, error) {
	outcomes := make([]Outcome, 0, len(tasks))
	if len(tasks) == 0 {
		return outcomes, nil
	}
	if plan.BatchSize < 1 {
		plan.BatchSize = 1
	}

	for start := 0; start < len(tasks); start += plan.BatchSize {
		end := start + plan.BatchSize
		if end > len(tasks) {
			end = len(tasks)
		}
		batch := tasks[start:end]

		for i, task := range batch {
			if err := ctx.Err(); err != nil {
				return outcomes, fmt.Errorf("dispatch aborted: %w", err)
			}

			out := d.sender.Send(ctx, task)
			outcomes = append(outcomes, out)

			if out.Success {
				if err := d.recordAlert(ctx, task); err != nil {
					return outcomes, err
				}
			}

			if i < len(batch)-1 {
				d.sleep(ctx, plan.DelayBetweenEmails)
			}
		}

		if end < len(tasks) {
			d.sleep(ctx, plan.DelayBetweenBatches)
		}
	}

	return outcomes, nil
}

func (d *Dispatcher) recordAlert(ctx context.Context, task Task) error {
	rec := &alert.Record{
		StaffID:  task.Member.ID,
		PeriodID: task.Period.ID,
		Tier:     task.Tier,
		SentAt:   d.now(),
	}
	err := d.ledger.Insert(ctx, rec)
	if err == nil {
		return nil
	}
	if errors.Is(err, idb.ErrDuplicateAlert) {
		d.logger.WithFields(logrus.Fields{
			"staff_id": task.Member.ID,
			"tier":     string(task.Tier),
		}).Info("Alert record already present, treating as already alerted")
		return nil
	}
	return fmt.Errorf("ledger insert failed for staff %d: %w", task.Member.ID, err)
}
