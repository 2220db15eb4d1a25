package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"staff_record_notifier/internal/app"
)

// runTimeout bounds a scheduled run; large rosters with full pacing delays
// stay well under this.
const runTimeout = 30 * time.Minute

// RunTrigger invokes the dispatch engine on a daily cron schedule. The cron
// expression only controls when the question is asked; the engine decides whether
// a reminder tier is actually due that day and repeated triggers on the
// same day are idempotent through the alert ledger.
type RunTrigger struct {
	cronEngine *cron.Cron
	service    *app.NotifierService
	logger     *logrus.Logger
	cronSpec   string
}

func NewRunTrigger(service *app.NotifierService, logger *logrus.Logger, cronSpec string) *RunTrigger {
	return &RunTrigger{
		cronEngine: cron.New(cron.WithLocation(time.Local)),
		service:    service,
		logger:     logger,
		cronSpec:   cronSpec,
	}
}

func (t *RunTrigger) Start() error {
	_, err := t.cronEngine.AddFunc(t.cronSpec, func() {
		t.logger.Info("Cron trigger fired, starting dispatch run")
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()

		res, err := t.service.RunOnce(ctx)
		if err != nil {
			t.logger.WithError(err).Error("Scheduled dispatch run failed")
			return
		}
		t.logger.WithFields(logrus.Fields{
			"run_id": res.RunID,
			"status": string(res.Status),
		}).Info("Scheduled dispatch run finished")
	})
	if err != nil {
		return fmt.Errorf("could not add daily dispatch cron job: %w", err)
	}

	t.cronEngine.Start()
	t.logger.WithField("cron_spec", t.cronSpec).Info("Dispatch scheduler started")
	return nil
}

func (t *RunTrigger) Stop() {
	t.logger.Info("Stopping dispatch scheduler...")
	ctx := t.cronEngine.Stop() // Waits for a running job to finish.
	<-ctx.Done()
	t.logger.Info("Dispatch scheduler stopped")
}
