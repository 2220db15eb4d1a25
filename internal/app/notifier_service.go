package app

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"staff_record_notifier/internal/domain/alert"
	"staff_record_notifier/internal/domain/period"
	"staff_record_notifier/internal/domain/staff"
	idb "staff_record_notifier/internal/infra/database"
)

// RunStatus is the terminal state of one run.
type RunStatus string

const (
	RunNoActivePeriod RunStatus = "NO_ACTIVE_PERIOD"
	RunNoAlertDue     RunStatus = "NO_ALERT_DUE"
	RunAllCompliant   RunStatus = "ALL_COMPLIANT"
	RunAlreadyAlerted RunStatus = "ALREADY_ALERTED"
	RunCompleted      RunStatus = "COMPLETED"
	RunAborted        RunStatus = "ABORTED"
)

// RunResult is the externally visible outcome of one engine invocation.
// Aborted runs still carry the metrics gathered before the abort.
type RunResult struct {
	RunID               string                `json:"runId"`
	Status              RunStatus             `json:"status"`
	Reason              string                `json:"reason,omitempty"`
	PeriodID            int32                 `json:"periodId,omitempty"`
	DaysSinceActivation int                   `json:"daysSinceActivation"`
	DueTier             alert.Tier            `json:"dueTier,omitempty"`
	NextTier            alert.Tier            `json:"nextTier,omitempty"`
	OversightAction     alert.OversightAction `json:"oversightAction,omitempty"`
	Metrics             *RunMetrics           `json:"metrics,omitempty"`
	Alarm               AlarmLevel            `json:"alarm,omitempty"`
}

// StatusReport is the read-only view served by the trigger boundary. It has
// no side effects.
type StatusReport struct {
	PeriodID            int32              `json:"periodId"`
	Year                int                `json:"year"`
	Semester            int                `json:"semester"`
	DaysSinceActivation int                `json:"daysSinceActivation"`
	TierCounts          map[alert.Tier]int `json:"tierCounts"`
	StaffWithoutEntries int                `json:"staffWithoutEntries"`
	TotalStaff          int                `json:"totalStaff"`
	ComplianceRate      int                `json:"complianceRate"`
	NextTier            alert.Tier         `json:"nextTier,omitempty"`
	NextTierDueIn       int                `json:"nextTierDueIn,omitempty"`
}

// Pager raises a classified alarm to a human channel (e.g. a Telegram admin
// chat). Failures are logged by the caller, never propagated into the run.
type Pager interface {
	Page(ctx context.Context, level AlarmLevel, text string) error
}

// NotifierService orchestrates one dispatch run end to end: threshold
// evaluation, ledger gating, batch dispatch, metrics aggregation and the
// oversight action for the due tier. It holds no state between runs beyond
// what it reads from the store.
type NotifierService struct {
	periodRepo period.Repository
	staffRepo  staff.Repository
	ledger     alert.Ledger
	sender     *RetryingSender
	dispatcher *Dispatcher
	render     ContentRenderer
	alarms     AlarmConfig
	pager      Pager // optional; nil keeps alarms in the logs
	logger     *logrus.Logger
	now        func() time.Time
}

func NewNotifierService(
	periodRepo period.Repository,
	staffRepo staff.Repository,
	ledger alert.Ledger,
	sender *RetryingSender,
	dispatcher *Dispatcher,
	render ContentRenderer,
	alarms AlarmConfig,
	pager Pager,
	logger *logrus.Logger,
) *NotifierService {
	return &NotifierService{
		periodRepo: periodRepo,
		staffRepo:  staffRepo,
		ledger:     ledger,
		sender:     sender,
		dispatcher: dispatcher,
		render:     render,
		alarms:     alarms,
		pager:      pager,
		logger:     logger,
		now:        time.Now,
	}
}

// RunOnce executes one dispatch run. Terminal outcomes that are not
// failures (no active period, no tier due, everyone compliant or already
// alerted) return a result and a nil error; only ledger, period-store or
// compliance-source unavailability returns a non-nil error, alongside the
// partial result.
func (s *NotifierService) RunOnce(ctx context.Context) (*RunResult, error) {
	res := &RunResult{RunID: uuid.NewString()}
	log := s.logger.WithField("run_id", res.RunID)

	activePeriod, err := s.periodRepo.GetActive(ctx)
	if err != nil {
		if errors.Is(err, idb.ErrNoActivePeriod) {
			log.Info("No active reporting period, nothing to dispatch")
			res.Status = RunNoActivePeriod
			res.Reason = "no active reporting period"
			return res, nil
		}
		res.Status = RunAborted
		res.Reason = "period store unavailable"
		return res, fmt.Errorf("failed to load active period: %w", err)
	}
	res.PeriodID = activePeriod.ID

	ev := alert.Evaluate(s.now(), activePeriod.ActivatedAt)
	res.DaysSinceActivation = ev.DaysSinceActivation
	res.NextTier = ev.NextTier
	if ev.DueTier == "" {
		log.WithFields(logrus.Fields{
			"days":      ev.DaysSinceActivation,
			"next_tier": string(ev.NextTier),
		}).Info("No reminder tier due today")
		res.Status = RunNoAlertDue
		res.Reason = "no reminder tier due today"
		return res, nil
	}
	res.DueTier = ev.DueTier
	res.OversightAction = ev.DueTier.OversightAction()
	log = log.WithFields(logrus.Fields{"period_id": activePeriod.ID, "tier": string(ev.DueTier)})

	candidates, err := s.staffRepo.ListWithoutRecords(ctx, activePeriod.ID)
	if err != nil {
		res.Status = RunAborted
		res.Reason = "compliance source unavailable"
		return res, fmt.Errorf("failed to list staff without records: %w", err)
	}
	if len(candidates) == 0 {
		log.Info("All staff have submitted records, nothing to dispatch")
		res.Status = RunAllCompliant
		return res, nil
	}

	pending, err := s.filterUnalerted(ctx, candidates, activePeriod.ID, ev.DueTier)
	if err != nil {
		res.Status = RunAborted
		res.Reason = "alert ledger unavailable"
		return res, err
	}
	if len(pending) == 0 {
		log.WithField("candidates", len(candidates)).Info("All candidates already alerted at this tier")
		res.Status = RunAlreadyAlerted
		return res, nil
	}

	plan := PlanBatches(len(pending))
	tasks := make([]Task, 0, len(pending))
	for _, m := range pending {
		tasks = append(tasks, Task{Member: m, Tier: ev.DueTier, Period: activePeriod, Days: ev.DaysSinceActivation})
	}
	log.WithFields(logrus.Fields{
		"recipients": len(tasks),
		"batch_size": plan.BatchSize,
	}).Info("Dispatching reminders")

	started := s.now()
	outcomes, dispatchErr := s.dispatcher.Dispatch(ctx, tasks, plan)
	batches := (len(tasks) + plan.BatchSize - 1) / plan.BatchSize

	metrics := AggregateMetrics(outcomes, s.now().Sub(started), batches)
	res.Metrics = &metrics
	res.Alarm = s.alarms.CheckAlarms(metrics)

	if dispatchErr != nil {
		res.Status = RunAborted
		res.Reason = dispatchErr.Error()
		s.raiseAlarm(ctx, log, res)
		return res, dispatchErr
	}

	s.sendOversightSummary(ctx, log, ev.DueTier, pending, activePeriod, ev.DaysSinceActivation)
	s.raiseAlarm(ctx, log, res)

	res.Status = RunCompleted
	log.WithFields(logrus.Fields{
		"sent":         metrics.SuccessfulEmails,
		"failed":       metrics.FailedEmails,
		"success_rate": metrics.SuccessRate,
		"alarm":        string(res.Alarm),
	}).Info("Dispatch run completed")
	return res, nil
}

// Status reports the active period's compliance picture without side
// effects. ErrNoActivePeriod propagates so the caller can map it.
func (s *NotifierService) Status(ctx context.Context) (*StatusReport, error) {
	p, err := s.periodRepo.GetActive(ctx)
	if err != nil {
		if errors.Is(err, idb.ErrNoActivePeriod) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load active period: %w", err)
	}

	ev := alert.Evaluate(s.now(), p.ActivatedAt)

	counts, err := s.ledger.CountByTier(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count alert records: %w", err)
	}
	missing, err := s.staffRepo.ListWithoutRecords(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list staff without records: %w", err)
	}
	total, err := s.staffRepo.CountActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count active staff: %w", err)
	}

	rep := &StatusReport{
		PeriodID:            p.ID,
		Year:                p.Year,
		Semester:            p.Semester,
		DaysSinceActivation: ev.DaysSinceActivation,
		TierCounts:          counts,
		StaffWithoutEntries: len(missing),
		TotalStaff:          total,
	}
	if total > 0 {
		rep.ComplianceRate = int(math.Round(float64(total-len(missing)) / float64(total) * 100))
	} else {
		rep.ComplianceRate = 100
	}
	if ev.NextTier != "" {
		rep.NextTier = ev.NextTier
		rep.NextTierDueIn = ev.NextTier.Threshold() - ev.DaysSinceActivation
	}
	return rep, nil
}

// filterUnalerted drops candidates that already hold an alert record for
// this period and tier. Read errors abort the run: without the ledger the
// engine cannot promise at-most-once delivery.
func (s *NotifierService) filterUnalerted(ctx context.Context, candidates []*staff.Member, periodID int32, tier alert.Tier) ([]*staff.Member, error) {
	pending := make([]*staff.Member, 0, len(candidates))
	for _, m := range candidates {
		alerted, err := s.ledger.Exists(ctx, m.ID, periodID, tier)
		if err != nil {
			return nil, fmt.Errorf("ledger lookup failed for staff %d: %w", m.ID, err)
		}
		if alerted {
			s.logger.WithFields(logrus.Fields{
				"staff_id": m.ID,
				"tier":     string(tier),
			}).Debug("Already alerted at this tier, skipping")
			continue
		}
		pending = append(pending, m)
	}
	return pending, nil
}

// sendOversightSummary performs the tier's oversight action: at most one
// summary attempt sequence per run, never ledgered, failures logged and
// never retried across runs.
func (s *NotifierService) sendOversightSummary(ctx context.Context, log *logrus.Entry, tier alert.Tier, members []*staff.Member, p *period.Period, days int) {
	action := tier.OversightAction()
	if action == alert.OversightNone {
		return
	}

	msg := s.render.OversightSummary(action, tier, members, p, days)
	if len(msg.To) == 0 {
		log.Warn("Oversight action due but no oversight recipients configured")
		return
	}

	ok, reason, _ := s.sender.Deliver(ctx, msg)
	if !ok {
		log.WithFields(logrus.Fields{
			"action": string(action),
			"reason": reason,
		}).Error("Failed to send oversight summary")
		return
	}
	log.WithField("action", string(action)).Info("Oversight summary sent")
}

func (s *NotifierService) raiseAlarm(ctx context.Context, log *logrus.Entry, res *RunResult) {
	switch res.Alarm {
	case AlarmCritical:
		log.WithField("success_rate", res.Metrics.SuccessRate).Error("Run health critical")
	case AlarmWarning:
		log.WithField("success_rate", res.Metrics.SuccessRate).Warn("Run health degraded")
	default:
		return
	}

	if s.pager == nil {
		return
	}
	text := fmt.Sprintf("Reminder run %s tier %s: %d/%d sent (%d%% success)",
		res.RunID, res.DueTier, res.Metrics.SuccessfulEmails, res.Metrics.TotalEmails, res.Metrics.SuccessRate)
	if err := s.pager.Page(ctx, res.Alarm, text); err != nil {
		log.WithError(err).Warn("Failed to page alarm")
	}
}
