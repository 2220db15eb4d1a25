package app

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"staff_record_notifier/internal/domain/alert"
	"staff_record_notifier/internal/domain/mailer"
	"staff_record_notifier/internal/domain/period"
	"staff_record_notifier/internal/domain/staff"
)

const reasonTimeout = "Timeout"

// Task is one reminder to deliver: a staff member, the tier due today and
// the period it belongs to. Days carries the elapsed day count for content
// rendering.
type Task struct {
	Member *staff.Member
	Tier   alert.Tier
	Period *period.Period
	Days   int
}

// Outcome is the terminal result of delivering (or failing to deliver) one
// task, retries included. Latency spans all attempts and retry pauses.
type Outcome struct {
	Member  *staff.Member
	Tier    alert.Tier
	Success bool
	Error   string
	Latency time.Duration
}

// ContentRenderer resolves message content. The engine selects the tier and
// passes the rendered subject and body through opaquely.
type ContentRenderer interface {
	Reminder(t Task) mailer.Message
	OversightSummary(action alert.OversightAction, tier alert.Tier, members []*staff.Member, p *period.Period, days int) mailer.Message
}

// RetryConfig bounds a single task's delivery: up to MaxRetries attempts,
// each cut off at AttemptTimeout, with a fixed RetryDelay pause between
// attempts.
type RetryConfig struct {
	MaxRetries     int
	AttemptTimeout time.Duration
	RetryDelay     time.Duration
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		AttemptTimeout: 10 * time.Second,
		RetryDelay:     2 * time.Second,
	}
}

// RetryingSender wraps the mail transport with retry and per-attempt
// timeout semantics. It never raises to the caller: transport failures,
// timeouts included, are captured into the Outcome so the dispatcher always
// receives a completed result.
type RetryingSender struct {
	client mailer.Client
	render ContentRenderer
	cfg    RetryConfig
	logger *logrus.Logger

	// sleep and now are injectable so tests run without wall-clock waits.
	sleep func(context.Context, time.Duration)
	now   func() time.Time
}

func NewRetryingSender(client mailer.Client, render ContentRenderer, cfg RetryConfig, logger *logrus.Logger) *RetryingSender {
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 1
	}
	return &RetryingSender{
		client: client,
		render: render,
		cfg:    cfg,
		logger: logger,
		sleep:  sleepCtx,
		now:    time.Now,
	}
}

// Send delivers one reminder, retrying on failure.
func (s *RetryingSender) Send(ctx context.Context, task Task) Outcome {
	msg := s.render.Reminder(task)
	ok, reason, latency := s.Deliver(ctx, msg)

	out := Outcome{Member: task.Member, Tier: task.Tier, Success: ok, Latency: latency}
	if !ok {
		out.Error = reason
	}
	return out
}

// Deliver runs the attempt loop for a single message and reports the final
// result. When every attempt fails the last failure reason is kept.
func (s *RetryingSender) Deliver(ctx context.Context, msg mailer.Message) (success bool, reason string, latency time.Duration) {
	start := s.now()
	var lastReason string

	for attempt := 1; attempt <= s.cfg.MaxRetries; attempt++ {
		if attempt > 1 {
			s.sleep(ctx, s.cfg.RetryDelay)
		}
		if err := ctx.Err(); err != nil {
			lastReason = err.Error()
			break
		}

		err := s.attempt(ctx, msg)
		if err == nil {
			return true, "", s.now().Sub(start)
		}
		lastReason = failureReason(err)
		s.logger.WithFields(logrus.Fields{
			"attempt":     attempt,
			"max_retries": s.cfg.MaxRetries,
			"reason":      lastReason,
		}).Warn("Email send attempt failed")
	}

	return false, lastReason, s.now().Sub(start)
}

// attempt performs one transport call bounded by the per-attempt timeout.
// The transport runs in its own goroutine so a client that ignores context
// cancellation still cannot hold the attempt past the deadline.
func (s *RetryingSender) attempt(ctx context.Context, msg mailer.Message) error {
	attemptCtx, cancel := context.WithTimeout(ctx, s.cfg.AttemptTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- s.client.Send(attemptCtx, msg)
	}()

	select {
	case err := <-done:
		return err
	case <-attemptCtx.Done():
		return attemptCtx.Err()
	}
}

func failureReason(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return reasonTimeout
	}
	return err.Error()
}

// sleepCtx pauses for d but returns early when ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
