package app

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"staff_record_notifier/internal/domain/alert"
	"staff_record_notifier/internal/domain/mailer"
	"staff_record_notifier/internal/domain/period"
	"staff_record_notifier/internal/domain/staff"
	idb "staff_record_notifier/internal/infra/database"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// fakeMailer scripts per-call results: errs[i] is returned for call i, and
// calls past the script succeed. With block set it ignores the script and
// waits for the context instead, simulating a hung transport.
type fakeMailer struct {
	mu    sync.Mutex
	errs  []error
	block bool
	sent  []mailer.Message
	calls int
}

func (f *fakeMailer) Send(ctx context.Context, msg mailer.Message) error {
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return f.errs[i]
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeMailer) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func (f *fakeMailer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

const stubOversightSubject = "oversight summary"

type stubRenderer struct {
	oversight []string
}

func (r stubRenderer) Reminder(t Task) mailer.Message {
	return mailer.Message{
		To:      []string{t.Member.Email},
		Subject: "reminder " + string(t.Tier),
		Body:    "body",
	}
}

func (r stubRenderer) OversightSummary(_ alert.OversightAction, _ alert.Tier, members []*staff.Member, _ *period.Period, _ int) mailer.Message {
	return mailer.Message{
		To:      r.oversight,
		Subject: stubOversightSubject,
		Body:    fmt.Sprintf("%d staff", len(members)),
	}
}

// fakeLedger is an in-memory alert ledger honoring the uniqueness contract.
type fakeLedger struct {
	mu        sync.Mutex
	records   map[string]alert.Tier
	existsErr error
	insertErr error
	inserts   int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{records: make(map[string]alert.Tier)}
}

func ledgerKey(staffID int64, periodID int32, tier alert.Tier) string {
	return fmt.Sprintf("%d:%d:%s", staffID, periodID, tier)
}

func (l *fakeLedger) Exists(_ context.Context, staffID int64, periodID int32, tier alert.Tier) (bool, error) {
	if l.existsErr != nil {
		return false, l.existsErr
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.records[ledgerKey(staffID, periodID, tier)]
	return ok, nil
}

func (l *fakeLedger) Insert(_ context.Context, rec *alert.Record) error {
	if l.insertErr != nil {
		return l.insertErr
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	key := ledgerKey(rec.StaffID, rec.PeriodID, rec.Tier)
	if _, ok := l.records[key]; ok {
		return idb.ErrDuplicateAlert
	}
	l.records[key] = rec.Tier
	l.inserts++
	return nil
}

func (l *fakeLedger) CountByTier(_ context.Context, _ int32) (map[alert.Tier]int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	counts := make(map[alert.Tier]int)
	for _, tier := range l.records {
		counts[tier]++
	}
	return counts, nil
}

func (l *fakeLedger) insertCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inserts
}

type fakePeriodRepo struct {
	active *period.Period
	err    error
}

func (r *fakePeriodRepo) GetActive(_ context.Context) (*period.Period, error) {
	if r.err != nil {
		return nil, r.err
	}
	if r.active == nil {
		return nil, idb.ErrNoActivePeriod
	}
	return r.active, nil
}

func (r *fakePeriodRepo) GetByID(_ context.Context, _ int32) (*period.Period, error) {
	return r.GetActive(context.Background())
}

type fakeStaffRepo struct {
	withoutRecords []*staff.Member
	totalActive    int
	err            error
}

func (r *fakeStaffRepo) ListWithoutRecords(_ context.Context, _ int32) ([]*staff.Member, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.withoutRecords, nil
}

func (r *fakeStaffRepo) CountActive(_ context.Context) (int, error) {
	if r.err != nil {
		return 0, r.err
	}
	return r.totalActive, nil
}

type fakePager struct {
	mu    sync.Mutex
	pages []AlarmLevel
}

func (p *fakePager) Page(_ context.Context, level AlarmLevel, _ string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pages = append(p.pages, level)
	return nil
}

func makeMembers(n int) []*staff.Member {
	members := make([]*staff.Member, 0, n)
	for i := 1; i <= n; i++ {
		members = append(members, &staff.Member{
			ID:       int64(i),
			Name:     fmt.Sprintf("Staff %d", i),
			Email:    fmt.Sprintf("staff%d@school.example", i),
			Grade:    "G1",
			IsActive: true,
		})
	}
	return members
}

// newTestSender builds a sender with recorded, non-blocking sleeps.
func newTestSender(client mailer.Client, cfg RetryConfig, oversight []string) (*RetryingSender, *[]time.Duration) {
	sleeps := &[]time.Duration{}
	s := NewRetryingSender(client, stubRenderer{oversight: oversight}, cfg, testLogger())
	s.sleep = func(_ context.Context, d time.Duration) {
		*sleeps = append(*sleeps, d)
	}
	return s, sleeps
}

// newTestDispatcher builds a dispatcher whose pacing sleeps are recorded
// instead of executed.
func newTestDispatcher(sender *RetryingSender, ledger alert.Ledger) (*Dispatcher, *[]time.Duration) {
	sleeps := &[]time.Duration{}
	d := NewDispatcher(sender, ledger, testLogger())
	d.sleep = func(_ context.Context, dur time.Duration) {
		*sleeps = append(*sleeps, dur)
	}
	return d, sleeps
}
