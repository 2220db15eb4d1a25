package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staff_record_notifier/internal/domain/alert"
	"staff_record_notifier/internal/domain/period"
	"staff_record_notifier/internal/domain/staff"
)

func testTask() Task {
	return Task{
		Member: &staff.Member{ID: 7, Name: "Alice", Email: "alice@school.example", Grade: "G2"},
		Tier:   alert.TierFirst,
		Period: &period.Period{ID: 1, Year: 2026, Semester: 1},
		Days:   3,
	}
}

func fastRetryConfig() RetryConfig {
	return RetryConfig{MaxRetries: 3, AttemptTimeout: time.Second, RetryDelay: 2 * time.Second}
}

func TestRetryingSender_SuccessFirstAttempt(t *testing.T) {
	client := &fakeMailer{}
	sender, sleeps := newTestSender(client, fastRetryConfig(), nil)

	out := sender.Send(context.Background(), testTask())

	assert.True(t, out.Success)
	assert.Empty(t, out.Error)
	assert.Equal(t, 1, client.callCount())
	assert.Empty(t, *sleeps, "no retry delay on first-attempt success")
	require.Equal(t, 1, client.sentCount())
	assert.Equal(t, []string{"alice@school.example"}, client.sent[0].To)
}

func TestRetryingSender_SuccessAfterRetries(t *testing.T) {
	client := &fakeMailer{errs: []error{errors.New("connection reset"), errors.New("connection reset")}}
	sender, sleeps := newTestSender(client, fastRetryConfig(), nil)

	out := sender.Send(context.Background(), testTask())

	assert.True(t, out.Success)
	assert.Equal(t, 3, client.callCount())
	assert.Equal(t, []time.Duration{2 * time.Second, 2 * time.Second}, *sleeps)
}

func TestRetryingSender_ExhaustsRetries(t *testing.T) {
	client := &fakeMailer{errs: []error{
		errors.New("550 mailbox unavailable"),
		errors.New("451 try again"),
		errors.New("connection refused"),
	}}
	sender, _ := newTestSender(client, fastRetryConfig(), nil)

	out := sender.Send(context.Background(), testTask())

	assert.False(t, out.Success)
	assert.Equal(t, "connection refused", out.Error, "last failure reason is kept")
	assert.Equal(t, 3, client.callCount(), "no retry after the final attempt")
}

func TestRetryingSender_TimeoutReason(t *testing.T) {
	client := &fakeMailer{block: true}
	cfg := RetryConfig{MaxRetries: 2, AttemptTimeout: 10 * time.Millisecond, RetryDelay: time.Second}
	sender, _ := newTestSender(client, cfg, nil)

	out := sender.Send(context.Background(), testTask())

	assert.False(t, out.Success)
	assert.Equal(t, "Timeout", out.Error)
}

func TestRetryingSender_LatencyIsCumulative(t *testing.T) {
	client := &fakeMailer{errs: []error{errors.New("transient")}}
	sender, _ := newTestSender(client, fastRetryConfig(), nil)

	// Scripted clock: each now() call advances 50ms.
	base := time.Date(2026, 3, 25, 10, 0, 0, 0, time.UTC)
	calls := 0
	sender.now = func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * 50 * time.Millisecond)
	}

	out := sender.Send(context.Background(), testTask())

	assert.True(t, out.Success)
	assert.Equal(t, 50*time.Millisecond, out.Latency, "latency spans from first attempt to final result")
}

func TestRetryingSender_CanceledContextStopsRetrying(t *testing.T) {
	client := &fakeMailer{errs: []error{errors.New("transient")}}
	sender, _ := newTestSender(client, fastRetryConfig(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	sender.sleep = func(_ context.Context, _ time.Duration) { cancel() }

	out := sender.Send(ctx, testTask())

	assert.False(t, out.Success)
	assert.Equal(t, 1, client.callCount(), "no further attempts after cancellation")
}
