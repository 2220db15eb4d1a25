package app

import (
	"math"
	"time"
)

// RunMetrics summarizes one dispatch run. It is computed once per run and
// never persisted here; consumers may log or store it.
type RunMetrics struct {
	TotalEmails           int   `json:"totalEmails"`
	SuccessfulEmails      int   `json:"successfulEmails"`
	FailedEmails          int   `json:"failedEmails"`
	SuccessRate           int   `json:"successRate"`
	TotalTimeMs           int64 `json:"totalTimeMs"`
	AverageTimePerEmailMs int64 `json:"averageTimePerEmailMs"`
	AverageTimePerBatchMs int64 `json:"averageTimePerBatchMs"`
}

// AggregateMetrics computes the run counters from per-task outcomes. A run
// with zero outcomes reports a 100% success rate so "nothing to do" never
// reads like an outage. Average time per email covers successful sends
// only.
func AggregateMetrics(outcomes []Outcome, totalTime time.Duration, batchCount int) RunMetrics {
	m := RunMetrics{
		TotalEmails: len(outcomes),
		TotalTimeMs: totalTime.Milliseconds(),
	}

	var successLatency time.Duration
	for _, o := range outcomes {
		if o.Success {
			m.SuccessfulEmails++
			successLatency += o.Latency
		} else {
			m.FailedEmails++
		}
	}

	if m.TotalEmails == 0 {
		m.SuccessRate = 100
	} else {
		m.SuccessRate = int(math.Round(float64(m.SuccessfulEmails) / float64(m.TotalEmails) * 100))
	}
	if m.SuccessfulEmails > 0 {
		m.AverageTimePerEmailMs = int64(math.Round(float64(successLatency.Milliseconds()) / float64(m.SuccessfulEmails)))
	}
	if batchCount > 0 {
		m.AverageTimePerBatchMs = int64(math.Round(float64(totalTime.Milliseconds()) / float64(batchCount)))
	}
	return m
}

// AlarmLevel classifies a run's health for operators.
type AlarmLevel string

const (
	AlarmNone     AlarmLevel = "NONE"
	AlarmWarning  AlarmLevel = "WARNING"
	AlarmCritical AlarmLevel = "CRITICAL"
)

// AlarmConfig holds the tunable alarm thresholds.
type AlarmConfig struct {
	WarningRate  int // success rate below this is a warning
	CriticalRate int // success rate below this is critical
	MaxFailed    int // more failures than this forces at least a warning
}

func DefaultAlarmConfig() AlarmConfig {
	return AlarmConfig{WarningRate: 80, CriticalRate: 50, MaxFailed: 10}
}

// CheckAlarms classifies but does not raise: paging or logging the result
// is the caller's concern. Zero-recipient runs never alarm.
func (c AlarmConfig) CheckAlarms(m RunMetrics) AlarmLevel {
	if m.TotalEmails == 0 {
		return AlarmNone
	}
	switch {
	case m.SuccessRate < c.CriticalRate:
		return AlarmCritical
	case m.SuccessRate < c.WarningRate:
		return AlarmWarning
	}
	if m.FailedEmails > c.MaxFailed {
		return AlarmWarning
	}
	return AlarmNone
}
