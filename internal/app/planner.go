package app

import "time"

// BatchPlan is the pacing policy for one dispatch run: how many emails go
// out per batch and how long to pause between items and between batches.
// The pauses are backpressure protecting the mail transport from being
// rate-limited or blacklisted, not cosmetic.
type BatchPlan struct {
	BatchSize           int
	DelayBetweenEmails  time.Duration
	DelayBetweenBatches time.Duration
}

// PlanBatches derives the pacing policy from the recipient volume. Larger
// volumes get bigger batches with longer pauses so the aggregate send rate
// stays within what the transport tolerates. A plan is returned even for
// zero recipients; the dispatcher short-circuits on an empty task list.
func PlanBatches(recipientCount int) BatchPlan {
	switch {
	case recipientCount > 100:
		return BatchPlan{
			BatchSize:           20,
			DelayBetweenEmails:  2000 * time.Millisecond,
			DelayBetweenBatches: 5000 * time.Millisecond,
		}
	case recipientCount > 20:
		return BatchPlan{
			BatchSize:           10,
			DelayBetweenEmails:  1500 * time.Millisecond,
			DelayBetweenBatches: 4000 * time.Millisecond,
		}
	default:
		return BatchPlan{
			BatchSize:           5,
			DelayBetweenEmails:  1000 * time.Millisecond,
			DelayBetweenBatches: 3000 * time.Millisecond,
		}
	}
}
