package alert

import "time"

// Evaluation is the result of comparing "now" against a period's activation
// time. DueTier is empty when no tier threshold falls exactly on the
// current day count; NextTier is empty once the final threshold is past.
type Evaluation struct {
	DaysSinceActivation int
	DueTier             Tier
	NextTier            Tier
}

// Evaluate computes the elapsed whole days since activation and the tier,
// if any, due on exactly that day. A tier is due only on the exact day its
// threshold names; a run skipped on that day does not catch up later.
// Activation times in the future clamp to day zero.
func Evaluate(now, activatedAt time.Time) Evaluation {
	days := int(now.Sub(activatedAt).Hours() / 24)
	if days < 0 {
		days = 0
	}

	ev := Evaluation{DaysSinceActivation: days}
	for _, t := range Tiers {
		if t.Threshold() == days {
			ev.DueTier = t
		}
		if t.Threshold() > days {
			ev.NextTier = t
			break
		}
	}
	return ev
}
