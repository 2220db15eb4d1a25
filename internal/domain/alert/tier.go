package alert

// Tier is an escalation level for record-submission reminders. Each tier is
// bound to a fixed number of days after period activation and to the
// oversight action taken alongside the staff notifications.
type Tier string

const (
	TierFirst  Tier = "FIRST"
	TierSecond Tier = "SECOND"
	TierThird  Tier = "THIRD"
	TierFinal  Tier = "FINAL"
)

// Tiers lists all tiers in ascending threshold order.
var Tiers = []Tier{TierFirst, TierSecond, TierThird, TierFinal}

var tierThresholds = map[Tier]int{
	TierFirst:  3,
	TierSecond: 7,
	TierThird:  14,
	TierFinal:  21,
}

// Threshold returns the day offset after period activation at which this
// tier becomes due. Unknown tiers return 0.
func (t Tier) Threshold() int {
	return tierThresholds[t]
}

// OversightAction says what, beyond the staff reminders themselves, a tier
// requires towards the oversight recipients: the first reminder stays
// between the engine and the staff member, repeat reminders copy oversight,
// and the final tier escalates.
func (t Tier) OversightAction() OversightAction {
	switch t {
	case TierSecond, TierThird:
		return OversightCopy
	case TierFinal:
		return OversightEscalate
	default:
		return OversightNone
	}
}

// OversightAction is the oversight-facing requirement bound to a tier.
type OversightAction string

const (
	OversightNone     OversightAction = "NONE"
	OversightCopy     OversightAction = "COPY"
	OversightEscalate OversightAction = "ESCALATE"
)
