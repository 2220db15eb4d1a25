package alert

import "time"

// Record is the durable idempotency marker proving a staff member was
// already notified at a given tier for a period. At most one record exists
// per (staff, period, tier); the store enforces this with a unique
// constraint. Records are created only after a send is confirmed and are
// never updated or deleted by this service.
type Record struct {
	ID       int64
	StaffID  int64
	PeriodID int32
	Tier     Tier
	SentAt   time.Time
}
