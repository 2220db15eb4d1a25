package alert

import "context"

// Ledger is the durable alert record store. Insert must surface a duplicate
// (staff, period, tier) as a distinguishable error rather than silently
// succeeding, so callers can tell "first send" from "already alerted".
type Ledger interface {
	Exists(ctx context.Context, staffID int64, periodID int32, tier Tier) (bool, error)
	Insert(ctx context.Context, rec *Record) error
	CountByTier(ctx context.Context, periodID int32) (map[Tier]int, error)
}
