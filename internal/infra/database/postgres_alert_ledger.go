package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"staff_record_notifier/internal/domain/alert"
)

// ErrDuplicateAlert signals a write for a (staff, period, tier) combination
// that already holds an alert record. Callers treat it as "already
// alerted", not as a failure.
var ErrDuplicateAlert = fmt.Errorf("duplicate alert record (staff_id, period_id, tier)")

const uniqueViolation = pq.ErrorCode("23505")

type PostgresAlertLedger struct {
	db *sql.DB
}

func NewPostgresAlertLedger(db *sql.DB) *PostgresAlertLedger {
	return &PostgresAlertLedger{db: db}
}

func (r *PostgresAlertLedger) Exists(ctx context.Context, staffID int64, periodID int32, tier alert.Tier) (bool, error) {
	query := `SELECT EXISTS(
                   SELECT 1 FROM alert_records
                   WHERE staff_id = $1 AND period_id = $2 AND tier = $3
               )`
	var exists bool
	err := r.db.QueryRowContext(ctx, query, staffID, periodID, tier).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error checking alert record: %w", err)
	}
	return exists, nil
}

// Insert relies on the alert_records unique constraint over
// (staff_id, period_id, tier): a concurrent run racing on the same pair
// surfaces here as ErrDuplicateAlert instead of a second record.
func (r *PostgresAlertLedger) Insert(ctx context.Context, rec *alert.Record) error {
	query := `INSERT INTO alert_records (staff_id, period_id, tier, sent_at)
               VALUES ($1, $2, $3, $4)
               RETURNING id`
	err := r.db.QueryRowContext(ctx, query, rec.StaffID, rec.PeriodID, rec.Tier, rec.SentAt).Scan(&rec.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrDuplicateAlert
		}
		return fmt.Errorf("error inserting alert record: %w", err)
	}
	return nil
}

func (r *PostgresAlertLedger) CountByTier(ctx context.Context, periodID int32) (map[alert.Tier]int, error) {
	query := `SELECT tier, COUNT(*) FROM alert_records WHERE period_id = $1 GROUP BY tier`

	rows, err := r.db.QueryContext(ctx, query, periodID)
	if err != nil {
		return nil, fmt.Errorf("error counting alert records by tier: %w", err)
	}
	defer rows.Close()

	counts := make(map[alert.Tier]int)
	for rows.Next() {
		var tier alert.Tier
		var count int
		if err := rows.Scan(&tier, &count); err != nil {
			return nil, fmt.Errorf("error scanning alert record count: %w", err)
		}
		counts[tier] = count
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating alert record counts: %w", err)
	}
	return counts, nil
}
