package database

import (
	"context"
	"database/sql"
	"fmt"

	"staff_record_notifier/internal/domain/period"
)

// Custom errors specific to the period repository
var ErrNoActivePeriod = fmt.Errorf("no active reporting period")
var ErrPeriodNotFound = fmt.Errorf("reporting period not found")

type PostgresPeriodRepository struct {
	db *sql.DB
}

func NewPostgresPeriodRepository(db *sql.DB) *PostgresPeriodRepository {
	return &PostgresPeriodRepository{db: db}
}

// GetActive returns the single active reporting period. The store owns the
// one-active-at-a-time invariant; ordering by activation time is only a
// guard against a misconfigured store.
func (r *PostgresPeriodRepository) GetActive(ctx context.Context) (*period.Period, error) {
	query := `SELECT id, year, semester, activated_at, is_active, created_at
               FROM reporting_periods
               WHERE is_active = TRUE
               ORDER BY activated_at DESC
               LIMIT 1`
	p := &period.Period{}
	err := r.db.QueryRowContext(ctx, query).Scan(&p.ID, &p.Year, &p.Semester, &p.ActivatedAt, &p.IsActive, &p.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNoActivePeriod
		}
		return nil, fmt.Errorf("error getting active reporting period: %w", err)
	}
	return p, nil
}

func (r *PostgresPeriodRepository) GetByID(ctx context.Context, id int32) (*period.Period, error) {
	query := `SELECT id, year, semester, activated_at, is_active, created_at
               FROM reporting_periods WHERE id = $1`
	p := &period.Period{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.Year, &p.Semester, &p.ActivatedAt, &p.IsActive, &p.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrPeriodNotFound
		}
		return nil, fmt.Errorf("error getting reporting period by ID: %w", err)
	}
	return p, nil
}
