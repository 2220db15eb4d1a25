package database

import (
	"context"
	"database/sql"
	"fmt"

	"staff_record_notifier/internal/domain/staff"
)

type PostgresStaffRepository struct {
	db *sql.DB
}

func NewPostgresStaffRepository(db *sql.DB) *PostgresStaffRepository {
	return &PostgresStaffRepository{db: db}
}

// ListWithoutRecords returns the active staff members with no record entry
// for the given period. This is the compliance query; the engine treats the
// result as authoritative and never caches it across runs.
func (r *PostgresStaffRepository) ListWithoutRecords(ctx context.Context, periodID int32) ([]*staff.Member, error) {
	query := `SELECT s.id, s.name, s.email, s.grade, s.is_active, s.created_at, s.updated_at
               FROM staff s
               WHERE s.is_active = TRUE
                 AND NOT EXISTS (
                     SELECT 1 FROM record_entries e
                     WHERE e.staff_id = s.id AND e.period_id = $1
                 )
               ORDER BY s.name`

	rows, err := r.db.QueryContext(ctx, query, periodID)
	if err != nil {
		return nil, fmt.Errorf("error listing staff without records: %w", err)
	}
	defer rows.Close()

	members := make([]*staff.Member, 0)
	for rows.Next() {
		m := &staff.Member{}
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Grade, &m.IsActive, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("error scanning staff member: %w", err)
		}
		members = append(members, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating staff without records: %w", err)
	}
	return members, nil
}

func (r *PostgresStaffRepository) CountActive(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM staff WHERE is_active = TRUE`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("error counting active staff: %w", err)
	}
	return count, nil
}
