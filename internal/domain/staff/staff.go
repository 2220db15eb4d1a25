package staff

import "time"

// Member is a staff member eligible for record-submission reminders.
type Member struct {
	ID        int64
	Name      string
	Email     string
	Grade     string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
