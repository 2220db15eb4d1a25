package period

import "time"

// Period is a reporting period during which staff must submit their records
// of work. At most one period is active at a time; activating one is an
// administrator action outside this service, and this service reads periods
// only.
type Period struct {
	ID          int32
	Year        int
	Semester    int
	ActivatedAt time.Time
	IsActive    bool
	CreatedAt   time.Time
}
