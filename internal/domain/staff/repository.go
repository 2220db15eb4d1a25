package staff

import "context"

// Repository defines read access to the staff roster. ListWithoutRecords is
// the authoritative compliance query: the staff members who have not
// submitted records of work for the given period. Results are never cached
// across runs.
type Repository interface {
	ListWithoutRecords(ctx context.Context, periodID int32) ([]*Member, error)
	CountActive(ctx context.Context) (int, error)
}
