package period

import "context"

// Repository defines read access to reporting periods.
type Repository interface {
	GetActive(ctx context.Context) (*Period, error)
	GetByID(ctx context.Context, id int32) (*Period, error)
}
