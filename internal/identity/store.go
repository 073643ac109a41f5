package identity

import (
	"context"
)

// CreateInput carries the fields required to create a new identity. The
// caller leaves ID, timestamps, status, lifecycle state, and entitlements
// to the store to initialize.
type CreateInput struct {
	EmployeeID string
	FirstName  string
	LastName   string
	Email      string
	Department string
	JobTitle   string
	ManagerID  string
}

// Store is the Identity Store's persistence contract. Implementations
// must make GetByEmployeeID/Create atomic with respect to each other so
// the employee_id uniqueness invariant holds under concurrent Joiners.
type Store interface {
	Get(ctx context.Context, id string) (Profile, error)
	GetByEmployeeID(ctx context.Context, employeeID string) (Profile, error)
	Create(ctx context.Context, in CreateInput) (Profile, error)
	Update(ctx context.Context, id string, mutate func(p *Profile) error) (Profile, error)
	List(ctx context.Context) ([]Profile, error)
}
