package request

import "context"

// Store is the Request Store's persistence contract. Mutate functions
// must observe the current status before applying a transition so
// callers can enforce the pending-only precondition atomically.
type Store interface {
	Get(ctx context.Context, id string) (AccessRequest, error)
	Create(ctx context.Context, in CreateInput) (AccessRequest, error)
	Update(ctx context.Context, id string, mutate func(r *AccessRequest) error) (AccessRequest, error)
	List(ctx context.Context, status Status) ([]AccessRequest, error)
}
