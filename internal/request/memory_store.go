package request

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dhawalhost/igacore/internal/igaerr"
	"github.com/google/uuid"
)

// memoryStore is the default Store backing.
type memoryStore struct {
	mu       sync.Mutex
	requests map[string]AccessRequest
}

// NewMemoryStore returns an empty in-memory Request Store.
func NewMemoryStore() Store {
	return &memoryStore{requests: make(map[string]AccessRequest)}
}

func (s *memoryStore) Get(ctx context.Context, id string) (AccessRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[id]
	if !ok {
		return AccessRequest{}, igaerr.NotFound("request %s not found", id)
	}
	return r, nil
}

func (s *memoryStore) Create(ctx context.Context, in CreateInput) (AccessRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	r := AccessRequest{
		ID:               uuid.NewString(),
		RequesterID:      in.RequesterID,
		TargetIdentityID: in.TargetIdentityID,
		Entitlement:      in.Entitlement,
		Justification:    in.Justification,
		Status:           StatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	s.requests[r.ID] = r
	return r, nil
}

func (s *memoryStore) Update(ctx context.Context, id string, mutate func(r *AccessRequest) error) (AccessRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.requests[id]
	if !ok {
		return AccessRequest{}, igaerr.NotFound("request %s not found", id)
	}
	if err := mutate(&r); err != nil {
		return AccessRequest{}, err
	}
	r.UpdatedAt = time.Now().UTC()
	s.requests[id] = r
	return r, nil
}

func (s *memoryStore) List(ctx context.Context, status Status) ([]AccessRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]AccessRequest, 0, len(s.requests))
	for _, r := range s.requests {
		if status == "" || r.Status == status {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
