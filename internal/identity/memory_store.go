package identity

import (
	"context"
	"sync"
	"time"

	"github.com/dhawalhost/igacore/internal/igaerr"
	"github.com/google/uuid"
)

// memoryStore is the default Store backing: an in-process map guarded by
// a single RWMutex, with a secondary index from employee_id to id kept
// consistent with inserts under the same lock.
type memoryStore struct {
	mu           sync.RWMutex
	profiles     map[string]Profile
	byEmployeeID map[string]string
}

// NewMemoryStore returns an empty in-memory Identity Store.
func NewMemoryStore() Store {
	return &memoryStore{
		profiles:     make(map[string]Profile),
		byEmployeeID: make(map[string]string),
	}
}

func (s *memoryStore) Get(ctx context.Context, id string) (Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[id]
	if !ok {
		return Profile{}, igaerr.NotFound("identity %s not found", id)
	}
	return p.Clone(), nil
}

func (s *memoryStore) GetByEmployeeID(ctx context.Context, employeeID string) (Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmployeeID[employeeID]
	if !ok {
		return Profile{}, igaerr.NotFound("employee %s not found", employeeID)
	}
	return s.profiles[id].Clone(), nil
}

func (s *memoryStore) Create(ctx context.Context, in CreateInput) (Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmployeeID[in.EmployeeID]; exists {
		return Profile{}, igaerr.Validation("employee_id %s already exists", in.EmployeeID)
	}

	now := time.Now().UTC()
	p := Profile{
		ID:             uuid.NewString(),
		EmployeeID:     in.EmployeeID,
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		Email:          in.Email,
		Department:     in.Department,
		JobTitle:       in.JobTitle,
		ManagerID:      in.ManagerID,
		Status:         StatusActive,
		LifecycleState: LifecycleJoiner,
		RiskScore:      RiskLow,
		CreatedAt:      now,
		UpdatedAt:      now,
		Entitlements:   []string{},
	}
	s.profiles[p.ID] = p
	s.byEmployeeID[p.EmployeeID] = p.ID
	return p.Clone(), nil
}

func (s *memoryStore) Update(ctx context.Context, id string, mutate func(p *Profile) error) (Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[id]
	if !ok {
		return Profile{}, igaerr.NotFound("identity %s not found", id)
	}
	working := p.Clone()
	if err := mutate(&working); err != nil {
		return Profile{}, err
	}
	working.UpdatedAt = time.Now().UTC()
	s.profiles[id] = working
	return working.Clone(), nil
}

func (s *memoryStore) List(ctx context.Context) ([]Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		out = append(out, p.Clone())
	}
	return out, nil
}
