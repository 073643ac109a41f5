package audit

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

const defaultListLimit = 100

// memoryStore is the default Store backing: an append-only slice guarded
// by a mutex, with a monotone sequence counter driving sort order.
type memoryStore struct {
	mu     sync.Mutex
	events []Event
	seq    uint64
}

// NewMemoryStore returns an empty in-memory Audit Log Store.
func NewMemoryStore() Store {
	return &memoryStore{}
}

func (s *memoryStore) Log(ctx context.Context, in LogInput) Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	actor := in.Actor
	if actor == "" {
		actor = "system"
	}
	status := in.Status
	if status == "" {
		status = StatusSuccess
	}

	s.seq++
	event := Event{
		ID:        uuid.NewString(),
		Sequence:  s.seq,
		Timestamp: time.Now().UTC(),
		Actor:     actor,
		Action:    in.Action,
		Target:    in.Target,
		Details:   in.Details,
		Status:    status,
	}
	s.events = append(s.events, event)
	return event
}

func (s *memoryStore) List(ctx context.Context, limit int) []Event {
	if limit <= 0 {
		limit = defaultListLimit
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Event, len(s.events))
	copy(out, s.events)
	sort.Slice(out, func(i, j int) bool { return out[i].Sequence > out[j].Sequence })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (s *memoryStore) ListByTarget(ctx context.Context, target string) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Event
	for _, e := range s.events {
		if e.Target == target {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sequence > out[j].Sequence })
	return out
}
