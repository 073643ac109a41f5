package audit

import (
	"context"
	"testing"
)

func TestLogAssignsDefaultsAndMonotonicOrder(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	first := s.Log(ctx, LogInput{Action: "create_identity", Target: "alice@example.com"})
	if first.Actor != "system" || first.Status != StatusSuccess {
		t.Fatalf("expected default actor/status, got %+v", first)
	}

	second := s.Log(ctx, LogInput{Action: "terminate_identity", Target: "bob@example.com", Status: StatusFailure})
	if second.Sequence <= first.Sequence {
		t.Fatalf("expected strictly increasing sequence, got %d then %d", first.Sequence, second.Sequence)
	}

	all := s.List(ctx, 0)
	if len(all) != 2 {
		t.Fatalf("expected 2 events, got %d", len(all))
	}
	if all[0].Action != "terminate_identity" {
		t.Fatalf("expected newest-first ordering, got %+v", all)
	}
}

func TestListNeverShrinksAcrossAppends(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	prevLen := 0
	for i := 0; i < 10; i++ {
		s.Log(ctx, LogInput{Action: "noop", Target: "system"})
		cur := len(s.List(ctx, 0))
		if cur < prevLen {
			t.Fatalf("audit log shrank: %d -> %d", prevLen, cur)
		}
		prevLen = cur
	}
}

func TestListRespectsLimit(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		s.Log(ctx, LogInput{Action: "noop", Target: "system"})
	}
	if got := s.List(ctx, 3); len(got) != 3 {
		t.Fatalf("expected 3 events with limit, got %d", len(got))
	}
}

func TestListByTargetFiltersCorrectly(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	s.Log(ctx, LogInput{Action: "create_identity", Target: "alice@example.com"})
	s.Log(ctx, LogInput{Action: "create_identity", Target: "bob@example.com"})
	s.Log(ctx, LogInput{Action: "update_identity", Target: "alice@example.com"})

	got := s.ListByTarget(ctx, "alice@example.com")
	if len(got) != 2 {
		t.Fatalf("expected 2 events for alice, got %d", len(got))
	}
}
