package identity

import (
	"context"
	"testing"
	"time"

	"github.com/dhawalhost/igacore/internal/igaerr"
)

func TestMemoryStoreCreateAndGet(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	p, err := s.Create(ctx, CreateInput{EmployeeID: "EMP001", FirstName: "John", LastName: "Doe", Email: "john.doe@example.com", Department: "Engineering"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if p.Status != StatusActive || p.LifecycleState != LifecycleJoiner {
		t.Fatalf("unexpected defaults: %+v", p)
	}

	byID, err := s.Get(ctx, p.ID)
	if err != nil || byID.EmployeeID != "EMP001" {
		t.Fatalf("get by id failed: %v %+v", err, byID)
	}

	byEmp, err := s.GetByEmployeeID(ctx, "EMP001")
	if err != nil || byEmp.ID != p.ID {
		t.Fatalf("get by employee id failed: %v %+v", err, byEmp)
	}
}

func TestMemoryStoreDuplicateEmployeeIDRejected(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	if _, err := s.Create(ctx, CreateInput{EmployeeID: "EMP001"}); err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	_, err := s.Create(ctx, CreateInput{EmployeeID: "EMP001"})
	if !igaerr.IsValidation(err) {
		t.Fatalf("expected validation error for duplicate employee_id, got %v", err)
	}
}

func TestMemoryStoreGetUnknownReturnsNotFound(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.Get(context.Background(), "nonexistent")
	if !igaerr.IsNotFound(err) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestMemoryStoreUpdateMergesAndBumpsTimestamp(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	p, _ := s.Create(ctx, CreateInput{EmployeeID: "EMP001", Department: "Engineering"})

	updated, err := s.Update(ctx, p.ID, func(cur *Profile) error {
		cur.Department = "Sales"
		return nil
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Department != "Sales" {
		t.Fatalf("expected department Sales, got %s", updated.Department)
	}
	if !updated.UpdatedAt.After(p.UpdatedAt) && !updated.UpdatedAt.Equal(p.UpdatedAt) {
		t.Fatalf("expected updated_at to advance")
	}
}

func TestLockerSerializesPerKey(t *testing.T) {
	l := NewLocker()
	unlock := l.Lock("identity-1")
	done := make(chan struct{})
	go func() {
		defer close(done)
		unlock2 := l.Lock("identity-1")
		unlock2()
	}()

	select {
	case <-done:
		t.Fatalf("second lock acquired before first released")
	case <-time.After(20 * time.Millisecond):
	}

	unlock()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("second lock never acquired after release")
	}
}
