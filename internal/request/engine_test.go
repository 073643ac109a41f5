package request

import (
	"context"
	"testing"

	"github.com/dhawalhost/igacore/internal/audit"
	"github.com/dhawalhost/igacore/internal/connector"
	"github.com/dhawalhost/igacore/internal/connector/azuread"
	"github.com/dhawalhost/igacore/internal/connector/github"
	"github.com/dhawalhost/igacore/internal/connector/slack"
	"github.com/dhawalhost/igacore/internal/identity"
	"github.com/dhawalhost/igacore/internal/igaerr"
	"github.com/dhawalhost/igacore/internal/jml"
)

func newTestHarness(t *testing.T) (*Engine, identity.Store, *jml.Engine) {
	t.Helper()
	identities := identity.NewMemoryStore()
	auditLog := audit.NewMemoryStore()
	registry := connector.NewRegistry(azuread.New(), github.New(), slack.New())
	locker := identity.NewLocker()
	jmlEngine := jml.New(identities, auditLog, registry, locker)
	reqStore := NewMemoryStore()
	reqEngine := New(reqStore, identities, auditLog, jmlEngine, nil)
	return reqEngine, identities, jmlEngine
}

func joinTestIdentity(t *testing.T, jmlEngine *jml.Engine, employeeID, email, department string) string {
	t.Helper()
	result := jmlEngine.ProcessEvent(context.Background(), jml.Event{
		Type: jml.EventEmployeeCreated, EmployeeID: employeeID,
		FirstName: "Test", LastName: "User", Email: email, Department: department, JobTitle: "IC",
	})
	if result.Status != jml.StatusSuccess {
		t.Fatalf("setup join failed: %+v", result)
	}
	return result.IdentityID
}

func TestAccessRequestEndToEnd(t *testing.T) {
	reqEngine, _, jmlEngine := newTestHarness(t)
	ctx := context.Background()

	alice := joinTestIdentity(t, jmlEngine, "EMP-ALICE", "alice@example.com", "Engineering")
	bob := joinTestIdentity(t, jmlEngine, "EMP-BOB", "bob@example.com", "Engineering")

	req, err := reqEngine.Submit(ctx, alice, "GitHub:SuperAdmin", "need admin for release")
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if req.Status != StatusPending {
		t.Fatalf("expected pending, got %s", req.Status)
	}

	approved, err := reqEngine.Approve(ctx, req.ID, bob)
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if approved.Status != StatusApproved {
		t.Fatalf("expected approved, got %+v", approved)
	}
}

func TestSelfApprovalForbidden(t *testing.T) {
	reqEngine, _, jmlEngine := newTestHarness(t)
	ctx := context.Background()

	alice := joinTestIdentity(t, jmlEngine, "EMP-ALICE2", "alice2@example.com", "Engineering")

	req, err := reqEngine.Submit(ctx, alice, "GitHub:Admin", "justification")
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	_, err = reqEngine.Approve(ctx, req.ID, alice)
	if !igaerr.IsValidation(err) {
		t.Fatalf("expected validation error for self-approval, got %v", err)
	}

	stillPending, err := reqEngine.requests.Get(ctx, req.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if stillPending.Status != StatusPending {
		t.Fatalf("expected request to remain pending, got %s", stillPending.Status)
	}
}

func TestSodFlaggedButNotBlocked(t *testing.T) {
	reqEngine, _, jmlEngine := newTestHarness(t)
	ctx := context.Background()

	salesUser := joinTestIdentity(t, jmlEngine, "EMP-SALES", "sales@example.com", "Sales")

	req, err := reqEngine.Submit(ctx, salesUser, "AzureAD:Finance-Admin", "quarter close")
	if err != nil {
		t.Fatalf("submit should not block on SoD violation: %v", err)
	}
	if req.Status != StatusPending {
		t.Fatalf("expected pending despite SoD flag, got %s", req.Status)
	}

	flagged := false
	for _, ev := range reqEngine.auditLog.ListByTarget(ctx, "sales@example.com") {
		if ev.Action == "sod_violation_detected" && ev.Details["severity"] == "critical" {
			flagged = true
		}
	}
	if !flagged {
		t.Fatalf("expected a critical sod_violation_detected audit event")
	}
}

func TestRejectEnforcesPendingOnly(t *testing.T) {
	reqEngine, _, jmlEngine := newTestHarness(t)
	ctx := context.Background()

	alice := joinTestIdentity(t, jmlEngine, "EMP-ALICE3", "alice3@example.com", "Engineering")
	bob := joinTestIdentity(t, jmlEngine, "EMP-BOB3", "bob3@example.com", "Engineering")

	req, err := reqEngine.Submit(ctx, alice, "GitHub:Admin", "justification")
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if _, err := reqEngine.Approve(ctx, req.ID, bob); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	_, err = reqEngine.Reject(ctx, req.ID, bob, "changed my mind")
	if !igaerr.IsStateViolation(err) {
		t.Fatalf("expected state violation rejecting a non-pending request, got %v", err)
	}
}
