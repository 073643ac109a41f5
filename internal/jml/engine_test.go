package jml

import (
	"context"
	"testing"

	"github.com/dhawalhost/igacore/internal/audit"
	"github.com/dhawalhost/igacore/internal/connector"
	"github.com/dhawalhost/igacore/internal/connector/azuread"
	"github.com/dhawalhost/igacore/internal/connector/github"
	"github.com/dhawalhost/igacore/internal/connector/slack"
	"github.com/dhawalhost/igacore/internal/identity"
)

func newTestEngine() (*Engine, identity.Store, audit.Store) {
	identities := identity.NewMemoryStore()
	auditLog := audit.NewMemoryStore()
	registry := connector.NewRegistry(azuread.New(), github.New(), slack.New())
	locker := identity.NewLocker()
	return New(identities, auditLog, registry, locker), identities, auditLog
}

func TestJoinerHappyPath(t *testing.T) {
	engine, identities, _ := newTestEngine()
	ctx := context.Background()

	result := engine.ProcessEvent(ctx, Event{
		Type: EventEmployeeCreated, EmployeeID: "EMP001",
		FirstName: "John", LastName: "Doe", Email: "john.doe@example.com",
		Department: "Engineering", JobTitle: "Software Engineer",
	})
	if result.Status != StatusSuccess {
		t.Fatalf("expected success, got %+v", result)
	}

	profile, err := identities.Get(ctx, result.IdentityID)
	if err != nil {
		t.Fatalf("identity not found: %v", err)
	}
	if profile.Status != identity.StatusActive {
		t.Fatalf("expected active status, got %s", profile.Status)
	}
	want := map[string]bool{"GitHub:Engineering": false, "AzureAD:Engineering": false, "Slack:engineering": false}
	for _, e := range profile.Entitlements {
		if _, ok := want[e]; ok {
			want[e] = true
		}
	}
	for e, found := range want {
		if !found {
			t.Errorf("expected entitlement %s, got %v", e, profile.Entitlements)
		}
	}
	if profile.Accounts.AzureAD == nil || profile.Accounts.GitHub == "" || profile.Accounts.Slack == "" {
		t.Fatalf("expected all three accounts provisioned, got %+v", profile.Accounts)
	}
}

func TestMoverDemotesGitHub(t *testing.T) {
	engine, identities, _ := newTestEngine()
	ctx := context.Background()

	join := engine.ProcessEvent(ctx, Event{
		Type: EventEmployeeCreated, EmployeeID: "EMP002",
		FirstName: "Jane", LastName: "Roe", Email: "jane.roe@example.com",
		Department: "Engineering", JobTitle: "Engineer",
	})
	if join.Status != StatusSuccess {
		t.Fatalf("join failed: %+v", join)
	}

	move := engine.ProcessEvent(ctx, Event{
		Type: EventEmployeeUpdated, EmployeeID: "EMP002", Department: "Sales",
	})
	if move.Status != StatusSuccess {
		t.Fatalf("move failed: %+v", move)
	}

	profile, _ := identities.GetByEmployeeID(ctx, "EMP002")
	if profile.Department != "Sales" {
		t.Fatalf("expected department Sales, got %s", profile.Department)
	}
	hasAzureSales, hasGitHubEng := false, false
	for _, e := range profile.Entitlements {
		if e == "AzureAD:Sales" {
			hasAzureSales = true
		}
		if e == "GitHub:Engineering" {
			hasGitHubEng = true
		}
	}
	if !hasAzureSales {
		t.Errorf("expected AzureAD:Sales in entitlements, got %v", profile.Entitlements)
	}
	if hasGitHubEng {
		t.Errorf("expected GitHub:Engineering revoked, got %v", profile.Entitlements)
	}
}

func TestLeaverClearsEntitlements(t *testing.T) {
	engine, identities, _ := newTestEngine()
	ctx := context.Background()

	join := engine.ProcessEvent(ctx, Event{
		Type: EventEmployeeCreated, EmployeeID: "EMP003",
		FirstName: "Mark", LastName: "Lee", Email: "mark.lee@example.com",
		Department: "Marketing", JobTitle: "Specialist",
	})
	if join.Status != StatusSuccess {
		t.Fatalf("join failed: %+v", join)
	}

	leave := engine.ProcessEvent(ctx, Event{Type: EventEmployeeTerminated, EmployeeID: "EMP003"})
	if leave.Status != StatusSuccess {
		t.Fatalf("leave failed: %+v", leave)
	}

	profile, _ := identities.GetByEmployeeID(ctx, "EMP003")
	if profile.Status != identity.StatusTerminated {
		t.Fatalf("expected terminated status, got %s", profile.Status)
	}
	if profile.LifecycleState != identity.LifecycleLeaver {
		t.Fatalf("expected leaver lifecycle state, got %s", profile.LifecycleState)
	}
	if len(profile.Entitlements) != 0 {
		t.Fatalf("expected empty entitlements, got %v", profile.Entitlements)
	}
}

func TestUnknownEventTypeIsIgnored(t *testing.T) {
	engine, _, _ := newTestEngine()
	result := engine.ProcessEvent(context.Background(), Event{Type: "SomethingElse", EmployeeID: "EMP999"})
	if result.Status != StatusIgnored {
		t.Fatalf("expected ignored status, got %+v", result)
	}
}

func TestMoverIdentityNotFoundReturnsError(t *testing.T) {
	engine, _, _ := newTestEngine()
	result := engine.ProcessEvent(context.Background(), Event{Type: EventEmployeeUpdated, EmployeeID: "ghost"})
	if result.Status != StatusError {
		t.Fatalf("expected error status, got %+v", result)
	}
}

func TestProvisionEntitlementIsIdempotent(t *testing.T) {
	engine, identities, _ := newTestEngine()
	ctx := context.Background()

	join := engine.ProcessEvent(ctx, Event{
		Type: EventEmployeeCreated, EmployeeID: "EMP010",
		FirstName: "Alice", LastName: "Smith", Email: "alice.smith@example.com",
		Department: "Engineering", JobTitle: "Engineer",
	})
	if join.Status != StatusSuccess {
		t.Fatalf("join failed: %+v", join)
	}

	if err := engine.ProvisionEntitlement(ctx, join.IdentityID, "GitHub:SuperAdmin"); err != nil {
		t.Fatalf("provision failed: %v", err)
	}
	if err := engine.ProvisionEntitlement(ctx, join.IdentityID, "GitHub:SuperAdmin"); err != nil {
		t.Fatalf("repeated provision failed: %v", err)
	}

	profile, _ := identities.Get(ctx, join.IdentityID)
	count := 0
	for _, e := range profile.Entitlements {
		if e == "GitHub:SuperAdmin" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one GitHub:SuperAdmin entitlement, got %d", count)
	}
}
