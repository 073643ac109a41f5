package jml

import (
	"context"
	"fmt"

	"github.com/dhawalhost/igacore/internal/audit"
	"github.com/dhawalhost/igacore/internal/connector"
	"github.com/dhawalhost/igacore/internal/identity"
	"github.com/dhawalhost/igacore/internal/igaerr"
	"github.com/dhawalhost/igacore/internal/policy"
)

// Engine is the Joiner/Mover/Leaver engine. It is the only component
// that writes to both the Identity Store and the connector layer in the
// same operation, so every entry point takes the per-identity lock for
// its duration.
type Engine struct {
	identities identity.Store
	auditLog   audit.Store
	connectors connector.Registry
	locker     *identity.Locker
}

// New builds a JML engine over the given collaborators.
func New(identities identity.Store, auditLog audit.Store, connectors connector.Registry, locker *identity.Locker) *Engine {
	return &Engine{
		identities: identities,
		auditLog:   auditLog,
		connectors: connectors,
		locker:     locker,
	}
}

// ProcessEvent dispatches an HR event to the matching flow. It never
// lets a panic escape: any unexpected failure is converted into a
// {status:error} result at this boundary.
func (e *Engine) ProcessEvent(ctx context.Context, ev Event) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			result = Result{Status: StatusError, Message: fmt.Sprintf("internal error: %v", r)}
		}
	}()

	switch ev.Type {
	case EventEmployeeCreated:
		return e.handleJoiner(ctx, ev)
	case EventEmployeeUpdated:
		return e.handleMover(ctx, ev)
	case EventEmployeeTerminated:
		return e.handleLeaver(ctx, ev)
	default:
		return Result{Status: StatusIgnored, Message: "unknown event type"}
	}
}

func (e *Engine) handleJoiner(ctx context.Context, ev Event) Result {
	profile, err := e.identities.Create(ctx, identity.CreateInput{
		EmployeeID: ev.EmployeeID,
		FirstName:  ev.FirstName,
		LastName:   ev.LastName,
		Email:      ev.Email,
		Department: ev.Department,
		JobTitle:   ev.JobTitle,
	})
	if err != nil {
		return Result{Status: StatusError, Message: err.Error()}
	}

	unlock := e.locker.Lock(profile.ID)
	defer unlock()

	e.auditLog.Log(ctx, audit.LogInput{
		Action: "create_identity",
		Target: profile.Email,
		Details: map[string]any{
			"employee_id": profile.EmployeeID,
			"department":  profile.Department,
		},
	})

	desired := policy.Birthright(profile.Department)
	accounts := identity.Accounts{}

	if c, ok := e.connectors.Get("AzureAD"); ok {
		created, err := c.CreateUser(ctx, connector.Profile{
			FirstName: profile.FirstName, LastName: profile.LastName,
			Email: profile.Email, Department: profile.Department, JobTitle: profile.JobTitle,
		})
		if err != nil {
			e.auditLog.Log(ctx, audit.LogInput{Action: "provision_account", Target: profile.Email,
				Details: map[string]any{"system": "AzureAD"}, Status: audit.StatusFailure})
			return Result{Status: StatusError, Message: err.Error()}
		}
		accounts.AzureAD = &identity.AzureADAccount{UPN: created.Handle, ObjectID: created.Secondary}
		e.auditLog.Log(ctx, audit.LogInput{Action: "provision_account", Target: profile.Email,
			Details: map[string]any{"system": "AzureAD"}})
	}

	if c, ok := e.connectors.Get("Slack"); ok {
		created, err := c.CreateUser(ctx, connector.Profile{
			FirstName: profile.FirstName, LastName: profile.LastName, Email: profile.Email,
		})
		if err != nil {
			e.auditLog.Log(ctx, audit.LogInput{Action: "provision_account", Target: profile.Email,
				Details: map[string]any{"system": "Slack"}, Status: audit.StatusFailure})
			return Result{Status: StatusError, Message: err.Error()}
		}
		accounts.Slack = created.Handle
		e.auditLog.Log(ctx, audit.LogInput{Action: "provision_account", Target: profile.Email,
			Details: map[string]any{"system": "Slack"}})
	}

	if hasSystem(desired, "GitHub") {
		if c, ok := e.connectors.Get("GitHub"); ok {
			created, err := c.CreateUser(ctx, connector.Profile{
				FirstName: profile.FirstName, LastName: profile.LastName, Email: profile.Email,
			})
			if err != nil {
				e.auditLog.Log(ctx, audit.LogInput{Action: "provision_account", Target: profile.Email,
					Details: map[string]any{"system": "GitHub"}, Status: audit.StatusFailure})
				return Result{Status: StatusError, Message: err.Error()}
			}
			accounts.GitHub = created.Handle
			e.auditLog.Log(ctx, audit.LogInput{Action: "provision_account", Target: profile.Email,
				Details: map[string]any{"system": "GitHub"}})
		}
	}

	for _, ent := range policy.SliceFromSet(desired) {
		if err := e.addEntitlement(ctx, profile, accounts, policy.Entitlement(ent)); err != nil {
			e.auditLog.Log(ctx, audit.LogInput{Action: "provision_entitlement", Target: profile.Email,
				Details: map[string]any{"entitlement": ent}, Status: audit.StatusFailure})
			return Result{Status: StatusError, Message: err.Error()}
		}
	}

	final, err := e.identities.Update(ctx, profile.ID, func(p *identity.Profile) error {
		p.Accounts = accounts
		p.Entitlements = policy.SliceFromSet(desired)
		return nil
	})
	if err != nil {
		return Result{Status: StatusError, Message: err.Error()}
	}

	return Result{Status: StatusSuccess, IdentityID: final.ID}
}

func (e *Engine) handleMover(ctx context.Context, ev Event) Result {
	profile, err := e.identities.GetByEmployeeID(ctx, ev.EmployeeID)
	if err != nil {
		return Result{Status: StatusError, Message: err.Error()}
	}

	unlock := e.locker.Lock(profile.ID)
	defer unlock()

	oldDept := profile.Department
	newDept := ev.Department
	if newDept == "" {
		newDept = oldDept
	}

	updated, err := e.identities.Update(ctx, profile.ID, func(p *identity.Profile) error {
		if ev.FirstName != "" {
			p.FirstName = ev.FirstName
		}
		if ev.LastName != "" {
			p.LastName = ev.LastName
		}
		if ev.Email != "" {
			p.Email = ev.Email
		}
		if ev.Department != "" {
			p.Department = ev.Department
		}
		if ev.JobTitle != "" {
			p.JobTitle = ev.JobTitle
		}
		p.LifecycleState = identity.LifecycleMover
		return nil
	})
	if err != nil {
		return Result{Status: StatusError, Message: err.Error()}
	}
	e.auditLog.Log(ctx, audit.LogInput{Action: "update_identity", Target: updated.Email,
		Details: map[string]any{"department": updated.Department}})

	if oldDept == newDept {
		return Result{Status: StatusSuccess, Message: "Mover processed"}
	}

	newSet := policy.Birthright(newDept)
	revoke := policy.Revocation(oldDept, newDept)
	accounts := updated.Accounts

	// Lazy account creation: a department move can introduce a system the
	// identity never had an account on at Joiner time.
	if hasSystem(newSet, "GitHub") && accounts.GitHub == "" {
		if c, ok := e.connectors.Get("GitHub"); ok {
			created, err := c.CreateUser(ctx, connector.Profile{
				FirstName: updated.FirstName, LastName: updated.LastName, Email: updated.Email,
			})
			if err != nil {
				e.auditLog.Log(ctx, audit.LogInput{Action: "provision_account", Target: updated.Email,
					Details: map[string]any{"system": "GitHub"}, Status: audit.StatusFailure})
				return Result{Status: StatusError, Message: err.Error()}
			}
			accounts.GitHub = created.Handle
			e.auditLog.Log(ctx, audit.LogInput{Action: "provision_account", Target: updated.Email,
				Details: map[string]any{"system": "GitHub"}})
		}
	}

	for _, ent := range policy.SliceFromSet(newSet) {
		if err := e.addEntitlement(ctx, updated, accounts, policy.Entitlement(ent)); err != nil {
			return Result{Status: StatusError, Message: err.Error()}
		}
	}

	for _, ent := range revoke {
		removed, err := e.removeEntitlement(ctx, updated, accounts, ent)
		if err != nil {
			return Result{Status: StatusError, Message: err.Error()}
		}
		if removed {
			e.auditLog.Log(ctx, audit.LogInput{Action: "revoke_access", Target: updated.Email,
				Details: map[string]any{"entitlement": string(ent)}})
		}
	}

	current := policy.SetFromSlice(updated.Entitlements)
	for _, r := range revoke {
		delete(current, r)
	}
	for ent := range newSet {
		current[ent] = struct{}{}
	}

	if _, err := e.identities.Update(ctx, profile.ID, func(p *identity.Profile) error {
		p.Entitlements = policy.SliceFromSet(current)
		p.Accounts = accounts
		return nil
	}); err != nil {
		return Result{Status: StatusError, Message: err.Error()}
	}

	return Result{Status: StatusSuccess, Message: "Mover processed"}
}

func (e *Engine) handleLeaver(ctx context.Context, ev Event) Result {
	profile, err := e.identities.GetByEmployeeID(ctx, ev.EmployeeID)
	if err != nil {
		return Result{Status: StatusError, Message: err.Error()}
	}

	unlock := e.locker.Lock(profile.ID)
	defer unlock()

	if profile.Accounts.AzureAD != nil {
		if c, ok := e.connectors.Get("AzureAD"); ok {
			if err := c.Disable(ctx, profile.Accounts.AzureAD.ObjectID); err != nil {
				e.auditLog.Log(ctx, audit.LogInput{Action: "disable_account", Target: profile.Email,
					Details: map[string]any{"system": "AzureAD"}, Status: audit.StatusFailure})
				return Result{Status: StatusError, Message: err.Error()}
			}
			e.auditLog.Log(ctx, audit.LogInput{Action: "disable_account", Target: profile.Email,
				Details: map[string]any{"system": "AzureAD"}})
		}
	}

	if profile.Accounts.GitHub != "" {
		if c, ok := e.connectors.Get("GitHub"); ok {
			if err := c.Disable(ctx, profile.Accounts.GitHub); err != nil {
				e.auditLog.Log(ctx, audit.LogInput{Action: "disable_account", Target: profile.Email,
					Details: map[string]any{"system": "GitHub"}, Status: audit.StatusFailure})
				return Result{Status: StatusError, Message: err.Error()}
			}
			e.auditLog.Log(ctx, audit.LogInput{Action: "disable_account", Target: profile.Email,
				Details: map[string]any{"system": "GitHub"}})
		}
	}

	if profile.Accounts.Slack != "" {
		if c, ok := e.connectors.Get("Slack"); ok {
			if err := c.Disable(ctx, profile.Email); err != nil {
				e.auditLog.Log(ctx, audit.LogInput{Action: "disable_account", Target: profile.Email,
					Details: map[string]any{"system": "Slack"}, Status: audit.StatusFailure})
				return Result{Status: StatusError, Message: err.Error()}
			}
			e.auditLog.Log(ctx, audit.LogInput{Action: "disable_account", Target: profile.Email,
				Details: map[string]any{"system": "Slack"}})
		}
	}

	if _, err := e.identities.Update(ctx, profile.ID, func(p *identity.Profile) error {
		p.Status = identity.StatusTerminated
		p.LifecycleState = identity.LifecycleLeaver
		p.Entitlements = []string{}
		return nil
	}); err != nil {
		return Result{Status: StatusError, Message: err.Error()}
	}
	e.auditLog.Log(ctx, audit.LogInput{Action: "terminate_identity", Target: profile.Email})

	return Result{Status: StatusSuccess, Message: "Leaver processed"}
}

// ProvisionEntitlement routes a single entitlement through the same
// connector dispatch used by the JML flows and appends it to the
// identity's entitlement set. It is invoked by the Request Engine on
// approval.
func (e *Engine) ProvisionEntitlement(ctx context.Context, identityID string, ent string) error {
	entitlement := policy.Entitlement(ent)
	if !entitlement.Valid() {
		return igaerr.Validation("malformed entitlement %q", ent)
	}

	profile, err := e.identities.Get(ctx, identityID)
	if err != nil {
		return err
	}

	unlock := e.locker.Lock(profile.ID)
	defer unlock()

	if err := e.addEntitlement(ctx, profile, profile.Accounts, entitlement); err != nil {
		e.auditLog.Log(ctx, audit.LogInput{Action: "grant_access", Target: profile.Email,
			Details: map[string]any{"entitlement": ent, "source": "access_request"}, Status: audit.StatusFailure})
		return igaerr.Downstream(err, "provisioning %s for %s", ent, profile.Email)
	}

	alreadyHeld := false
	for _, held := range profile.Entitlements {
		if held == ent {
			alreadyHeld = true
			break
		}
	}
	if !alreadyHeld {
		if _, err := e.identities.Update(ctx, identityID, func(p *identity.Profile) error {
			p.Entitlements = append(p.Entitlements, ent)
			return nil
		}); err != nil {
			return err
		}
	}

	e.auditLog.Log(ctx, audit.LogInput{Action: "grant_access", Target: profile.Email,
		Details: map[string]any{"entitlement": ent, "source": "access_request"}})
	return nil
}

func (e *Engine) addEntitlement(ctx context.Context, p identity.Profile, accounts identity.Accounts, ent policy.Entitlement) error {
	c, ok := e.connectors.Get(ent.System())
	if !ok {
		return nil
	}
	handle, ok := accountHandle(ent.System(), p.Email, accounts)
	if !ok {
		return nil
	}
	return c.AddToGroup(ctx, handle, ent.Group())
}

func (e *Engine) removeEntitlement(ctx context.Context, p identity.Profile, accounts identity.Accounts, ent policy.Entitlement) (bool, error) {
	c, ok := e.connectors.Get(ent.System())
	if !ok {
		return false, nil
	}
	handle, ok := accountHandle(ent.System(), p.Email, accounts)
	if !ok {
		return false, nil
	}
	if err := c.RemoveFromGroup(ctx, handle, ent.Group()); err != nil {
		return false, err
	}
	return true, nil
}

// accountHandle returns the native handle to use for group-membership
// operations on system, and whether the identity has an account there.
// Slack is keyed by email rather than the connector's synthesized id.
func accountHandle(system, email string, accounts identity.Accounts) (string, bool) {
	switch system {
	case "AzureAD":
		if accounts.AzureAD != nil {
			return accounts.AzureAD.ObjectID, true
		}
	case "GitHub":
		if accounts.GitHub != "" {
			return accounts.GitHub, true
		}
	case "Slack":
		if accounts.Slack != "" {
			return email, true
		}
	}
	return "", false
}

func hasSystem(set map[policy.Entitlement]struct{}, system string) bool {
	for ent := range set {
		if ent.System() == system {
			return true
		}
	}
	return false
}
