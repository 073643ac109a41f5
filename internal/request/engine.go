package request

import (
	"context"

	"github.com/dhawalhost/igacore/internal/audit"
	"github.com/dhawalhost/igacore/internal/identity"
	"github.com/dhawalhost/igacore/internal/igaerr"
	"github.com/dhawalhost/igacore/internal/policy"
)

// Provisioner is the subset of the JML engine the Request engine needs:
// routing a single approved entitlement through connector dispatch.
type Provisioner interface {
	ProvisionEntitlement(ctx context.Context, identityID string, ent string) error
}

// Notifier opens and closes an external ticket tracking one request.
// It is optional: a nil Notifier on Engine simply skips ticket
// lifecycle calls.
type Notifier interface {
	OpenTicket(ctx context.Context, requestID, summary string) error
	CloseTicket(ctx context.Context, requestID string) error
}

// Engine is the Access Request workflow engine.
type Engine struct {
	requests   Store
	identities identity.Store
	auditLog   audit.Store
	provision  Provisioner
	notifier   Notifier
}

// New builds a Request engine. notifier may be nil.
func New(requests Store, identities identity.Store, auditLog audit.Store, provision Provisioner, notifier Notifier) *Engine {
	return &Engine{
		requests:   requests,
		identities: identities,
		auditLog:   auditLog,
		provision:  provision,
		notifier:   notifier,
	}
}

// Submit creates a new pending request. SoD violations are evaluated
// and logged but never block submission.
func (e *Engine) Submit(ctx context.Context, requesterID, entitlement, justification string) (AccessRequest, error) {
	requester, err := e.identities.Get(ctx, requesterID)
	if err != nil {
		return AccessRequest{}, err
	}

	ent := policy.Entitlement(entitlement)
	if !ent.Valid() {
		return AccessRequest{}, igaerr.Validation("invalid entitlement format %q, expected System:Group", entitlement)
	}

	potential := policy.SetFromSlice(requester.Entitlements)
	potential[ent] = struct{}{}
	if violations := policy.SodViolations(potential); len(violations) > 0 {
		for _, v := range violations {
			e.auditLog.Log(ctx, audit.LogInput{
				Action: "sod_violation_detected", Target: requester.Email,
				Details: map[string]any{
					"entitlement": entitlement,
					"severity":    v.Severity,
					"conflicts":   v.ConflictingGroups,
				},
			})
		}
	}

	req, err := e.requests.Create(ctx, CreateInput{
		RequesterID:      requesterID,
		TargetIdentityID: requesterID,
		Entitlement:      entitlement,
		Justification:    justification,
	})
	if err != nil {
		return AccessRequest{}, err
	}

	e.auditLog.Log(ctx, audit.LogInput{
		Action: "submit_request", Target: requester.Email,
		Details: map[string]any{"entitlement": entitlement, "request_id": req.ID},
	})

	if e.notifier != nil {
		_ = e.notifier.OpenTicket(ctx, req.ID, "Access request: "+entitlement+" for "+requester.Email)
	}

	return req, nil
}

// Approve transitions a pending request to approved or failed, invoking
// the provisioner on the way. Self-approval and non-pending requests
// are rejected as Validation/StateViolation errors before any store
// mutation happens.
func (e *Engine) Approve(ctx context.Context, requestID, approverID string) (AccessRequest, error) {
	req, err := e.requests.Get(ctx, requestID)
	if err != nil {
		return AccessRequest{}, err
	}
	if req.Status != StatusPending {
		return AccessRequest{}, igaerr.StateViolation("request %s is %s, cannot approve", requestID, req.Status)
	}
	if req.RequesterID == approverID {
		return AccessRequest{}, igaerr.Validation("self-approval is not allowed")
	}
	approver, err := e.identities.Get(ctx, approverID)
	if err != nil {
		return AccessRequest{}, err
	}

	// Re-check SoD against the requester's current state for audit
	// richness; the result never blocks approval, only enriches the log.
	if target, terr := e.identities.Get(ctx, req.TargetIdentityID); terr == nil {
		potential := policy.SetFromSlice(target.Entitlements)
		potential[policy.Entitlement(req.Entitlement)] = struct{}{}
		if violations := policy.SodViolations(potential); len(violations) > 0 {
			for _, v := range violations {
				e.auditLog.Log(ctx, audit.LogInput{
					Action: "sod_violation_detected", Target: target.Email,
					Details: map[string]any{
						"entitlement": req.Entitlement,
						"severity":    v.Severity,
						"conflicts":   v.ConflictingGroups,
						"request_id":  req.ID,
					},
				})
			}
		}
	}

	status := StatusApproved
	comments := "Approved via Access Request Workflow"
	if err := e.provision.ProvisionEntitlement(ctx, req.TargetIdentityID, req.Entitlement); err != nil {
		status = StatusFailed
		comments = "Provisioning failed: " + err.Error()
	}

	updated, err := e.requests.Update(ctx, requestID, func(r *AccessRequest) error {
		if r.Status != StatusPending {
			return igaerr.StateViolation("request %s is %s, cannot approve", requestID, r.Status)
		}
		r.Status = status
		r.ApproverID = approverID
		r.Comments = comments
		return nil
	})
	if err != nil {
		return AccessRequest{}, err
	}

	e.auditLog.Log(ctx, audit.LogInput{
		Action: "approve_request", Target: req.TargetIdentityID, Actor: approver.Email,
		Details: map[string]any{"request_id": requestID, "status": string(status)},
	})

	if e.notifier != nil {
		_ = e.notifier.CloseTicket(ctx, requestID)
	}

	return updated, nil
}

// Reject transitions a pending request to rejected, enforcing the same
// pending-only precondition Approve does.
func (e *Engine) Reject(ctx context.Context, requestID, approverID, reason string) (AccessRequest, error) {
	req, err := e.requests.Get(ctx, requestID)
	if err != nil {
		return AccessRequest{}, err
	}
	if req.Status != StatusPending {
		return AccessRequest{}, igaerr.StateViolation("request %s is %s, cannot reject", requestID, req.Status)
	}

	updated, err := e.requests.Update(ctx, requestID, func(r *AccessRequest) error {
		if r.Status != StatusPending {
			return igaerr.StateViolation("request %s is %s, cannot reject", requestID, r.Status)
		}
		r.Status = StatusRejected
		r.ApproverID = approverID
		r.Comments = reason
		return nil
	})
	if err != nil {
		return AccessRequest{}, err
	}

	approverEmail := "unknown"
	if approver, aerr := e.identities.Get(ctx, approverID); aerr == nil {
		approverEmail = approver.Email
	}

	e.auditLog.Log(ctx, audit.LogInput{
		Action: "reject_request", Target: req.TargetIdentityID, Actor: approverEmail,
		Details: map[string]any{"request_id": requestID, "reason": reason},
	})

	if e.notifier != nil {
		_ = e.notifier.CloseTicket(ctx, requestID)
	}

	return updated, nil
}

// List returns requests, optionally filtered by status.
func (e *Engine) List(ctx context.Context, status Status) ([]AccessRequest, error) {
	return e.requests.List(ctx, status)
}
