// Package identity owns the authoritative record of workforce identities:
// profiles, account handles per downstream system, and the entitlement
// set each identity currently holds.
package identity

import "time"

// Status is the identity's employment state.
type Status string

const (
	StatusActive    Status = "active"
	StatusInactive  Status = "inactive"
	StatusPreHire   Status = "pre-hire"
	StatusTerminated Status = "terminated"
)

// LifecycleState reflects the most recent JML transition applied.
type LifecycleState string

const (
	LifecycleJoiner LifecycleState = "joiner"
	LifecycleMover  LifecycleState = "mover"
	LifecycleLeaver LifecycleState = "leaver"
	LifecycleStable LifecycleState = "stable"
)

// RiskScore is a coarse risk classification, currently unused by policy
// but carried so downstream consumers (not part of this core) can attach
// risk-based workflows without a schema change.
type RiskScore string

const (
	RiskLow      RiskScore = "low"
	RiskMedium   RiskScore = "medium"
	RiskHigh     RiskScore = "high"
	RiskCritical RiskScore = "critical"
)

// AzureADAccount carries both handles Azure AD hands back on user
// creation: the UPN (human-readable login) and the objectId (the
// primary key group-membership operations are keyed by).
type AzureADAccount struct {
	UPN      string `json:"upn"`
	ObjectID string `json:"object_id"`
}

// Accounts maps each provisioned downstream system to the native
// handle(s) needed to operate on that account.
type Accounts struct {
	AzureAD *AzureADAccount `json:"azure_ad,omitempty"`
	GitHub  string          `json:"github,omitempty"`
	Slack   string          `json:"slack,omitempty"`
}

// Profile is one workforce identity.
type Profile struct {
	ID             string         `json:"id"`
	EmployeeID     string         `json:"employee_id"`
	FirstName      string         `json:"first_name"`
	LastName       string         `json:"last_name"`
	Email          string         `json:"email"`
	Department     string         `json:"department"`
	JobTitle       string         `json:"job_title"`
	ManagerID      string         `json:"manager_id,omitempty"`
	Status         Status         `json:"status"`
	LifecycleState LifecycleState `json:"lifecycle_state"`
	RiskScore      RiskScore      `json:"risk_score"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	Entitlements   []string       `json:"entitlements"`
	Accounts       Accounts       `json:"accounts"`
}

// Clone returns a deep copy, so callers mutating a returned Profile never
// corrupt store-internal state.
func (p Profile) Clone() Profile {
	out := p
	if p.Entitlements != nil {
		out.Entitlements = append([]string(nil), p.Entitlements...)
	}
	if p.Accounts.AzureAD != nil {
		acct := *p.Accounts.AzureAD
		out.Accounts.AzureAD = &acct
	}
	return out
}
