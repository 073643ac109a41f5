// Package connector defines the uniform interface every downstream identity
// system adapter implements, plus a registry that wires the fixed set of
// provisioning connectors (AzureAD, GitHub, Slack) into the JML engine.
// The Jira ticket notifier lives in its own package and is not part of
// the registry. Each adapter simulates its downstream system in-process: no
// network calls are made, since the concrete external SaaS APIs are an
// explicit out-of-scope collaborator.
package connector

import "context"

// Profile carries the identity fields a connector needs to create a
// downstream account.
type Profile struct {
	FirstName  string
	LastName   string
	Email      string
	Department string
	JobTitle   string
}

// CreatedUser is the result of provisioning a new downstream account.
// Handle is the connector's primary native handle (UPN for AzureAD,
// username for GitHub, synthesized user id for Slack). Secondary is only
// populated by AzureAD, which also hands back its objectId since
// group-membership operations there are keyed by objectId rather than UPN.
type CreatedUser struct {
	Handle    string
	Secondary string
}

// Connector is the uniform interface every downstream identity system
// adapter implements.
type Connector interface {
	// System returns the connector's system name as used in entitlement
	// strings ("AzureAD", "GitHub", "Slack").
	System() string

	// CreateUser provisions a new downstream account. It is NOT idempotent:
	// every call creates a new account record. Slack hands back a fresh
	// member id and AzureAD a fresh objectId on each call, while the AzureAD
	// UPN and the GitHub username are derived from the name, so a second
	// GitHub call with the same profile replaces the first user record.
	// Callers must invoke it at most once per (identity, system).
	CreateUser(ctx context.Context, profile Profile) (CreatedUser, error)

	// AddToGroup adds the user identified by handle to group, creating the
	// group on first use if unknown. Idempotent.
	AddToGroup(ctx context.Context, handle, group string) error

	// RemoveFromGroup removes the user identified by handle from group.
	// Idempotent; a no-op if the user is not a member.
	RemoveFromGroup(ctx context.Context, handle, group string) error

	// Disable disables, deactivates, or (for GitHub) hard-removes the user
	// identified by handle. Idempotent and tolerates a missing user: it
	// returns an error status rather than raising.
	Disable(ctx context.Context, handle string) error

	// Users returns a snapshot of the connector's user table, keyed by
	// native handle, for the connector debug endpoint.
	Users(ctx context.Context) map[string]UserRecord
}

// UserRecord is the wire shape returned by the connector debug endpoint.
type UserRecord struct {
	Handle      string `json:"handle"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email,omitempty"`
	Active      bool   `json:"active"`
}
