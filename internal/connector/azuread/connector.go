// Package azuread simulates an Azure AD tenant: user creation, group
// membership, and account disable. Membership operations are keyed by
// objectId, Azure AD's internal primary key, while the UPN is the
// human-readable login most of the rest of the system sees — the
// connector hands both back from CreateUser so the caller can store the
// pair (see internal/identity.AzureADAccount).
package azuread

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/dhawalhost/igacore/internal/connector"
	"github.com/google/uuid"
)

const systemName = "AzureAD"

type user struct {
	objectID string
	upn      string
	display  string
	enabled  bool
}

// Connector is an in-process simulated Azure AD backend.
type Connector struct {
	mu     sync.Mutex
	users  map[string]*user                // objectId -> user
	groups map[string]map[string]struct{}  // group name -> set of objectIds
}

// New returns a fresh simulated Azure AD connector.
func New() *Connector {
	return &Connector{
		users:  make(map[string]*user),
		groups: make(map[string]map[string]struct{}),
	}
}

func (c *Connector) System() string { return systemName }

func (c *Connector) CreateUser(ctx context.Context, profile connector.Profile) (connector.CreatedUser, error) {
	if err := ctx.Err(); err != nil {
		return connector.CreatedUser{}, err
	}
	upn := fmt.Sprintf("%s.%s@example.com",
		strings.ToLower(profile.FirstName), strings.ToLower(profile.LastName))
	objectID := uuid.NewString()

	c.mu.Lock()
	c.users[objectID] = &user{
		objectID: objectID,
		upn:      upn,
		display:  profile.FirstName + " " + profile.LastName,
		enabled:  true,
	}
	c.mu.Unlock()

	return connector.CreatedUser{Handle: upn, Secondary: objectID}, nil
}

func (c *Connector) AddToGroup(ctx context.Context, objectID, group string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	members, ok := c.groups[group]
	if !ok {
		members = make(map[string]struct{})
		c.groups[group] = members
	}
	members[objectID] = struct{}{}
	return nil
}

func (c *Connector) RemoveFromGroup(ctx context.Context, objectID, group string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if members, ok := c.groups[group]; ok {
		delete(members, objectID)
	}
	return nil
}

func (c *Connector) Disable(ctx context.Context, objectID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	u, ok := c.users[objectID]
	if !ok {
		return fmt.Errorf("azuread: user %s not found", objectID)
	}
	u.enabled = false
	return nil
}

func (c *Connector) Users(ctx context.Context) map[string]connector.UserRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]connector.UserRecord, len(c.users))
	for objectID, u := range c.users {
		out[objectID] = connector.UserRecord{
			Handle:      u.upn,
			DisplayName: u.display,
			Active:      u.enabled,
		}
	}
	return out
}
