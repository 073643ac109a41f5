// Package slack simulates a Slack workspace. Slack assigns each user a
// synthesized member id (U1000, U1001, ...) on creation, but unlike
// AzureAD and GitHub, channel membership and deactivation here are keyed
// by email, not by the synthesized id — callers must pass email to
// AddToGroup, RemoveFromGroup, and Disable.
package slack

import (
	"context"
	"fmt"
	"sync"

	"github.com/dhawalhost/igacore/internal/connector"
)

const systemName = "Slack"

type user struct {
	id      string
	email   string
	name    string
	deleted bool
}

// Connector is an in-process simulated Slack workspace backend.
type Connector struct {
	mu       sync.Mutex
	users    map[string]*user                // email -> user
	channels map[string]map[string]struct{} // channel name -> set of emails
}

// New returns a fresh simulated Slack connector.
func New() *Connector {
	return &Connector{
		users:    make(map[string]*user),
		channels: make(map[string]map[string]struct{}),
	}
}

func (c *Connector) System() string { return systemName }

func (c *Connector) CreateUser(ctx context.Context, profile connector.Profile) (connector.CreatedUser, error) {
	if err := ctx.Err(); err != nil {
		return connector.CreatedUser{}, err
	}
	c.mu.Lock()
	id := fmt.Sprintf("U%d", 1000+len(c.users))
	c.users[profile.Email] = &user{
		id:    id,
		email: profile.Email,
		name:  profile.FirstName + " " + profile.LastName,
	}
	c.mu.Unlock()

	return connector.CreatedUser{Handle: id}, nil
}

// AddToGroup adds a member to a channel. email is the identity's email
// address, not the synthesized Slack id returned from CreateUser.
func (c *Connector) AddToGroup(ctx context.Context, email, channel string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	members, ok := c.channels[channel]
	if !ok {
		members = make(map[string]struct{})
		c.channels[channel] = members
	}
	members[email] = struct{}{}
	return nil
}

func (c *Connector) RemoveFromGroup(ctx context.Context, email, channel string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if members, ok := c.channels[channel]; ok {
		delete(members, email)
	}
	return nil
}

// Disable deactivates the user identified by email.
func (c *Connector) Disable(ctx context.Context, email string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	u, ok := c.users[email]
	if !ok {
		return fmt.Errorf("slack: user %s not found", email)
	}
	u.deleted = true
	return nil
}

func (c *Connector) Users(ctx context.Context) map[string]connector.UserRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]connector.UserRecord, len(c.users))
	for email, u := range c.users {
		out[u.id] = connector.UserRecord{
			Handle:      u.id,
			DisplayName: u.name,
			Email:       email,
			Active:      !u.deleted,
		}
	}
	return out
}
