// Package github simulates a GitHub organization: user creation, team
// membership, and user removal. Unlike the other connectors, Disable is a
// hard delete — it removes the user and strips every team membership,
// matching GitHub's actual account-removal semantics.
package github

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/dhawalhost/igacore/internal/connector"
)

const systemName = "GitHub"

type user struct {
	username string
	email    string
	name     string
}

// Connector is an in-process simulated GitHub organization backend.
type Connector struct {
	mu    sync.Mutex
	users map[string]*user               // username -> user
	teams map[string]map[string]struct{} // team name -> set of usernames
}

// New returns a fresh simulated GitHub connector.
func New() *Connector {
	return &Connector{
		users: make(map[string]*user),
		teams: make(map[string]map[string]struct{}),
	}
}

func (c *Connector) System() string { return systemName }

func (c *Connector) CreateUser(ctx context.Context, profile connector.Profile) (connector.CreatedUser, error) {
	if err := ctx.Err(); err != nil {
		return connector.CreatedUser{}, err
	}
	username := strings.ToLower(profile.FirstName) + strings.ToLower(profile.LastName)

	c.mu.Lock()
	c.users[username] = &user{
		username: username,
		email:    profile.Email,
		name:     profile.FirstName + " " + profile.LastName,
	}
	c.mu.Unlock()

	return connector.CreatedUser{Handle: username}, nil
}

func (c *Connector) AddToGroup(ctx context.Context, username, team string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	members, ok := c.teams[team]
	if !ok {
		members = make(map[string]struct{})
		c.teams[team] = members
	}
	members[username] = struct{}{}
	return nil
}

func (c *Connector) RemoveFromGroup(ctx context.Context, username, team string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if members, ok := c.teams[team]; ok {
		delete(members, username)
	}
	return nil
}

// Disable hard-removes the user and strips them from every team.
func (c *Connector) Disable(ctx context.Context, username string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.users[username]; !ok {
		return fmt.Errorf("github: user %s not found", username)
	}
	delete(c.users, username)
	for _, members := range c.teams {
		delete(members, username)
	}
	return nil
}

func (c *Connector) Users(ctx context.Context) map[string]connector.UserRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]connector.UserRecord, len(c.users))
	for username, u := range c.users {
		out[username] = connector.UserRecord{
			Handle:      u.username,
			DisplayName: u.name,
			Email:       u.email,
			Active:      true,
		}
	}
	return out
}
