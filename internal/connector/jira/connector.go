// Package jira implements a ticket-notifier connector: it opens a
// simulated Jira ticket when an access request is submitted and closes
// it when the request is resolved. It is not part of the entitlement
// provisioning surface — it has no group membership concept — so it does
// not implement connector.Connector; it exists purely for audit
// enrichment on the request workflow.
package jira

import (
	"context"
	"fmt"
	"sync"
)

// Ticket is a simulated Jira issue tracking one access request.
type Ticket struct {
	Key       string
	RequestID string
	Summary   string
	Status    string // "Open" or "Closed"
}

// Connector is an in-process simulated Jira project backend.
type Connector struct {
	mu      sync.Mutex
	tickets map[string]*Ticket // request id -> ticket
	seq     int
}

// New returns a fresh simulated Jira connector.
func New() *Connector {
	return &Connector{tickets: make(map[string]*Ticket)}
}

// OpenTicket creates a ticket for the given access request. Calling it
// twice for the same requestID leaves the existing ticket unchanged.
// Satisfies internal/request.Notifier.
func (c *Connector) OpenTicket(ctx context.Context, requestID, summary string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.tickets[requestID]; ok {
		return nil
	}
	c.seq++
	c.tickets[requestID] = &Ticket{
		Key:       fmt.Sprintf("IGA-%d", c.seq),
		RequestID: requestID,
		Summary:   summary,
		Status:    "Open",
	}
	return nil
}

// CloseTicket marks the ticket for requestID as closed. It is a no-op if
// no ticket was ever opened for that request.
func (c *Connector) CloseTicket(ctx context.Context, requestID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if t, ok := c.tickets[requestID]; ok {
		t.Status = "Closed"
	}
	return nil
}

// Ticket returns the ticket for requestID, if any.
func (c *Connector) Ticket(requestID string) (Ticket, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.tickets[requestID]
	if !ok {
		return Ticket{}, false
	}
	return *t, true
}
