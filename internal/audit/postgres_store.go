package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// postgresStore is an optional durable Store backing, used when
// DATABASE_URL is configured. Sequence is assigned by a database
// sequence so ordering survives process restarts.
type postgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore wraps db as an Audit Log Store. Callers are
// responsible for having applied the audit_events table and its
// backing sequence.
func NewPostgresStore(db *sqlx.DB) Store {
	return &postgresStore{db: db}
}

type auditRow struct {
	ID        string    `db:"id"`
	Sequence  uint64    `db:"sequence"`
	Timestamp time.Time `db:"timestamp"`
	Actor     string    `db:"actor"`
	Action    string    `db:"action"`
	Target    string    `db:"target"`
	Details   []byte    `db:"details"`
	Status    string    `db:"status"`
}

func (r auditRow) toEvent() Event {
	var details map[string]any
	_ = json.Unmarshal(r.Details, &details)
	return Event{
		ID:        r.ID,
		Sequence:  r.Sequence,
		Timestamp: r.Timestamp,
		Actor:     r.Actor,
		Action:    r.Action,
		Target:    r.Target,
		Details:   details,
		Status:    Status(r.Status),
	}
}

func (s *postgresStore) Log(ctx context.Context, in LogInput) Event {
	actor := in.Actor
	if actor == "" {
		actor = "system"
	}
	status := in.Status
	if status == "" {
		status = StatusSuccess
	}
	detailsJSON, _ := json.Marshal(in.Details)

	event := Event{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Actor:     actor,
		Action:    in.Action,
		Target:    in.Target,
		Details:   in.Details,
		Status:    status,
	}

	row := s.db.QueryRowxContext(ctx, `
		INSERT INTO audit_events (id, sequence, timestamp, actor, action, target, details, status)
		VALUES ($1, nextval('audit_events_sequence'), $2, $3, $4, $5, $6, $7)
		RETURNING sequence`,
		event.ID, event.Timestamp, event.Actor, event.Action, event.Target, detailsJSON, event.Status)
	_ = row.Scan(&event.Sequence)

	return event
}

func (s *postgresStore) List(ctx context.Context, limit int) []Event {
	if limit <= 0 {
		limit = defaultListLimit
	}
	var rows []auditRow
	if err := s.db.SelectContext(ctx, &rows, `
		SELECT * FROM audit_events ORDER BY sequence DESC LIMIT $1`, limit); err != nil {
		return nil
	}
	out := make([]Event, len(rows))
	for i, r := range rows {
		out[i] = r.toEvent()
	}
	return out
}

func (s *postgresStore) ListByTarget(ctx context.Context, target string) []Event {
	var rows []auditRow
	if err := s.db.SelectContext(ctx, &rows, `
		SELECT * FROM audit_events WHERE target = $1 ORDER BY sequence DESC`, target); err != nil {
		return nil
	}
	out := make([]Event, len(rows))
	for i, r := range rows {
		out[i] = r.toEvent()
	}
	return out
}
