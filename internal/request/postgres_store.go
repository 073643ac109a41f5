package request

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dhawalhost/igacore/internal/igaerr"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// postgresStore is an optional durable Store backing, used when
// DATABASE_URL is configured.
type postgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore wraps db as a Request Store. Callers are responsible
// for having applied the access_requests table schema.
func NewPostgresStore(db *sqlx.DB) Store {
	return &postgresStore{db: db}
}

type requestRow struct {
	ID               string    `db:"id"`
	RequesterID      string    `db:"requester_id"`
	TargetIdentityID string    `db:"target_identity_id"`
	Entitlement      string    `db:"entitlement"`
	Justification    string    `db:"justification"`
	Status           string    `db:"status"`
	ApproverID       sql.NullString `db:"approver_id"`
	Comments         sql.NullString `db:"comments"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

func (r requestRow) toRequest() AccessRequest {
	return AccessRequest{
		ID:               r.ID,
		RequesterID:      r.RequesterID,
		TargetIdentityID: r.TargetIdentityID,
		Entitlement:      r.Entitlement,
		Justification:    r.Justification,
		Status:           Status(r.Status),
		ApproverID:       r.ApproverID.String,
		Comments:         r.Comments.String,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

func (s *postgresStore) Get(ctx context.Context, id string) (AccessRequest, error) {
	var row requestRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM access_requests WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return AccessRequest{}, igaerr.NotFound("request %s not found", id)
	}
	if err != nil {
		return AccessRequest{}, igaerr.Internal(err, "querying request %s", id)
	}
	return row.toRequest(), nil
}

func (s *postgresStore) Create(ctx context.Context, in CreateInput) (AccessRequest, error) {
	now := time.Now().UTC()
	r := AccessRequest{
		ID:               uuid.NewString(),
		RequesterID:      in.RequesterID,
		TargetIdentityID: in.TargetIdentityID,
		Entitlement:      in.Entitlement,
		Justification:    in.Justification,
		Status:           StatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO access_requests
			(id, requester_id, target_identity_id, entitlement, justification, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		r.ID, r.RequesterID, r.TargetIdentityID, r.Entitlement, r.Justification, r.Status, r.CreatedAt, r.UpdatedAt)
	if err != nil {
		return AccessRequest{}, igaerr.Internal(err, "creating request for %s", in.RequesterID)
	}
	return r, nil
}

func (s *postgresStore) Update(ctx context.Context, id string, mutate func(r *AccessRequest) error) (AccessRequest, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return AccessRequest{}, igaerr.Internal(err, "starting update transaction")
	}
	defer func() { _ = tx.Rollback() }()

	var row requestRow
	err = tx.GetContext(ctx, &row, `SELECT * FROM access_requests WHERE id = $1 FOR UPDATE`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return AccessRequest{}, igaerr.NotFound("request %s not found", id)
	}
	if err != nil {
		return AccessRequest{}, igaerr.Internal(err, "locking request %s", id)
	}

	r := row.toRequest()
	if err := mutate(&r); err != nil {
		return AccessRequest{}, err
	}
	r.UpdatedAt = time.Now().UTC()

	_, err = tx.ExecContext(ctx, `
		UPDATE access_requests SET status=$1, approver_id=$2, comments=$3, updated_at=$4
		WHERE id=$5`,
		r.Status, sql.NullString{String: r.ApproverID, Valid: r.ApproverID != ""},
		sql.NullString{String: r.Comments, Valid: r.Comments != ""}, r.UpdatedAt, r.ID)
	if err != nil {
		return AccessRequest{}, igaerr.Internal(err, "updating request %s", id)
	}
	if err := tx.Commit(); err != nil {
		return AccessRequest{}, igaerr.Internal(err, "committing request update %s", id)
	}
	return r, nil
}

func (s *postgresStore) List(ctx context.Context, status Status) ([]AccessRequest, error) {
	var rows []requestRow
	var err error
	if status == "" {
		err = s.db.SelectContext(ctx, &rows, `SELECT * FROM access_requests ORDER BY created_at DESC`)
	} else {
		err = s.db.SelectContext(ctx, &rows, `SELECT * FROM access_requests WHERE status = $1 ORDER BY created_at DESC`, status)
	}
	if err != nil {
		return nil, igaerr.Internal(err, "listing requests")
	}
	out := make([]AccessRequest, len(rows))
	for i, r := range rows {
		out[i] = r.toRequest()
	}
	return out, nil
}
