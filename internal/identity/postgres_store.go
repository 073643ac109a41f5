package identity

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/dhawalhost/igacore/internal/igaerr"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// postgresStore is an optional durable Store backing, used when
// DATABASE_URL is configured. It keeps the same semantics as
// memoryStore, including the employee_id uniqueness invariant, which
// here is enforced by a unique index on employee_id.
type postgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore wraps db as an Identity Store. Callers are
// responsible for having applied the identities table schema.
func NewPostgresStore(db *sqlx.DB) Store {
	return &postgresStore{db: db}
}

type identityRow struct {
	ID             string    `db:"id"`
	EmployeeID     string    `db:"employee_id"`
	FirstName      string    `db:"first_name"`
	LastName       string    `db:"last_name"`
	Email          string    `db:"email"`
	Department     string    `db:"department"`
	JobTitle       string    `db:"job_title"`
	ManagerID      string    `db:"manager_id"`
	Status         string    `db:"status"`
	LifecycleState string    `db:"lifecycle_state"`
	RiskScore      string    `db:"risk_score"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
	Entitlements   []byte    `db:"entitlements"`
	Accounts       []byte    `db:"accounts"`
}

func (r identityRow) toProfile() (Profile, error) {
	p := Profile{
		ID:             r.ID,
		EmployeeID:     r.EmployeeID,
		FirstName:      r.FirstName,
		LastName:       r.LastName,
		Email:          r.Email,
		Department:     r.Department,
		JobTitle:       r.JobTitle,
		ManagerID:      r.ManagerID,
		Status:         Status(r.Status),
		LifecycleState: LifecycleState(r.LifecycleState),
		RiskScore:      RiskScore(r.RiskScore),
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
	if err := json.Unmarshal(r.Entitlements, &p.Entitlements); err != nil {
		return Profile{}, err
	}
	if err := json.Unmarshal(r.Accounts, &p.Accounts); err != nil {
		return Profile{}, err
	}
	return p, nil
}

func (s *postgresStore) Get(ctx context.Context, id string) (Profile, error) {
	var row identityRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM identities WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, igaerr.NotFound("identity %s not found", id)
	}
	if err != nil {
		return Profile{}, igaerr.Internal(err, "querying identity %s", id)
	}
	return row.toProfile()
}

func (s *postgresStore) GetByEmployeeID(ctx context.Context, employeeID string) (Profile, error) {
	var row identityRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM identities WHERE employee_id = $1`, employeeID)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, igaerr.NotFound("employee %s not found", employeeID)
	}
	if err != nil {
		return Profile{}, igaerr.Internal(err, "querying employee %s", employeeID)
	}
	return row.toProfile()
}

func (s *postgresStore) Create(ctx context.Context, in CreateInput) (Profile, error) {
	now := time.Now().UTC()
	p := Profile{
		ID:             uuid.NewString(),
		EmployeeID:     in.EmployeeID,
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		Email:          in.Email,
		Department:     in.Department,
		JobTitle:       in.JobTitle,
		ManagerID:      in.ManagerID,
		Status:         StatusActive,
		LifecycleState: LifecycleJoiner,
		RiskScore:      RiskLow,
		CreatedAt:      now,
		UpdatedAt:      now,
		Entitlements:   []string{},
	}

	entitlementsJSON, _ := json.Marshal(p.Entitlements)
	accountsJSON, _ := json.Marshal(p.Accounts)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO identities
			(id, employee_id, first_name, last_name, email, department, job_title,
			 manager_id, status, lifecycle_state, risk_score, created_at, updated_at,
			 entitlements, accounts)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
		p.ID, p.EmployeeID, p.FirstName, p.LastName, p.Email, p.Department, p.JobTitle,
		p.ManagerID, p.Status, p.LifecycleState, p.RiskScore, p.CreatedAt, p.UpdatedAt,
		entitlementsJSON, accountsJSON)
	if err != nil {
		if isUniqueViolation(err) {
			return Profile{}, igaerr.Validation("employee_id %s already exists", in.EmployeeID)
		}
		return Profile{}, igaerr.Internal(err, "creating identity %s", in.EmployeeID)
	}
	return p, nil
}

func (s *postgresStore) Update(ctx context.Context, id string, mutate func(p *Profile) error) (Profile, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return Profile{}, igaerr.Internal(err, "starting update transaction")
	}
	defer func() { _ = tx.Rollback() }()

	var row identityRow
	err = tx.GetContext(ctx, &row, `SELECT * FROM identities WHERE id = $1 FOR UPDATE`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, igaerr.NotFound("identity %s not found", id)
	}
	if err != nil {
		return Profile{}, igaerr.Internal(err, "locking identity %s", id)
	}

	p, err := row.toProfile()
	if err != nil {
		return Profile{}, igaerr.Internal(err, "decoding identity %s", id)
	}
	if err := mutate(&p); err != nil {
		return Profile{}, err
	}
	p.UpdatedAt = time.Now().UTC()

	entitlementsJSON, _ := json.Marshal(p.Entitlements)
	accountsJSON, _ := json.Marshal(p.Accounts)

	_, err = tx.ExecContext(ctx, `
		UPDATE identities SET
			first_name=$1, last_name=$2, email=$3, department=$4, job_title=$5,
			manager_id=$6, status=$7, lifecycle_state=$8, risk_score=$9,
			updated_at=$10, entitlements=$11, accounts=$12
		WHERE id=$13`,
		p.FirstName, p.LastName, p.Email, p.Department, p.JobTitle,
		p.ManagerID, p.Status, p.LifecycleState, p.RiskScore,
		p.UpdatedAt, entitlementsJSON, accountsJSON, p.ID)
	if err != nil {
		return Profile{}, igaerr.Internal(err, "updating identity %s", id)
	}
	if err := tx.Commit(); err != nil {
		return Profile{}, igaerr.Internal(err, "committing identity update %s", id)
	}
	return p, nil
}

func (s *postgresStore) List(ctx context.Context) ([]Profile, error) {
	var rows []identityRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT * FROM identities ORDER BY created_at`); err != nil {
		return nil, igaerr.Internal(err, "listing identities")
	}
	out := make([]Profile, 0, len(rows))
	for _, r := range rows {
		p, err := r.toProfile()
		if err != nil {
			return nil, igaerr.Internal(err, "decoding identity %s", r.ID)
		}
		out = append(out, p)
	}
	return out, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}
