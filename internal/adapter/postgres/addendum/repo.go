// Package addendum implements the append-only addendum log using
// PostgreSQL. Addendum rows are the single source of audit truth; there
// is no update or delete path.
package addendum

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/officetrack/backend/internal/adapter/postgres"
	"github.com/officetrack/backend/internal/domain"
)

// Repo provides addendum persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new addendum repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const createAddendumSQL = `
INSERT INTO addendums
    (id, office_id, activity_id, activity_name, template, user_identifier,
     action, status, comment, share, removed, updated_fields,
     updated_phone_number, location, ts, user_device_ts)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

// Create appends one addendum record. Exactly one is written per
// state-changing mutation, inside that mutation's transaction.
func (r *Repo) Create(ctx context.Context, add *domain.Addendum) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	location, err := json.Marshal(add.Location)
	if err != nil {
		return fmt.Errorf("addendum %s marshal location: %w", add.ID, err)
	}

	var status *string
	if add.Status != nil {
		s := add.Status.String()
		status = &s
	}

	_, err = q.Exec(ctx, createAddendumSQL,
		add.ID, add.OfficeID, add.ActivityID, add.ActivityName, add.Template,
		add.User, add.Action.String(), status, add.Comment, add.Share,
		add.Remove, add.UpdatedFields, add.UpdatedPhoneNumber,
		location, add.Timestamp, add.UserDeviceTimestamp,
	)
	if err != nil {
		return postgres.MapError(err, "addendum", add.ID)
	}

	return nil
}

const getAddendumSQL = `
SELECT id, office_id, activity_id, activity_name, template, user_identifier,
       action, status, comment, share, removed, updated_fields,
       updated_phone_number, location, ts, user_device_ts
FROM addendums
WHERE id = $1`

// GetByID returns an addendum by primary key.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Addendum, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var (
		add      domain.Addendum
		action   string
		status   *string
		location []byte
	)

	err := q.QueryRow(ctx, getAddendumSQL, id).Scan(
		&add.ID, &add.OfficeID, &add.ActivityID, &add.ActivityName, &add.Template,
		&add.User, &action, &status, &add.Comment, &add.Share,
		&add.Remove, &add.UpdatedFields, &add.UpdatedPhoneNumber,
		&location, &add.Timestamp, &add.UserDeviceTimestamp,
	)
	if err != nil {
		return nil, postgres.MapError(err, "addendum", id)
	}

	add.Action = domain.AddendumAction(action)
	if status != nil {
		s := domain.ActivityStatus(*status)
		add.Status = &s
	}
	if err := json.Unmarshal(location, &add.Location); err != nil {
		return nil, fmt.Errorf("addendum %s unmarshal location: %w", id, err)
	}

	return &add, nil
}
