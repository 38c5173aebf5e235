// Package profile implements phone-number profile persistence plus the
// per-profile activity index that mirrors assignee rows.
package profile

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/officetrack/backend/internal/adapter/postgres"
	"github.com/officetrack/backend/internal/domain"
)

// Repo provides profile persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
	sb   sq.StatementBuilderType
}

// New creates a new profile repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{
		pool: pool,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// ---------------------------------------------------------------------------
// Profiles
// ---------------------------------------------------------------------------

const getProfileSQL = `
SELECT phone_number, uid, display_name
FROM profiles
WHERE phone_number = $1`

// GetByPhone returns the profile for a phone number.
func (r *Repo) GetByPhone(ctx context.Context, phoneNumber string) (*domain.Profile, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var p domain.Profile
	err := q.QueryRow(ctx, getProfileSQL, phoneNumber).
		Scan(&p.PhoneNumber, &p.UID, &p.DisplayName)
	if err != nil {
		return nil, postgres.MapError(err, "profile", phoneNumber)
	}

	return &p, nil
}

// GetByPhones returns the profiles for the given phone numbers, keyed by
// phone number. Numbers without a profile are absent from the map.
func (r *Repo) GetByPhones(ctx context.Context, phoneNumbers []string) (map[string]*domain.Profile, error) {
	if len(phoneNumbers) == 0 {
		return nil, nil
	}

	q := postgres.QuerierFromCtx(ctx, r.pool)

	query, args, err := r.sb.
		Select("phone_number", "uid", "display_name").
		From("profiles").
		Where(sq.Eq{"phone_number": phoneNumbers}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build profiles query: %w", err)
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	profiles := make(map[string]*domain.Profile, len(phoneNumbers))
	for rows.Next() {
		var p domain.Profile
		if err := rows.Scan(&p.PhoneNumber, &p.UID, &p.DisplayName); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		profiles[p.PhoneNumber] = &p
	}

	return profiles, rows.Err()
}

const upsertIdentitySQL = `
INSERT INTO profiles (phone_number, uid, display_name)
VALUES ($1, $2, NULLIF($3, ''))
ON CONFLICT (phone_number) DO UPDATE
SET uid          = EXCLUDED.uid,
    display_name = COALESCE(EXCLUDED.display_name, profiles.display_name)`

// UpsertIdentity binds a verified uid (and display name, when the
// provider knows one) to a phone number. Fills in placeholder rows left
// by earlier assignments, which is how a new sign-up inherits its
// accumulated activity index.
func (r *Repo) UpsertIdentity(ctx context.Context, phoneNumber string, uid uuid.UUID, displayName string) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	if _, err := q.Exec(ctx, upsertIdentitySQL, phoneNumber, uid, displayName); err != nil {
		return postgres.MapError(err, "profile", phoneNumber)
	}

	return nil
}

const ensureProfileSQL = `
INSERT INTO profiles (phone_number, uid)
VALUES ($1, NULL)
ON CONFLICT (phone_number) DO NOTHING`

// EnsurePlaceholder creates a uid-less profile row for a phone number
// introduced through assignment. A later sign-up fills in the uid and
// inherits the accumulated activity index. Idempotent.
func (r *Repo) EnsurePlaceholder(ctx context.Context, phoneNumber string) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	if _, err := q.Exec(ctx, ensureProfileSQL, phoneNumber); err != nil {
		return postgres.MapError(err, "profile", phoneNumber)
	}

	return nil
}

// ---------------------------------------------------------------------------
// Activity index (the assignee mirror)
// ---------------------------------------------------------------------------

const upsertProfileActivitySQL = `
INSERT INTO profile_activities (phone_number, activity_id, can_edit, ts)
VALUES ($1, $2, $3, $4)
ON CONFLICT (phone_number, activity_id) DO UPDATE
SET can_edit = EXCLUDED.can_edit, ts = EXCLUDED.ts`

// UpsertActivity writes one activity-index mirror row. Always called in
// the same transaction as the matching assignee write.
func (r *Repo) UpsertActivity(ctx context.Context, mirror domain.ProfileActivity) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	_, err := q.Exec(ctx, upsertProfileActivitySQL,
		mirror.PhoneNumber, mirror.ActivityID, mirror.CanEdit, mirror.Timestamp)
	if err != nil {
		return postgres.MapError(err, "profile_activity", mirror.PhoneNumber)
	}

	return nil
}

const deleteProfileActivitySQL = `
DELETE FROM profile_activities WHERE phone_number = $1 AND activity_id = $2`

// DeleteActivity removes one mirror row. Idempotent.
func (r *Repo) DeleteActivity(ctx context.Context, phoneNumber string, activityID uuid.UUID) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	if _, err := q.Exec(ctx, deleteProfileActivitySQL, phoneNumber, activityID); err != nil {
		return postgres.MapError(err, "profile_activity", phoneNumber)
	}

	return nil
}

const getProfileActivitySQL = `
SELECT phone_number, activity_id, can_edit, ts
FROM profile_activities
WHERE phone_number = $1 AND activity_id = $2`

// GetActivity returns the mirror row for one (phone, activity) pair.
// Update permission checks read this row rather than recomputing the
// rule, honoring time-of-assignment semantics.
func (r *Repo) GetActivity(ctx context.Context, phoneNumber string, activityID uuid.UUID) (*domain.ProfileActivity, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var m domain.ProfileActivity
	err := q.QueryRow(ctx, getProfileActivitySQL, phoneNumber, activityID).
		Scan(&m.PhoneNumber, &m.ActivityID, &m.CanEdit, &m.Timestamp)
	if err != nil {
		return nil, postgres.MapError(err, "profile_activity", activityID)
	}

	return &m, nil
}

// ListActivitiesWindow returns the mirror rows with timestamp in
// (from, upto], ordered ascending. This drives the incremental sync.
func (r *Repo) ListActivitiesWindow(ctx context.Context, phoneNumber string, from, upto time.Time) ([]domain.ProfileActivity, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	query, args, err := r.sb.
		Select("phone_number", "activity_id", "can_edit", "ts").
		From("profile_activities").
		Where(sq.Eq{"phone_number": phoneNumber}).
		Where(sq.Gt{"ts": from}).
		Where(sq.LtOrEq{"ts": upto}).
		OrderBy("ts ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build profile_activities query: %w", err)
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list profile_activities: %w", err)
	}
	defer rows.Close()

	var mirrors []domain.ProfileActivity
	for rows.Next() {
		var m domain.ProfileActivity
		if err := rows.Scan(&m.PhoneNumber, &m.ActivityID, &m.CanEdit, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("scan profile_activity: %w", err)
		}
		mirrors = append(mirrors, m)
	}

	return mirrors, rows.Err()
}
