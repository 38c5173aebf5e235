// Package activity implements activity root and assignee persistence
// using PostgreSQL. Assignee rows live with the activity because the two
// are written by the same transaction and never diverge.
package activity

import (
	"context"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/officetrack/backend/internal/adapter/postgres"
	"github.com/officetrack/backend/internal/domain"
)

// Repo provides activity persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
	sb   sq.StatementBuilderType
}

// New creates a new activity repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{
		pool: pool,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

const getActivitySQL = `
SELECT id, template, office_id, office, status, title, description,
       schedule, venue, attachment, doc_ref, addendum_id, ts
FROM activities
WHERE id = $1`

// GetByID returns an activity by primary key.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Activity, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	row := q.QueryRow(ctx, getActivitySQL, id)
	activity, err := scanActivity(row)
	if err != nil {
		return nil, postgres.MapError(err, "activity", id)
	}

	return activity, nil
}

// ListByIDs returns the activities with the given ids. Missing ids are
// skipped; order is unspecified.
func (r *Repo) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Activity, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	q := postgres.QuerierFromCtx(ctx, r.pool)

	query, args, err := r.sb.
		Select("id", "template", "office_id", "office", "status", "title", "description",
			"schedule", "venue", "attachment", "doc_ref", "addendum_id", "ts").
		From("activities").
		Where(sq.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build activities query: %w", err)
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	defer rows.Close()

	var activities []*domain.Activity
	for rows.Next() {
		activity, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		activities = append(activities, activity)
	}

	return activities, rows.Err()
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

const insertActivitySQL = `
INSERT INTO activities
    (id, template, office_id, office, status, title, description,
     schedule, venue, attachment, doc_ref, addendum_id, ts)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

// Create inserts a new activity root document.
func (r *Repo) Create(ctx context.Context, activity *domain.Activity) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	schedule, venue, attachment, err := marshalDocFields(activity)
	if err != nil {
		return err
	}

	_, err = q.Exec(ctx, insertActivitySQL,
		activity.ID, activity.Template, activity.OfficeID, activity.Office,
		activity.Status.String(), activity.Title, activity.Description,
		schedule, venue, attachment,
		activity.DocRef, activity.AddendumID, activity.Timestamp,
	)
	if err != nil {
		return postgres.MapError(err, "activity", activity.ID)
	}

	return nil
}

const updateActivitySQL = `
UPDATE activities
SET status = $2, title = $3, description = $4,
    schedule = $5, venue = $6, attachment = $7,
    doc_ref = $8, addendum_id = $9, ts = $10
WHERE id = $1`

// Update overwrites the mutable fields of an activity root. The service
// layer re-derives the full document from fresh reads before calling
// this, so merge semantics are decided there, not here.
func (r *Repo) Update(ctx context.Context, activity *domain.Activity) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	schedule, venue, attachment, err := marshalDocFields(activity)
	if err != nil {
		return err
	}

	tag, err := q.Exec(ctx, updateActivitySQL,
		activity.ID,
		activity.Status.String(), activity.Title, activity.Description,
		schedule, venue, attachment,
		activity.DocRef, activity.AddendumID, activity.Timestamp,
	)
	if err != nil {
		return postgres.MapError(err, "activity", activity.ID)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("activity %s: %w", activity.ID, domain.ErrNotFound)
	}

	return nil
}

// ---------------------------------------------------------------------------
// Assignees
// ---------------------------------------------------------------------------

const upsertAssigneeSQL = `
INSERT INTO assignees (activity_id, phone_number, can_edit)
VALUES ($1, $2, $3)
ON CONFLICT (activity_id, phone_number) DO UPDATE
SET can_edit = EXCLUDED.can_edit`

// UpsertAssignee writes one assignee row.
func (r *Repo) UpsertAssignee(ctx context.Context, assignee domain.Assignee) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	_, err := q.Exec(ctx, upsertAssigneeSQL,
		assignee.ActivityID, assignee.PhoneNumber, assignee.CanEdit)
	if err != nil {
		return postgres.MapError(err, "assignee", assignee.PhoneNumber)
	}

	return nil
}

const deleteAssigneeSQL = `
DELETE FROM assignees WHERE activity_id = $1 AND phone_number = $2`

// DeleteAssignee removes one assignee row. Idempotent.
func (r *Repo) DeleteAssignee(ctx context.Context, activityID uuid.UUID, phoneNumber string) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	if _, err := q.Exec(ctx, deleteAssigneeSQL, activityID, phoneNumber); err != nil {
		return postgres.MapError(err, "assignee", phoneNumber)
	}

	return nil
}

const listAssigneesSQL = `
SELECT activity_id, phone_number, can_edit
FROM assignees
WHERE activity_id = $1
ORDER BY phone_number`

// ListAssignees returns all assignees of an activity.
func (r *Repo) ListAssignees(ctx context.Context, activityID uuid.UUID) ([]domain.Assignee, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := q.Query(ctx, listAssigneesSQL, activityID)
	if err != nil {
		return nil, fmt.Errorf("list assignees: %w", err)
	}
	defer rows.Close()

	var assignees []domain.Assignee
	for rows.Next() {
		var a domain.Assignee
		if err := rows.Scan(&a.ActivityID, &a.PhoneNumber, &a.CanEdit); err != nil {
			return nil, fmt.Errorf("scan assignee: %w", err)
		}
		assignees = append(assignees, a)
	}

	return assignees, rows.Err()
}

// ListAssigneesByActivityIDs returns the assignees of several activities
// grouped by activity id, for response hydration.
func (r *Repo) ListAssigneesByActivityIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]domain.Assignee, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	q := postgres.QuerierFromCtx(ctx, r.pool)

	query, args, err := r.sb.
		Select("activity_id", "phone_number", "can_edit").
		From("assignees").
		Where(sq.Eq{"activity_id": ids}).
		OrderBy("activity_id", "phone_number").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build assignees query: %w", err)
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list assignees: %w", err)
	}
	defer rows.Close()

	grouped := make(map[uuid.UUID][]domain.Assignee, len(ids))
	for rows.Next() {
		var a domain.Assignee
		if err := rows.Scan(&a.ActivityID, &a.PhoneNumber, &a.CanEdit); err != nil {
			return nil, fmt.Errorf("scan assignee: %w", err)
		}
		grouped[a.ActivityID] = append(grouped[a.ActivityID], a)
	}

	return grouped, rows.Err()
}

// ---------------------------------------------------------------------------
// Scanning helpers
// ---------------------------------------------------------------------------

func scanActivity(row pgx.Row) (*domain.Activity, error) {
	var (
		activity   domain.Activity
		status     string
		schedule   []byte
		venue      []byte
		attachment []byte
	)

	err := row.Scan(
		&activity.ID, &activity.Template, &activity.OfficeID, &activity.Office,
		&status, &activity.Title, &activity.Description,
		&schedule, &venue, &attachment,
		&activity.DocRef, &activity.AddendumID, &activity.Timestamp,
	)
	if err != nil {
		return nil, err
	}

	activity.Status = domain.ActivityStatus(status)
	if err := json.Unmarshal(schedule, &activity.Schedule); err != nil {
		return nil, fmt.Errorf("unmarshal schedule: %w", err)
	}
	if err := json.Unmarshal(venue, &activity.Venue); err != nil {
		return nil, fmt.Errorf("unmarshal venue: %w", err)
	}
	if err := json.Unmarshal(attachment, &activity.Attachment); err != nil {
		return nil, fmt.Errorf("unmarshal attachment: %w", err)
	}

	return &activity, nil
}

func marshalDocFields(activity *domain.Activity) (schedule, venue, attachment []byte, err error) {
	if schedule, err = json.Marshal(activity.Schedule); err != nil {
		return nil, nil, nil, fmt.Errorf("activity %s marshal schedule: %w", activity.ID, err)
	}
	if venue, err = json.Marshal(activity.Venue); err != nil {
		return nil, nil, nil, fmt.Errorf("activity %s marshal venue: %w", activity.ID, err)
	}
	if attachment, err = json.Marshal(activity.Attachment); err != nil {
		return nil, nil, nil, fmt.Errorf("activity %s marshal attachment: %w", activity.ID, err)
	}
	return schedule, venue, attachment, nil
}
