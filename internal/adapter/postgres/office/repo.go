// Package office implements office (tenant) persistence plus the
// denormalized per-office entity documents that some templates maintain.
package office

import (
	"context"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/officetrack/backend/internal/adapter/postgres"
	"github.com/officetrack/backend/internal/domain"
)

// Repo provides office persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
	sb   sq.StatementBuilderType
}

// New creates a new office repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{
		pool: pool,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// ---------------------------------------------------------------------------
// Office reads
// ---------------------------------------------------------------------------

const getOfficeByNameSQL = `
SELECT id, name, attachment, activity_id, ts
FROM offices
WHERE name = $1`

// GetByName returns the office with the given name.
// Returns domain.ErrNotFound when the office does not exist.
func (r *Repo) GetByName(ctx context.Context, name string) (*domain.Office, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var (
		office     domain.Office
		attachment []byte
	)
	err := q.QueryRow(ctx, getOfficeByNameSQL, name).
		Scan(&office.ID, &office.Name, &attachment, &office.ActivityID, &office.Timestamp)
	if err != nil {
		return nil, postgres.MapError(err, "office", name)
	}

	if err := json.Unmarshal(attachment, &office.Attachment); err != nil {
		return nil, fmt.Errorf("office %s unmarshal attachment: %w", name, err)
	}

	return &office, nil
}

// ---------------------------------------------------------------------------
// Office writes
// ---------------------------------------------------------------------------

const upsertOfficeSQL = `
INSERT INTO offices (id, name, attachment, activity_id, ts)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (name) DO UPDATE
SET attachment = EXCLUDED.attachment,
    activity_id = EXCLUDED.activity_id,
    ts = EXCLUDED.ts`

// Upsert writes the office document, keyed by name so re-running the
// same logical update is idempotent. Used by the company-template hook.
func (r *Repo) Upsert(ctx context.Context, office *domain.Office) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	attachment, err := json.Marshal(office.Attachment)
	if err != nil {
		return fmt.Errorf("office %s marshal attachment: %w", office.Name, err)
	}

	_, err = q.Exec(ctx, upsertOfficeSQL,
		office.ID, office.Name, attachment, office.ActivityID, office.Timestamp)
	if err != nil {
		return postgres.MapError(err, "office", office.Name)
	}

	return nil
}

// ---------------------------------------------------------------------------
// Denormalized entity documents
// ---------------------------------------------------------------------------

const upsertEntitySQL = `
INSERT INTO office_entities
    (id, office_id, template, entity_key, attachment, schedule, venue, activity_id, status, ts)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (office_id, template, entity_key) DO UPDATE
SET attachment = EXCLUDED.attachment,
    schedule = EXCLUDED.schedule,
    venue = EXCLUDED.venue,
    activity_id = EXCLUDED.activity_id,
    status = EXCLUDED.status,
    ts = EXCLUDED.ts
RETURNING id`

// UpsertEntity writes a denormalized entity document. The business key is
// (office, template, stable attachment field), never an autogenerated id,
// so replays overwrite instead of duplicating. Returns the document id
// actually stored (the existing one on conflict).
func (r *Repo) UpsertEntity(ctx context.Context, entity *domain.OfficeEntity) (uuid.UUID, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	attachment, err := json.Marshal(entity.Attachment)
	if err != nil {
		return uuid.Nil, fmt.Errorf("office entity %s marshal attachment: %w", entity.Key, err)
	}
	schedule, err := json.Marshal(entity.Schedule)
	if err != nil {
		return uuid.Nil, fmt.Errorf("office entity %s marshal schedule: %w", entity.Key, err)
	}
	venue, err := json.Marshal(entity.Venue)
	if err != nil {
		return uuid.Nil, fmt.Errorf("office entity %s marshal venue: %w", entity.Key, err)
	}

	var id uuid.UUID
	err = q.QueryRow(ctx, upsertEntitySQL,
		uuid.New(), entity.OfficeID, entity.Template, entity.Key,
		attachment, schedule, venue,
		entity.ActivityID, entity.Status.String(), entity.Timestamp,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, postgres.MapError(err, "office_entity", entity.Key)
	}

	return id, nil
}

const deleteEntitySQL = `
DELETE FROM office_entities
WHERE office_id = $1 AND template = $2 AND entity_key = $3`

// DeleteEntity removes a denormalized entity document. Idempotent:
// deleting an absent document is not an error.
func (r *Repo) DeleteEntity(ctx context.Context, officeID uuid.UUID, template, key string) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	if _, err := q.Exec(ctx, deleteEntitySQL, officeID, template, key); err != nil {
		return postgres.MapError(err, "office_entity", key)
	}

	return nil
}

const countLiveEntitiesSQL = `
SELECT count(*)
FROM office_entities
WHERE office_id = $1 AND template = $2 AND entity_key = $3 AND status <> $4`

// CountLiveEntities returns the number of non-cancelled entity documents
// with the given business key. Used by the un-cancel duplicate-name guard.
func (r *Repo) CountLiveEntities(ctx context.Context, officeID uuid.UUID, template, key string) (int, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var count int
	err := q.QueryRow(ctx, countLiveEntitiesSQL,
		officeID, template, key, domain.StatusCancelled.String()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count office_entities: %w", err)
	}

	return count, nil
}

// GetEntitiesByIDs returns denormalized entity documents by their document
// ids (the doc_ref values on activity roots). Missing ids are skipped.
func (r *Repo) GetEntitiesByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.OfficeEntity, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	q := postgres.QuerierFromCtx(ctx, r.pool)

	query, args, err := r.sb.
		Select("id", "office_id", "template", "entity_key", "attachment", "schedule", "venue", "activity_id", "status", "ts").
		From("office_entities").
		Where(sq.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build entities query: %w", err)
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list office_entities: %w", err)
	}
	defer rows.Close()

	var entities []*domain.OfficeEntity
	for rows.Next() {
		var (
			entity     domain.OfficeEntity
			attachment []byte
			schedule   []byte
			venue      []byte
			status     string
		)
		if err := rows.Scan(
			&entity.ID, &entity.OfficeID, &entity.Template, &entity.Key,
			&attachment, &schedule, &venue,
			&entity.ActivityID, &status, &entity.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("scan office_entity: %w", err)
		}

		entity.Status = domain.ActivityStatus(status)
		if err := json.Unmarshal(attachment, &entity.Attachment); err != nil {
			return nil, fmt.Errorf("office_entity %s unmarshal attachment: %w", entity.Key, err)
		}
		if err := json.Unmarshal(schedule, &entity.Schedule); err != nil {
			return nil, fmt.Errorf("office_entity %s unmarshal schedule: %w", entity.Key, err)
		}
		if err := json.Unmarshal(venue, &entity.Venue); err != nil {
			return nil, fmt.Errorf("office_entity %s unmarshal venue: %w", entity.Key, err)
		}

		entities = append(entities, &entity)
	}

	return entities, rows.Err()
}
