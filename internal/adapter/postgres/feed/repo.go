// Package feed implements the per-user update stream using PostgreSQL.
// Entries are written only by the addendum fan-out; users never mutate
// them.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/officetrack/backend/internal/adapter/postgres"
	"github.com/officetrack/backend/internal/domain"
)

// Repo provides feed entry persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
	sb   sq.StatementBuilderType
}

// New creates a new feed repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{
		pool: pool,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

const insertFeedEntrySQL = `
INSERT INTO feed_entries
    (id, user_uid, addendum_id, activity_id, comment, user_identifier,
     location, ts, user_device_ts)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (addendum_id, user_uid) DO NOTHING`

// Insert writes one feed entry. Redelivery of the same addendum for the
// same viewer hits the (addendum_id, user_uid) unique key and becomes a
// no-op; the boolean reports whether a row was actually written.
func (r *Repo) Insert(ctx context.Context, entry *domain.FeedEntry) (bool, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	location, err := json.Marshal(entry.Location)
	if err != nil {
		return false, fmt.Errorf("feed entry %s marshal location: %w", entry.ID, err)
	}

	tag, err := q.Exec(ctx, insertFeedEntrySQL,
		entry.ID, entry.UserUID, entry.AddendumID, entry.ActivityID,
		entry.Comment, entry.User, location,
		entry.Timestamp, entry.UserDeviceTimestamp,
	)
	if err != nil {
		return false, postgres.MapError(err, "feed_entry", entry.ID)
	}

	return tag.RowsAffected() > 0, nil
}

// ListSince returns the viewer's feed entries with timestamp strictly
// after `from`, ordered ascending. The caller derives the new sync cursor
// from the last entry.
func (r *Repo) ListSince(ctx context.Context, userUID uuid.UUID, from time.Time) ([]*domain.FeedEntry, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	query, args, err := r.sb.
		Select("id", "user_uid", "addendum_id", "activity_id", "comment",
			"user_identifier", "location", "ts", "user_device_ts").
		From("feed_entries").
		Where(sq.Eq{"user_uid": userUID}).
		Where(sq.Gt{"ts": from}).
		OrderBy("ts ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build feed query: %w", err)
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list feed_entries: %w", err)
	}
	defer rows.Close()

	var entries []*domain.FeedEntry
	for rows.Next() {
		var (
			entry    domain.FeedEntry
			location []byte
		)
		if err := rows.Scan(
			&entry.ID, &entry.UserUID, &entry.AddendumID, &entry.ActivityID,
			&entry.Comment, &entry.User, &location,
			&entry.Timestamp, &entry.UserDeviceTimestamp,
		); err != nil {
			return nil, fmt.Errorf("scan feed_entry: %w", err)
		}
		if err := json.Unmarshal(location, &entry.Location); err != nil {
			return nil, fmt.Errorf("feed_entry %s unmarshal location: %w", entry.ID, err)
		}
		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}
