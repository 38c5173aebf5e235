// Package subscription implements template-subscription persistence
// using PostgreSQL.
package subscription

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/officetrack/backend/internal/adapter/postgres"
	"github.com/officetrack/backend/internal/domain"
)

// Repo provides subscription persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
	sb   sq.StatementBuilderType
}

// New creates a new subscription repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{
		pool: pool,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

const createSubscriptionSQL = `
INSERT INTO subscriptions
    (id, phone_number, template, office, activity_id, include, status, ts)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

// Create inserts a new subscription row.
func (r *Repo) Create(ctx context.Context, sub *domain.Subscription) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	_, err := q.Exec(ctx, createSubscriptionSQL,
		sub.ID, sub.PhoneNumber, sub.Template, sub.Office,
		sub.ActivityID, sub.Include, sub.Status.String(), sub.Timestamp)
	if err != nil {
		return postgres.MapError(err, "subscription", sub.ID)
	}

	return nil
}

const hasSubscriptionSQL = `
SELECT EXISTS (
    SELECT 1 FROM subscriptions
    WHERE phone_number = $1 AND template = $2 AND office = $3
      AND status <> $4
)`

// Exists reports whether the phone number holds a live (non-cancelled)
// subscription to the template in the office.
func (r *Repo) Exists(ctx context.Context, phoneNumber, template, office string) (bool, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var exists bool
	err := q.QueryRow(ctx, hasSubscriptionSQL,
		phoneNumber, template, office, domain.StatusCancelled.String()).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check subscription: %w", err)
	}

	return exists, nil
}

// ListWindow returns the subscriptions with timestamp in (from, upto],
// ordered ascending. The sync reader resolves these into template deltas.
func (r *Repo) ListWindow(ctx context.Context, phoneNumber string, from, upto time.Time) ([]*domain.Subscription, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	query, args, err := r.sb.
		Select("id", "phone_number", "template", "office", "activity_id", "include", "status", "ts").
		From("subscriptions").
		Where(sq.Eq{"phone_number": phoneNumber}).
		Where(sq.Gt{"ts": from}).
		Where(sq.LtOrEq{"ts": upto}).
		OrderBy("ts ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build subscriptions query: %w", err)
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []*domain.Subscription
	for rows.Next() {
		var (
			sub    domain.Subscription
			status string
		)
		if err := rows.Scan(
			&sub.ID, &sub.PhoneNumber, &sub.Template, &sub.Office,
			&sub.ActivityID, &sub.Include, &status, &sub.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		sub.Status = domain.ActivityStatus(status)
		subs = append(subs, &sub)
	}

	return subs, rows.Err()
}
