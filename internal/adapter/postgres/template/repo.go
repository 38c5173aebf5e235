// Package template implements the read-only template catalog using
// PostgreSQL. Template authoring has no API here; rows are seeded by
// migrations or operator tooling.
package template

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/officetrack/backend/internal/adapter/postgres"
	"github.com/officetrack/backend/internal/domain"
)

// Repo provides template catalog reads backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new template repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const getTemplateSQL = `
SELECT name, default_title, status_on_create, statuses, can_edit_rule,
       schedule_shape, venue_shape, attachment_shape, include, entity_key_field
FROM templates
WHERE name = $1`

// GetByName returns the template with the exact given name.
// Returns domain.ErrNotFound if no such template exists; absence is a
// client error, not a system fault.
func (r *Repo) GetByName(ctx context.Context, name string) (*domain.Template, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var (
		tmpl           domain.Template
		statuses       []string
		scheduleShape  []byte
		venueShape     []byte
		attachShape    []byte
		statusOnCreate string
		canEditRule    string
	)

	err := q.QueryRow(ctx, getTemplateSQL, name).Scan(
		&tmpl.Name,
		&tmpl.DefaultTitle,
		&statusOnCreate,
		&statuses,
		&canEditRule,
		&scheduleShape,
		&venueShape,
		&attachShape,
		&tmpl.Include,
		&tmpl.EntityKeyField,
	)
	if err != nil {
		return nil, postgres.MapError(err, "template", name)
	}

	tmpl.StatusOnCreate = domain.ActivityStatus(statusOnCreate)
	tmpl.CanEditRule = domain.CanEditRule(canEditRule)
	tmpl.Statuses = make([]domain.ActivityStatus, len(statuses))
	for i, s := range statuses {
		tmpl.Statuses[i] = domain.ActivityStatus(s)
	}

	if err := json.Unmarshal(scheduleShape, &tmpl.ScheduleShape); err != nil {
		return nil, fmt.Errorf("template %s unmarshal schedule shape: %w", name, err)
	}
	if err := json.Unmarshal(venueShape, &tmpl.VenueShape); err != nil {
		return nil, fmt.Errorf("template %s unmarshal venue shape: %w", name, err)
	}
	if err := json.Unmarshal(attachShape, &tmpl.AttachmentShape); err != nil {
		return nil, fmt.Errorf("template %s unmarshal attachment shape: %w", name, err)
	}

	return &tmpl, nil
}
