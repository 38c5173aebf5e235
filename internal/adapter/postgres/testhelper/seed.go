package testhelper

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/officetrack/backend/internal/domain"
)

// SeedTemplate inserts a minimal template with a unique name and returns it.
// The template allows all three statuses and defaults to the creator rule.
func SeedTemplate(t *testing.T, pool *pgxpool.Pool) *domain.Template {
	t.Helper()

	tmpl := &domain.Template{
		Name:           fmt.Sprintf("tmpl-%s", uuid.NewString()[:8]),
		DefaultTitle:   "Untitled",
		StatusOnCreate: domain.StatusPending,
		Statuses: []domain.ActivityStatus{
			domain.StatusPending, domain.StatusConfirmed, domain.StatusCancelled,
		},
		CanEditRule: domain.CanEditCreator,
	}

	_, err := pool.Exec(context.Background(), `
		INSERT INTO templates
		    (name, default_title, status_on_create, statuses, can_edit_rule)
		VALUES ($1, $2, $3, $4, $5)`,
		tmpl.Name, tmpl.DefaultTitle, tmpl.StatusOnCreate.String(),
		[]string{"PENDING", "CONFIRMED", "CANCELLED"}, tmpl.CanEditRule.String(),
	)
	if err != nil {
		t.Fatalf("testhelper: seed template: %v", err)
	}

	return tmpl
}

// SeedOffice inserts an office with a unique name and returns it.
func SeedOffice(t *testing.T, pool *pgxpool.Pool) *domain.Office {
	t.Helper()

	office := &domain.Office{
		ID:         uuid.New(),
		Name:       fmt.Sprintf("office-%s", uuid.NewString()[:8]),
		Attachment: domain.Attachment{},
		Timestamp:  time.Now().UTC(),
	}

	_, err := pool.Exec(context.Background(), `
		INSERT INTO offices (id, name, attachment, ts)
		VALUES ($1, $2, '{}', $3)`,
		office.ID, office.Name, office.Timestamp,
	)
	if err != nil {
		t.Fatalf("testhelper: seed office: %v", err)
	}

	return office
}

// SeedProfile inserts a profile with a unique phone number and a uid.
func SeedProfile(t *testing.T, pool *pgxpool.Pool) *domain.Profile {
	t.Helper()

	uid := uuid.New()
	p := &domain.Profile{
		PhoneNumber: fmt.Sprintf("+1999%07d", time.Now().UnixNano()%10000000),
		UID:         &uid,
	}

	_, err := pool.Exec(context.Background(), `
		INSERT INTO profiles (phone_number, uid)
		VALUES ($1, $2)
		ON CONFLICT (phone_number) DO NOTHING`,
		p.PhoneNumber, p.UID,
	)
	if err != nil {
		t.Fatalf("testhelper: seed profile: %v", err)
	}

	return p
}

// SeedActivity inserts an activity bound to a freshly seeded template and
// office, and returns it.
func SeedActivity(t *testing.T, pool *pgxpool.Pool) *domain.Activity {
	t.Helper()

	tmpl := SeedTemplate(t, pool)
	office := SeedOffice(t, pool)

	activity := &domain.Activity{
		ID:         uuid.New(),
		Template:   tmpl.Name,
		OfficeID:   office.ID,
		Office:     office.Name,
		Status:     domain.StatusPending,
		Title:      "seeded",
		Attachment: domain.Attachment{},
		Timestamp:  time.Now().UTC(),
	}

	_, err := pool.Exec(context.Background(), `
		INSERT INTO activities
		    (id, template, office_id, office, status, title, ts)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		activity.ID, activity.Template, activity.OfficeID, activity.Office,
		activity.Status.String(), activity.Title, activity.Timestamp,
	)
	if err != nil {
		t.Fatalf("testhelper: seed activity: %v", err)
	}

	return activity
}
