package feed_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/officetrack/backend/internal/adapter/postgres/addendum"
	"github.com/officetrack/backend/internal/adapter/postgres/feed"
	"github.com/officetrack/backend/internal/adapter/postgres/testhelper"
	"github.com/officetrack/backend/internal/domain"
)

func newRepo(t *testing.T) (*feed.Repo, *pgxpool.Pool) {
	t.Helper()
	pool := testhelper.SetupTestDB(t)
	return feed.New(pool), pool
}

// seedAddendum writes a parent addendum row for feed entries to reference.
func seedAddendum(t *testing.T, pool *pgxpool.Pool, activityID uuid.UUID) uuid.UUID {
	t.Helper()

	add := &domain.Addendum{
		ID:                  uuid.New(),
		ActivityID:          activityID,
		ActivityName:        "seeded",
		Template:            "plan",
		User:                "+15550003333",
		Action:              domain.ActionCreate,
		Timestamp:           time.Now().UTC(),
		UserDeviceTimestamp: time.Now().UTC(),
	}
	if err := addendum.New(pool).Create(context.Background(), add); err != nil {
		t.Fatalf("seed addendum: %v", err)
	}
	return add.ID
}

func TestRepo_Insert_DuplicateIsNoOp(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	activity := testhelper.SeedActivity(t, pool)
	addendumID := seedAddendum(t, pool, activity.ID)
	viewer := uuid.New()

	entry := &domain.FeedEntry{
		ID:                  uuid.New(),
		UserUID:             viewer,
		AddendumID:          addendumID,
		ActivityID:          activity.ID,
		Comment:             "You created a seeded",
		User:                "+15550003333",
		Timestamp:           time.Now().UTC(),
		UserDeviceTimestamp: time.Now().UTC(),
	}

	inserted, err := repo.Insert(ctx, entry)
	if err != nil {
		t.Fatalf("Insert: unexpected error: %v", err)
	}
	if !inserted {
		t.Fatal("expected first insert to write a row")
	}

	// Redelivery: same addendum, same viewer, fresh entry id.
	dup := *entry
	dup.ID = uuid.New()
	inserted, err = repo.Insert(ctx, &dup)
	if err != nil {
		t.Fatalf("Insert (duplicate): unexpected error: %v", err)
	}
	if inserted {
		t.Fatal("expected duplicate insert to be a no-op")
	}

	entries, err := repo.ListSince(ctx, viewer, time.Time{})
	if err != nil {
		t.Fatalf("ListSince: unexpected error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 feed entry, got %d", len(entries))
	}
	if entries[0].Comment != "You created a seeded" {
		t.Errorf("Comment mismatch: got %q", entries[0].Comment)
	}
}

func TestRepo_ListSince_WindowExcludesFrom(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	activity := testhelper.SeedActivity(t, pool)
	viewer := uuid.New()
	base := time.Now().UTC().Truncate(time.Second)

	for i := 0; i < 3; i++ {
		addendumID := seedAddendum(t, pool, activity.ID)
		entry := &domain.FeedEntry{
			ID:                  uuid.New(),
			UserUID:             viewer,
			AddendumID:          addendumID,
			ActivityID:          activity.ID,
			Comment:             "entry",
			User:                "+15550003333",
			Timestamp:           base.Add(time.Duration(i) * time.Minute),
			UserDeviceTimestamp: base,
		}
		if _, err := repo.Insert(ctx, entry); err != nil {
			t.Fatalf("Insert: unexpected error: %v", err)
		}
	}

	// Cursor equal to the first entry's timestamp: strictly-after semantics
	// must return only the later two.
	entries, err := repo.ListSince(ctx, viewer, base)
	if err != nil {
		t.Fatalf("ListSince: unexpected error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 feed entries, got %d", len(entries))
	}
	if !entries[0].Timestamp.Before(entries[1].Timestamp) {
		t.Error("expected ascending timestamp order")
	}
}
