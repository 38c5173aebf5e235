// Package sync implements incremental client synchronization: a
// timestamp cursor walks the requester's feed, activity index and
// subscriptions so clients can diff their local cache instead of
// re-downloading it.
package sync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/officetrack/backend/internal/domain"
	"github.com/officetrack/backend/pkg/ctxutil"
)

type feedRepo interface {
	ListSince(ctx context.Context, userUID uuid.UUID, from time.Time) ([]*domain.FeedEntry, error)
}

type profileRepo interface {
	UpsertIdentity(ctx context.Context, phoneNumber string, uid uuid.UUID, displayName string) error
	ListActivitiesWindow(ctx context.Context, phoneNumber string, from, upto time.Time) ([]domain.ProfileActivity, error)
}

type activityRepo interface {
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Activity, error)
	ListAssigneesByActivityIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]domain.Assignee, error)
}

type officeRepo interface {
	GetEntitiesByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.OfficeEntity, error)
}

type subscriptionRepo interface {
	ListWindow(ctx context.Context, phoneNumber string, from, upto time.Time) ([]*domain.Subscription, error)
}

type templateRepo interface {
	GetByName(ctx context.Context, name string) (*domain.Template, error)
}

// Service provides the read-changes operation.
type Service struct {
	feed          feedRepo
	profiles      profileRepo
	activities    activityRepo
	offices       officeRepo
	subscriptions subscriptionRepo
	templates     templateRepo
	log           *slog.Logger
}

// NewService creates a new sync service.
func NewService(
	log *slog.Logger,
	feed feedRepo,
	profiles profileRepo,
	activities activityRepo,
	offices officeRepo,
	subscriptions subscriptionRepo,
	templates templateRepo,
) *Service {
	return &Service{
		feed:          feed,
		profiles:      profiles,
		activities:    activities,
		offices:       offices,
		subscriptions: subscriptions,
		templates:     templates,
		log:           log.With("service", "sync"),
	}
}

// ActivityChange is one changed activity hydrated with its assignee list,
// the requester's own edit flag, and the denormalized entity document it
// references, if any.
type ActivityChange struct {
	Activity  *domain.Activity
	Assignees []domain.Assignee
	CanEdit   bool
	Entity    *domain.OfficeEntity
}

// TemplateChange is a template that became relevant through a
// subscription, tagged with the office it was subscribed under.
type TemplateChange struct {
	Template *domain.Template
	Office   string
}

// Changes is one sync response. Upto is the new cursor; it equals From
// when nothing changed, so clients can always feed it straight back.
type Changes struct {
	Addendums  []*domain.FeedEntry
	Activities []ActivityChange
	Templates  []TemplateChange
	From       time.Time
	Upto       time.Time
}

// ReadChanges returns everything that changed for the requester strictly
// after the cursor: feed entries ascending, then the activity index and
// subscriptions inside (from, upto].
func (s *Service) ReadChanges(ctx context.Context, from time.Time) (*Changes, error) {
	identity, ok := ctxutil.IdentityFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	// A first read after sign-in is when a placeholder profile gets its
	// uid, so the binding runs before the feed query.
	if err := s.profiles.UpsertIdentity(ctx, identity.PhoneNumber, identity.UID, identity.DisplayName); err != nil {
		return nil, fmt.Errorf("bind identity: %w", err)
	}

	entries, err := s.feed.ListSince(ctx, identity.UID, from)
	if err != nil {
		return nil, fmt.Errorf("list feed: %w", err)
	}

	changes := &Changes{
		Addendums: entries,
		From:      from,
		Upto:      from,
	}
	if len(entries) == 0 {
		return changes, nil
	}
	changes.Upto = entries[len(entries)-1].Timestamp

	if err := s.hydrateActivities(ctx, identity.PhoneNumber, changes); err != nil {
		return nil, err
	}
	if err := s.hydrateTemplates(ctx, identity.PhoneNumber, changes); err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "changes read",
		slog.String("uid", identity.UID.String()),
		slog.Int("addendums", len(changes.Addendums)),
		slog.Int("activities", len(changes.Activities)),
		slog.Int("templates", len(changes.Templates)),
	)

	return changes, nil
}

func (s *Service) hydrateActivities(ctx context.Context, phoneNumber string, changes *Changes) error {
	mirrors, err := s.profiles.ListActivitiesWindow(ctx, phoneNumber, changes.From, changes.Upto)
	if err != nil {
		return fmt.Errorf("list activity index: %w", err)
	}
	if len(mirrors) == 0 {
		return nil
	}

	canEdit := make(map[uuid.UUID]bool, len(mirrors))
	ids := make([]uuid.UUID, len(mirrors))
	for i, m := range mirrors {
		ids[i] = m.ActivityID
		canEdit[m.ActivityID] = m.CanEdit
	}

	activities, err := s.activities.ListByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("list activities: %w", err)
	}
	assignees, err := s.activities.ListAssigneesByActivityIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("list assignees: %w", err)
	}

	var entityIDs []uuid.UUID
	for _, act := range activities {
		if act.DocRef != nil {
			entityIDs = append(entityIDs, *act.DocRef)
		}
	}
	entityByID := make(map[uuid.UUID]*domain.OfficeEntity)
	if len(entityIDs) > 0 {
		entities, err := s.offices.GetEntitiesByIDs(ctx, entityIDs)
		if err != nil {
			return fmt.Errorf("list entity docs: %w", err)
		}
		for _, e := range entities {
			entityByID[e.ID] = e
		}
	}

	for _, act := range activities {
		change := ActivityChange{
			Activity:  act,
			Assignees: assignees[act.ID],
			CanEdit:   canEdit[act.ID],
		}
		if act.DocRef != nil {
			change.Entity = entityByID[*act.DocRef]
		}
		changes.Activities = append(changes.Activities, change)
	}
	return nil
}

func (s *Service) hydrateTemplates(ctx context.Context, phoneNumber string, changes *Changes) error {
	subs, err := s.subscriptions.ListWindow(ctx, phoneNumber, changes.From, changes.Upto)
	if err != nil {
		return fmt.Errorf("list subscriptions: %w", err)
	}

	seen := make(map[string]struct{})
	for _, sub := range subs {
		key := sub.Template + "\x00" + sub.Office
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		tmpl, err := s.templates.GetByName(ctx, sub.Template)
		if err != nil {
			return fmt.Errorf("get template %s: %w", sub.Template, err)
		}
		changes.Templates = append(changes.Templates, TemplateChange{
			Template: tmpl,
			Office:   sub.Office,
		})
	}
	return nil
}
