// Package activity implements the mutation engine: template-governed
// creation, updates, status changes and comments, each applied as one
// atomic multi-document batch.
package activity

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/officetrack/backend/internal/auth"
	"github.com/officetrack/backend/internal/domain"
	"github.com/officetrack/backend/internal/service/fanout"
)

type templateRepo interface {
	GetByName(ctx context.Context, name string) (*domain.Template, error)
}

type officeRepo interface {
	GetByName(ctx context.Context, name string) (*domain.Office, error)
	Upsert(ctx context.Context, office *domain.Office) error
	UpsertEntity(ctx context.Context, entity *domain.OfficeEntity) (uuid.UUID, error)
	DeleteEntity(ctx context.Context, officeID uuid.UUID, template, key string) error
	CountLiveEntities(ctx context.Context, officeID uuid.UUID, template, key string) (int, error)
}

type activityRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Activity, error)
	Create(ctx context.Context, activity *domain.Activity) error
	Update(ctx context.Context, activity *domain.Activity) error
	UpsertAssignee(ctx context.Context, assignee domain.Assignee) error
	DeleteAssignee(ctx context.Context, activityID uuid.UUID, phoneNumber string) error
	ListAssignees(ctx context.Context, activityID uuid.UUID) ([]domain.Assignee, error)
}

type profileRepo interface {
	UpsertIdentity(ctx context.Context, phoneNumber string, uid uuid.UUID, displayName string) error
	EnsurePlaceholder(ctx context.Context, phoneNumber string) error
	GetActivity(ctx context.Context, phoneNumber string, activityID uuid.UUID) (*domain.ProfileActivity, error)
	UpsertActivity(ctx context.Context, mirror domain.ProfileActivity) error
	DeleteActivity(ctx context.Context, phoneNumber string, activityID uuid.UUID) error
}

type addendumRepo interface {
	Create(ctx context.Context, add *domain.Addendum) error
}

type subscriptionRepo interface {
	Create(ctx context.Context, sub *domain.Subscription) error
	Exists(ctx context.Context, phoneNumber, template, office string) (bool, error)
}

type dispatcher interface {
	Enqueue(ctx context.Context, event fanout.Event) error
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type inviteSender interface {
	SMS(ctx context.Context, to, message string)
}

// Service provides the activity mutation operations.
type Service struct {
	templates     templateRepo
	offices       officeRepo
	activities    activityRepo
	profiles      profileRepo
	addendums     addendumRepo
	subscriptions subscriptionRepo
	fanout        dispatcher
	invites       inviteSender
	tx            txManager
	log           *slog.Logger
	now           func() time.Time
}

// NewService creates a new activity service.
func NewService(
	log *slog.Logger,
	templates templateRepo,
	offices officeRepo,
	activities activityRepo,
	profiles profileRepo,
	addendums addendumRepo,
	subscriptions subscriptionRepo,
	fanout dispatcher,
	invites inviteSender,
	tx txManager,
) *Service {
	return &Service{
		templates:     templates,
		offices:       offices,
		activities:    activities,
		profiles:      profiles,
		addendums:     addendums,
		subscriptions: subscriptions,
		fanout:        fanout,
		invites:       invites,
		tx:            tx,
		log:           log.With("service", "activity"),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// EntityRoster answers the EMPLOYEE edit rule from the denormalized
// office roster: a phone number is an employee while a live
// employee-template entity document is keyed by it.
type EntityRoster struct {
	Offices officeRepo
}

func (r EntityRoster) IsEmployee(ctx context.Context, officeID uuid.UUID, phoneNumber string) (bool, error) {
	n, err := r.Offices.CountLiveEntities(ctx, officeID, domain.TemplateEmployee, phoneNumber)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Roster returns the employee-roster lookup backed by this service's
// office repository.
func (s *Service) Roster() EntityRoster {
	return EntityRoster{Offices: s.offices}
}

// bindIdentity writes the requester's verified uid and display name onto
// their profile row. Runs on every mutation: the phone auth provider owns
// the identity, so this is the only place the backend learns the
// uid-to-phone binding.
func (s *Service) bindIdentity(ctx context.Context, identity auth.Identity) error {
	err := s.profiles.UpsertIdentity(ctx, identity.PhoneNumber, identity.UID, identity.DisplayName)
	if err != nil {
		return fmt.Errorf("bind identity: %w", err)
	}
	return nil
}

// notifyAssignees texts everyone newly added to an activity, except the
// actor. Runs after commit; delivery is fire and forget.
func (s *Service) notifyAssignees(ctx context.Context, phones []string, actorPhone string, act *domain.Activity) {
	if s.invites == nil {
		return
	}
	for _, phone := range phones {
		if phone == actorPhone {
			continue
		}
		s.invites.SMS(ctx, phone,
			fmt.Sprintf("You were added to %q in %s.", act.Title, act.Office))
	}
}

// touchMirrors advances every current assignee's profile mirror to the
// mutation timestamp, keeping the activity inside each assignee's next
// sync window.
func (s *Service) touchMirrors(ctx context.Context, activityID uuid.UUID, ts time.Time) error {
	assignees, err := s.activities.ListAssignees(ctx, activityID)
	if err != nil {
		return fmt.Errorf("list assignees: %w", err)
	}
	for _, a := range assignees {
		if err := s.profiles.UpsertActivity(ctx, domain.ProfileActivity{
			PhoneNumber: a.PhoneNumber,
			ActivityID:  a.ActivityID,
			CanEdit:     a.CanEdit,
			Timestamp:   ts,
		}); err != nil {
			return fmt.Errorf("touch mirror %s: %w", a.PhoneNumber, err)
		}
	}
	return nil
}

const maxTitleFromDescription = 30

// resolveTitle applies the title fallback chain: explicit title, then a
// truncated description, then the template default.
func resolveTitle(title, description string, tmpl *domain.Template) string {
	if t := strings.TrimSpace(title); t != "" {
		return t
	}
	if d := strings.TrimSpace(description); d != "" {
		runes := []rune(d)
		if len(runes) > maxTitleFromDescription {
			return string(runes[:maxTitleFromDescription])
		}
		return d
	}
	return tmpl.DefaultTitle
}

// mergeSchedule conforms request schedules to the template shape: each
// shape entry keeps its defaults unless the request supplies the same
// name; request entries outside the shape are dropped.
func mergeSchedule(shape []domain.Schedule, requested []domain.Schedule) []domain.Schedule {
	byName := make(map[string]domain.Schedule, len(requested))
	for _, s := range requested {
		byName[s.Name] = s
	}

	merged := make([]domain.Schedule, len(shape))
	for i, def := range shape {
		if req, ok := byName[def.Name]; ok {
			merged[i] = req
		} else {
			merged[i] = def
		}
	}
	return merged
}

// mergeVenue conforms request venues to the template shape, keyed by
// venue descriptor. Same drop rule as mergeSchedule.
func mergeVenue(shape []domain.Venue, requested []domain.Venue) []domain.Venue {
	byDescriptor := make(map[string]domain.Venue, len(requested))
	for _, v := range requested {
		byDescriptor[v.VenueDescriptor] = v
	}

	merged := make([]domain.Venue, len(shape))
	for i, def := range shape {
		if req, ok := byDescriptor[def.VenueDescriptor]; ok {
			merged[i] = req
		} else {
			merged[i] = def
		}
	}
	return merged
}

// mergeAttachment keeps exactly the fields the template declares, taking
// request values where supplied and empty typed values otherwise.
func mergeAttachment(shape map[string]domain.AttachmentType, requested domain.Attachment) domain.Attachment {
	merged := make(domain.Attachment, len(shape))
	for field, typ := range shape {
		if val, ok := requested[field]; ok {
			merged[field] = domain.AttachmentValue{Value: val.Value, Type: typ}
		} else {
			merged[field] = domain.AttachmentValue{Type: typ}
		}
	}
	return merged
}

// dedupePhones returns the unique phone numbers in order of first
// appearance.
func dedupePhones(lists ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, list := range lists {
		for _, phone := range list {
			if _, ok := seen[phone]; ok {
				continue
			}
			seen[phone] = struct{}{}
			out = append(out, phone)
		}
	}
	return out
}
