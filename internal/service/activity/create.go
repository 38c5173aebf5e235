package activity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/officetrack/backend/internal/auth"
	"github.com/officetrack/backend/internal/domain"
	"github.com/officetrack/backend/internal/service/fanout"
	"github.com/officetrack/backend/internal/service/permission"
	"github.com/officetrack/backend/internal/service/validate"
	"github.com/officetrack/backend/pkg/ctxutil"
)

// CreateActivity creates a template-governed activity for the
// authenticated requester. The activity root, assignees, profile mirrors,
// the creation addendum and any per-template side effects commit as one
// batch.
func (s *Service) CreateActivity(ctx context.Context, input CreateActivityInput) (*domain.Activity, error) {
	identity, ok := ctxutil.IdentityFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	if err := input.Validate(); err != nil {
		return nil, err
	}

	tmpl, err := s.templates.GetByName(ctx, input.Template)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewValidationError("template", "no such template")
		}
		return nil, fmt.Errorf("get template: %w", err)
	}

	// The personal pseudo-office accepts only plan activities.
	if input.Office == domain.OfficePersonal && tmpl.Name != domain.TemplatePlan {
		return nil, domain.NewValidationError("office",
			"only "+domain.TemplatePlan+" activities are allowed in the personal office")
	}

	office, creatingOffice, err := s.resolveOffice(ctx, input.Office, tmpl)
	if err != nil {
		return nil, err
	}

	if err := s.checkCreatePermission(ctx, identity, tmpl, office, creatingOffice); err != nil {
		return nil, err
	}

	now := s.now()
	addendumID := uuid.New()

	act := &domain.Activity{
		ID:          uuid.New(),
		Template:    tmpl.Name,
		OfficeID:    office.ID,
		Office:      office.Name,
		Status:      tmpl.StatusOnCreate,
		Title:       resolveTitle(input.Title, input.Description, tmpl),
		Description: input.Description,
		Schedule:    mergeSchedule(tmpl.ScheduleShape, input.Schedule),
		Venue:       mergeVenue(tmpl.VenueShape, input.Venue),
		Attachment:  mergeAttachment(tmpl.AttachmentShape, input.Attachment),
		AddendumID:  &addendumID,
		Timestamp:   now,
	}

	add := &domain.Addendum{
		ID:                  addendumID,
		OfficeID:            office.ID,
		ActivityID:          act.ID,
		ActivityName:        act.Title,
		Template:            tmpl.Name,
		User:                identity.Actor(),
		Action:              domain.ActionCreate,
		Location:            input.Location,
		Timestamp:           now,
		UserDeviceTimestamp: validate.MillisToTime(input.UserDeviceTimestamp),
	}

	phones := dedupePhones([]string{identity.PhoneNumber}, tmpl.Include, input.Share)

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.bindIdentity(txCtx, identity); err != nil {
			return err
		}

		if creatingOffice {
			if err := s.offices.Upsert(txCtx, office); err != nil {
				return fmt.Errorf("create office: %w", err)
			}
		}

		docRef, err := s.denormalizeEntity(txCtx, tmpl, act)
		if err != nil {
			return err
		}
		act.DocRef = docRef

		if err := s.activities.Create(txCtx, act); err != nil {
			return fmt.Errorf("create activity: %w", err)
		}

		if err := s.writeAssignees(txCtx, tmpl, act, phones, identity.PhoneNumber); err != nil {
			return err
		}

		if err := s.addendums.Create(txCtx, add); err != nil {
			return fmt.Errorf("create addendum: %w", err)
		}

		if hook, ok := createHooks[tmpl.Name]; ok {
			return hook(txCtx, s, &hookState{
				tmpl:      tmpl,
				office:    office,
				activity:  act,
				requester: identity,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.enqueueFanout(ctx, add, identity.PhoneNumber)
	s.notifyAssignees(ctx, phones, identity.PhoneNumber, act)

	s.log.InfoContext(ctx, "activity created",
		slog.String("activity_id", act.ID.String()),
		slog.String("template", tmpl.Name),
		slog.String("office", office.Name),
		slog.Int("assignees", len(phones)),
	)

	return act, nil
}

// resolveOffice looks the office up by name. A company activity may found
// a new office; every other template requires an existing one.
func (s *Service) resolveOffice(ctx context.Context, name string, tmpl *domain.Template) (*domain.Office, bool, error) {
	office, err := s.offices.GetByName(ctx, name)
	if err == nil {
		return office, false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, false, fmt.Errorf("get office: %w", err)
	}

	if tmpl.Name != domain.TemplateCompany {
		return nil, false, domain.NewValidationError("office", "no such office")
	}

	return &domain.Office{
		ID:        uuid.New(),
		Name:      name,
		Timestamp: s.now(),
	}, true, nil
}

// checkCreatePermission gates creation outside the personal office: the
// requester needs a live subscription to the template under that office,
// or a claim that overrides it. Founding a new office needs only an
// authenticated identity; the founder becomes its first subscriber via
// claims or a later subscription.
func (s *Service) checkCreatePermission(ctx context.Context, identity auth.Identity, tmpl *domain.Template, office *domain.Office, creatingOffice bool) error {
	if office.Name == domain.OfficePersonal || creatingOffice {
		return nil
	}

	claims := identity.Claims
	if claims.Support || claims.SuperUser || claims.IsAdminOf(office.Name) {
		return nil
	}

	subscribed, err := s.subscriptions.Exists(ctx, identity.PhoneNumber, tmpl.Name, office.Name)
	if err != nil {
		return fmt.Errorf("check subscription: %w", err)
	}
	if !subscribed {
		return fmt.Errorf("no subscription to %s in %s: %w", tmpl.Name, office.Name, domain.ErrForbidden)
	}
	return nil
}

// writeAssignees writes assignee rows and their profile mirrors for every
// phone number, deriving canEdit from the template rule. Unknown numbers
// get a uid-less profile placeholder first so the mirror's foreign key
// holds and later sign-ups inherit the index.
func (s *Service) writeAssignees(ctx context.Context, tmpl *domain.Template, act *domain.Activity, phones []string, creatorPhone string) error {
	for _, phone := range phones {
		canEdit, err := permission.ComputeCanEdit(ctx, s.Roster(), tmpl.CanEditRule, act.OfficeID, phone, creatorPhone)
		if err != nil {
			return err
		}

		if err := s.profiles.EnsurePlaceholder(ctx, phone); err != nil {
			return fmt.Errorf("ensure profile %s: %w", phone, err)
		}
		if err := s.activities.UpsertAssignee(ctx, domain.Assignee{
			ActivityID:  act.ID,
			PhoneNumber: phone,
			CanEdit:     canEdit,
		}); err != nil {
			return fmt.Errorf("assign %s: %w", phone, err)
		}
		if err := s.profiles.UpsertActivity(ctx, domain.ProfileActivity{
			PhoneNumber: phone,
			ActivityID:  act.ID,
			CanEdit:     canEdit,
			Timestamp:   act.Timestamp,
		}); err != nil {
			return fmt.Errorf("mirror %s: %w", phone, err)
		}
	}
	return nil
}

// enqueueFanout hands the committed addendum to the asynchronous fan-out.
// The mutation has already committed, so failures are logged, not
// returned.
func (s *Service) enqueueFanout(ctx context.Context, add *domain.Addendum, actorPhone string) {
	err := s.fanout.Enqueue(ctx, fanout.Event{Addendum: add, ActorPhone: actorPhone})
	if err != nil {
		s.log.ErrorContext(ctx, "fan-out enqueue failed",
			slog.String("addendum_id", add.ID.String()),
			slog.String("error", err.Error()),
		)
	}
}
