package activity

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/officetrack/backend/internal/domain"
	"github.com/officetrack/backend/internal/service/permission"
	"github.com/officetrack/backend/internal/service/validate"
	"github.com/officetrack/backend/pkg/ctxutil"
)

// UpdateActivity applies a partial update: only supplied fields are
// overwritten, assign/unassign lists are processed as a diff against the
// current assignee set, and the whole change commits as one batch. The
// requester must hold canEdit on the activity.
func (s *Service) UpdateActivity(ctx context.Context, input UpdateActivityInput) (*domain.Activity, error) {
	identity, ok := ctxutil.IdentityFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	if err := input.Validate(); err != nil {
		return nil, err
	}

	var (
		act *domain.Activity
		add *domain.Addendum
	)

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.bindIdentity(txCtx, identity); err != nil {
			return err
		}

		var err error
		act, err = s.activities.GetByID(txCtx, input.ActivityID)
		if err != nil {
			return fmt.Errorf("get activity: %w", err)
		}

		if err := s.requireCanEdit(txCtx, identity.PhoneNumber, act.ID); err != nil {
			return err
		}

		tmpl, err := s.templates.GetByName(txCtx, act.Template)
		if err != nil {
			return fmt.Errorf("get template: %w", err)
		}

		updatedFields := applyFieldUpdates(act, tmpl, input)

		now := s.now()
		addendumID := uuid.New()
		act.AddendumID = &addendumID
		act.Timestamp = now

		docRef, err := s.denormalizeEntity(txCtx, tmpl, act)
		if err != nil {
			return err
		}
		act.DocRef = docRef

		if err := s.activities.Update(txCtx, act); err != nil {
			return fmt.Errorf("update activity: %w", err)
		}

		if err := s.applyAssigneeDiff(txCtx, tmpl, act, identity.PhoneNumber, input, now); err != nil {
			return err
		}
		if err := s.touchMirrors(txCtx, act.ID, now); err != nil {
			return err
		}
		if len(input.Assign) > 0 || len(input.Unassign) > 0 {
			updatedFields = append(updatedFields, "assignees")
		}

		add = &domain.Addendum{
			ID:                  addendumID,
			OfficeID:            act.OfficeID,
			ActivityID:          act.ID,
			ActivityName:        act.Title,
			Template:            act.Template,
			User:                identity.Actor(),
			Action:              domain.ActionUpdate,
			UpdatedFields:       updatedFields,
			Location:            input.Location,
			Timestamp:           now,
			UserDeviceTimestamp: validate.MillisToTime(input.UserDeviceTimestamp),
		}
		// A pure assignment change reads better as a share event.
		if len(updatedFields) == 1 && updatedFields[0] == "assignees" && len(input.Assign) > 0 && len(input.Unassign) == 0 {
			add.Action = domain.ActionShare
			add.Share = input.Assign
			add.UpdatedFields = nil
		}

		if err := s.addendums.Create(txCtx, add); err != nil {
			return fmt.Errorf("create addendum: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.enqueueFanout(ctx, add, identity.PhoneNumber)
	s.notifyAssignees(ctx, input.Assign, identity.PhoneNumber, act)

	s.log.InfoContext(ctx, "activity updated",
		slog.String("activity_id", act.ID.String()),
		slog.String("fields", strings.Join(add.UpdatedFields, ",")),
		slog.String("action", add.Action.String()),
	)

	return act, nil
}

// applyFieldUpdates merges the supplied fields onto the activity and
// returns the names of the fields that changed, for the audit record.
func applyFieldUpdates(act *domain.Activity, tmpl *domain.Template, input UpdateActivityInput) []string {
	var updated []string

	if input.Title != nil && *input.Title != act.Title {
		act.Title = strings.TrimSpace(*input.Title)
		updated = append(updated, "title")
	}
	if input.Description != nil && *input.Description != act.Description {
		act.Description = *input.Description
		updated = append(updated, "description")
	}
	if len(input.Schedule) > 0 {
		act.Schedule = mergeSchedule(tmpl.ScheduleShape, input.Schedule)
		updated = append(updated, "schedule")
	}
	if len(input.Venue) > 0 {
		act.Venue = mergeVenue(tmpl.VenueShape, input.Venue)
		updated = append(updated, "venue")
	}
	if len(input.Attachment) > 0 {
		merged := make(domain.Attachment, len(act.Attachment))
		for k, v := range act.Attachment {
			merged[k] = v
		}
		for field, typ := range tmpl.AttachmentShape {
			if val, ok := input.Attachment[field]; ok {
				merged[field] = domain.AttachmentValue{Value: val.Value, Type: typ}
			}
		}
		act.Attachment = merged
		updated = append(updated, "attachment")
	}

	return updated
}

// applyAssigneeDiff removes each unassigned phone number and adds each
// assigned one, recomputing canEdit fresh for new assignees. The creator
// rule keys off the requester here: time-of-assignment semantics.
func (s *Service) applyAssigneeDiff(ctx context.Context, tmpl *domain.Template, act *domain.Activity, requesterPhone string, input UpdateActivityInput, now time.Time) error {
	for _, phone := range input.Unassign {
		if err := s.activities.DeleteAssignee(ctx, act.ID, phone); err != nil {
			return fmt.Errorf("unassign %s: %w", phone, err)
		}
		if err := s.profiles.DeleteActivity(ctx, phone, act.ID); err != nil {
			return fmt.Errorf("unmirror %s: %w", phone, err)
		}
	}

	for _, phone := range input.Assign {
		canEdit, err := permission.ComputeCanEdit(ctx, s.Roster(), tmpl.CanEditRule, act.OfficeID, phone, requesterPhone)
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
			Timestamp:   now,
		}); err != nil {
			return fmt.Errorf("mirror %s: %w", phone, err)
		}
	}

	return nil
}
