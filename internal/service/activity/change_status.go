package activity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/officetrack/backend/internal/domain"
	"github.com/officetrack/backend/internal/service/validate"
	"github.com/officetrack/backend/pkg/ctxutil"
)

// ChangeStatus moves an activity to a new template-legal status. The
// requester must hold canEdit on the activity; the transition must
// actually change the status (a no-op transition is a conflict). All
// reads happen inside the transaction so a retry after contention
// re-derives the batch from fresh state.
func (s *Service) ChangeStatus(ctx context.Context, input ChangeStatusInput) (*domain.Activity, error) {
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

		if input.Status == act.Status {
			return fmt.Errorf("status already %s: %w", act.Status, domain.ErrConflict)
		}
		if !tmpl.AllowsStatus(input.Status) {
			return domain.NewValidationError("status",
				fmt.Sprintf("%s is not a legal status for %s activities", input.Status, tmpl.Name))
		}

		if err := s.guardUncancel(txCtx, tmpl, act, input.Status); err != nil {
			return err
		}

		now := s.now()
		addendumID := uuid.New()
		oldStatus := act.Status

		act.Status = input.Status
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
		if err := s.touchMirrors(txCtx, act.ID, now); err != nil {
			return err
		}

		status := input.Status
		add = &domain.Addendum{
			ID:                  addendumID,
			OfficeID:            act.OfficeID,
			ActivityID:          act.ID,
			ActivityName:        act.Title,
			Template:            act.Template,
			User:                identity.Actor(),
			Action:              domain.ActionChangeStatus,
			Status:              &status,
			Location:            input.Location,
			Timestamp:           now,
			UserDeviceTimestamp: validate.MillisToTime(input.UserDeviceTimestamp),
		}
		if err := s.addendums.Create(txCtx, add); err != nil {
			return fmt.Errorf("create addendum: %w", err)
		}

		if hook, ok := statusHooks[tmpl.Name]; ok {
			return hook(txCtx, s, &hookState{
				tmpl:      tmpl,
				activity:  act,
				requester: identity,
				oldStatus: oldStatus,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.enqueueFanout(ctx, add, identity.PhoneNumber)

	s.log.InfoContext(ctx, "activity status changed",
		slog.String("activity_id", act.ID.String()),
		slog.String("status", act.Status.String()),
	)

	return act, nil
}

// requireCanEdit checks the edit flag on the requester's profile mirror.
// The mirror, not the rule, is the authority: it carries the flag as
// computed at assignment time.
func (s *Service) requireCanEdit(ctx context.Context, phoneNumber string, activityID uuid.UUID) error {
	mirror, err := s.profiles.GetActivity(ctx, phoneNumber, activityID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("not an assignee: %w", domain.ErrForbidden)
		}
		return fmt.Errorf("get profile mirror: %w", err)
	}
	if !mirror.CanEdit {
		return fmt.Errorf("edit not permitted: %w", domain.ErrForbidden)
	}
	return nil
}

// requireAssignee checks that the requester is assigned to the activity,
// without demanding edit rights. Commenting needs only this.
func (s *Service) requireAssignee(ctx context.Context, phoneNumber string, activityID uuid.UUID) error {
	_, err := s.profiles.GetActivity(ctx, phoneNumber, activityID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("not an assignee: %w", domain.ErrForbidden)
		}
		return fmt.Errorf("get profile mirror: %w", err)
	}
	return nil
}
