package activity

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/officetrack/backend/internal/domain"
	"github.com/officetrack/backend/internal/service/validate"
	"github.com/officetrack/backend/pkg/ctxutil"
)

// Comment records a free-text remark on an activity. Any assignee may
// comment; edit rights are not required. The comment is carried verbatim
// into every viewer's feed.
func (s *Service) Comment(ctx context.Context, input CommentInput) (*domain.Addendum, error) {
	identity, ok := ctxutil.IdentityFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	if err := input.Validate(); err != nil {
		return nil, err
	}

	comment := strings.TrimSpace(input.Comment)

	var add *domain.Addendum

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.bindIdentity(txCtx, identity); err != nil {
			return err
		}

		act, err := s.activities.GetByID(txCtx, input.ActivityID)
		if err != nil {
			return fmt.Errorf("get activity: %w", err)
		}

		if err := s.requireAssignee(txCtx, identity.PhoneNumber, act.ID); err != nil {
			return err
		}

		now := s.now()
		addendumID := uuid.New()

		// The activity root advances too, so the comment shows up in
		// every assignee's next sync window.
		act.AddendumID = &addendumID
		act.Timestamp = now
		if err := s.activities.Update(txCtx, act); err != nil {
			return fmt.Errorf("update activity: %w", err)
		}
		if err := s.touchMirrors(txCtx, act.ID, now); err != nil {
			return err
		}

		add = &domain.Addendum{
			ID:                  addendumID,
			OfficeID:            act.OfficeID,
			ActivityID:          act.ID,
			ActivityName:        act.Title,
			Template:            act.Template,
			User:                identity.Actor(),
			Action:              domain.ActionComment,
			Comment:             &comment,
			Location:            input.Location,
			Timestamp:           now,
			UserDeviceTimestamp: validate.MillisToTime(input.UserDeviceTimestamp),
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

	s.log.InfoContext(ctx, "activity commented",
		slog.String("activity_id", input.ActivityID.String()),
	)

	return add, nil
}
