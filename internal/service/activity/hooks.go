package activity

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/officetrack/backend/internal/auth"
	"github.com/officetrack/backend/internal/domain"
)

// hookState is what a per-template hook sees inside the mutation
// transaction. Hooks run in the same batch as the activity write, so
// their side effects commit or roll back with it.
type hookState struct {
	tmpl      *domain.Template
	office    *domain.Office
	activity  *domain.Activity
	requester auth.Identity
	oldStatus domain.ActivityStatus
}

type hookFunc func(ctx context.Context, s *Service, h *hookState) error

// Per-template side effects, keyed by template name. The engine itself
// stays template-agnostic: anything a reserved template does beyond the
// standard batch lives here.
var createHooks = map[string]hookFunc{
	domain.TemplateCompany:      companyCreateHook,
	domain.TemplateSubscription: subscriptionCreateHook,
}

var statusHooks = map[string]hookFunc{
	domain.TemplateEmployee: employeeStatusHook,
}

// companyCreateHook denormalizes the company activity's attachment onto
// the office document itself.
func companyCreateHook(ctx context.Context, s *Service, h *hookState) error {
	h.office.Attachment = h.activity.Attachment
	h.office.ActivityID = &h.activity.ID
	h.office.Timestamp = h.activity.Timestamp

	if err := s.offices.Upsert(ctx, h.office); err != nil {
		return fmt.Errorf("company hook: %w", err)
	}
	return nil
}

// subscriptionCreateHook writes a subscription row for the requester, so
// the template the activity subscribes to starts appearing in their sync
// window.
func subscriptionCreateHook(ctx context.Context, s *Service, h *hookState) error {
	subscribedTemplate := h.tmpl.Name
	if field, ok := h.activity.Attachment["template"]; ok && field.Value != "" {
		subscribedTemplate = field.Value
	}

	sub := &domain.Subscription{
		ID:          uuid.New(),
		PhoneNumber: h.requester.PhoneNumber,
		Template:    subscribedTemplate,
		Office:      h.activity.Office,
		ActivityID:  h.activity.ID,
		Include:     h.tmpl.Include,
		Status:      h.activity.Status,
		Timestamp:   h.activity.Timestamp,
	}
	if err := s.subscriptions.Create(ctx, sub); err != nil {
		return fmt.Errorf("subscription hook: %w", err)
	}
	return nil
}

// employeeStatusHook maintains the denormalized office roster: a
// cancelled employee activity removes the roster entry; every other
// status refreshes it. The refresh itself is the generic entity
// denormalization; only the removal is employee-specific.
func employeeStatusHook(ctx context.Context, s *Service, h *hookState) error {
	if h.activity.Status != domain.StatusCancelled {
		return nil
	}

	key, err := entityKey(h.tmpl, h.activity)
	if err != nil {
		return err
	}
	if err := s.offices.DeleteEntity(ctx, h.activity.OfficeID, h.tmpl.Name, key); err != nil {
		return fmt.Errorf("employee hook: %w", err)
	}
	return nil
}

// entityKey extracts the stable attachment field that keys the
// denormalized entity document.
func entityKey(tmpl *domain.Template, activity *domain.Activity) (string, error) {
	field, ok := activity.Attachment[tmpl.EntityKeyField]
	if !ok || field.Value == "" {
		return "", domain.NewValidationError(tmpl.EntityKeyField, "required for "+tmpl.Name+" activities")
	}
	return field.Value, nil
}

// denormalizeEntity writes or refreshes the per-office entity document
// for templates that declare an entity key field, and returns the
// document id the activity root should reference. Cancelled activities
// keep their entity doc (status carried on it) except where a status
// hook removes it.
func (s *Service) denormalizeEntity(ctx context.Context, tmpl *domain.Template, activity *domain.Activity) (*uuid.UUID, error) {
	if tmpl.EntityKeyField == "" {
		return nil, nil
	}

	key, err := entityKey(tmpl, activity)
	if err != nil {
		return nil, err
	}

	id, err := s.offices.UpsertEntity(ctx, &domain.OfficeEntity{
		OfficeID:   activity.OfficeID,
		Template:   tmpl.Name,
		Key:        key,
		Attachment: activity.Attachment,
		Schedule:   activity.Schedule,
		Venue:      activity.Venue,
		ActivityID: activity.ID,
		Status:     activity.Status,
		Timestamp:  activity.Timestamp,
	})
	if err != nil {
		return nil, fmt.Errorf("denormalize %s entity: %w", tmpl.Name, err)
	}

	return &id, nil
}

// guardUncancel enforces the duplicate-name rule: reviving a cancelled
// activity whose template denormalizes an entity must not collide with a
// live entity under the same business key.
func (s *Service) guardUncancel(ctx context.Context, tmpl *domain.Template, activity *domain.Activity, newStatus domain.ActivityStatus) error {
	if tmpl.EntityKeyField == "" {
		return nil
	}
	if activity.Status != domain.StatusCancelled || newStatus == domain.StatusCancelled {
		return nil
	}

	key, err := entityKey(tmpl, activity)
	if err != nil {
		return err
	}

	live, err := s.offices.CountLiveEntities(ctx, activity.OfficeID, tmpl.Name, key)
	if err != nil {
		return fmt.Errorf("duplicate guard: %w", err)
	}
	if live > 0 {
		return fmt.Errorf("%s %q already active in this office: %w", tmpl.Name, key, domain.ErrConflict)
	}
	return nil
}
