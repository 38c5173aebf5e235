package activity

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/officetrack/backend/internal/domain"
)

// seedActivity puts an activity with one editing assignee into the mocks.
func seedActivity(f *fixture, tmpl *domain.Template, status domain.ActivityStatus, editorPhone string, canEdit bool) *domain.Activity {
	act := &domain.Activity{
		ID:       uuid.New(),
		Template: tmpl.Name,
		OfficeID: uuid.New(),
		Office:   "acme",
		Status:   status,
		Title:    "Quarterly review",
		Attachment: domain.Attachment{
			"Name": {Value: "key-1", Type: domain.AttachmentString},
		},
		Timestamp: f.now,
	}
	f.activities.byID[act.ID] = act
	f.activities.assignees[act.ID] = []domain.Assignee{
		{ActivityID: act.ID, PhoneNumber: editorPhone, CanEdit: canEdit},
	}
	f.profiles.mirrors[mirrorKey{editorPhone, act.ID}] = domain.ProfileActivity{
		PhoneNumber: editorPhone,
		ActivityID:  act.ID,
		CanEdit:     canEdit,
		Timestamp:   f.now,
	}
	f.templates.getByNameFn = func(_ context.Context, _ string) (*domain.Template, error) {
		return tmpl, nil
	}
	return act
}

func validStatusInput(activityID uuid.UUID, status domain.ActivityStatus) ChangeStatusInput {
	return ChangeStatusInput{
		ActivityID:          activityID,
		Status:              status,
		Location:            domain.Geopoint{Unknown: true},
		UserDeviceTimestamp: 1767225600000,
	}
}

func TestChangeStatus_HappyPath(t *testing.T) {
	f := newFixture()
	act := seedActivity(f, planTemplate(), domain.StatusPending, creatorPhone, true)

	got, err := f.svc.ChangeStatus(authedCtx(creatorPhone), validStatusInput(act.ID, domain.StatusConfirmed))
	if err != nil {
		t.Fatalf("ChangeStatus: unexpected error: %v", err)
	}
	if got.Status != domain.StatusConfirmed {
		t.Errorf("status: got %s", got.Status)
	}

	if len(f.addendums.created) != 1 {
		t.Fatalf("expected 1 addendum, got %d", len(f.addendums.created))
	}
	add := f.addendums.created[0]
	if add.Action != domain.ActionChangeStatus {
		t.Errorf("action: got %s", add.Action)
	}
	if add.Status == nil || *add.Status != domain.StatusConfirmed {
		t.Errorf("addendum status payload: got %v", add.Status)
	}

	// Mirror timestamp advanced so the change lands in the next sync.
	mirror := f.profiles.mirrors[mirrorKey{creatorPhone, act.ID}]
	if !mirror.Timestamp.Equal(f.now) {
		t.Errorf("mirror not touched: %v", mirror.Timestamp)
	}
}

func TestChangeStatus_SameStatusIsConflict(t *testing.T) {
	f := newFixture()
	act := seedActivity(f, planTemplate(), domain.StatusConfirmed, creatorPhone, true)

	_, err := f.svc.ChangeStatus(authedCtx(creatorPhone), validStatusInput(act.ID, domain.StatusConfirmed))
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if len(f.addendums.created) != 0 {
		t.Error("no addendum may be written on a rejected transition")
	}
}

func TestChangeStatus_IllegalStatus(t *testing.T) {
	f := newFixture()
	tmpl := planTemplate()
	tmpl.Statuses = []domain.ActivityStatus{domain.StatusPending, domain.StatusCancelled}
	act := seedActivity(f, tmpl, domain.StatusPending, creatorPhone, true)

	_, err := f.svc.ChangeStatus(authedCtx(creatorPhone), validStatusInput(act.ID, domain.StatusConfirmed))
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestChangeStatus_RequiresCanEdit(t *testing.T) {
	f := newFixture()
	act := seedActivity(f, planTemplate(), domain.StatusPending, creatorPhone, false)

	_, err := f.svc.ChangeStatus(authedCtx(creatorPhone), validStatusInput(act.ID, domain.StatusConfirmed))
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	// A non-assignee is equally forbidden.
	_, err = f.svc.ChangeStatus(authedCtx(otherPhone), validStatusInput(act.ID, domain.StatusConfirmed))
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-assignee, got %v", err)
	}
}

func TestChangeStatus_EmployeeCancellationRemovesRosterEntry(t *testing.T) {
	f := newFixture()
	tmpl := &domain.Template{
		Name:           domain.TemplateEmployee,
		DefaultTitle:   "Employee",
		StatusOnCreate: domain.StatusConfirmed,
		Statuses:       []domain.ActivityStatus{domain.StatusConfirmed, domain.StatusCancelled},
		CanEditRule:    domain.CanEditEmployee,
		AttachmentShape: map[string]domain.AttachmentType{
			"Employee Contact": domain.AttachmentPhoneNumber,
		},
		EntityKeyField: "Employee Contact",
	}
	act := seedActivity(f, tmpl, domain.StatusConfirmed, creatorPhone, true)
	act.Attachment = domain.Attachment{
		"Employee Contact": {Value: otherPhone, Type: domain.AttachmentPhoneNumber},
	}

	var deletedKeys []string
	f.offices.deleteEntityFn = func(_ context.Context, _ uuid.UUID, template, key string) error {
		if template != domain.TemplateEmployee {
			t.Errorf("deleted wrong template entity: %s", template)
		}
		deletedKeys = append(deletedKeys, key)
		return nil
	}

	_, err := f.svc.ChangeStatus(authedCtx(creatorPhone), validStatusInput(act.ID, domain.StatusCancelled))
	if err != nil {
		t.Fatalf("ChangeStatus: unexpected error: %v", err)
	}

	if len(deletedKeys) != 1 || deletedKeys[0] != otherPhone {
		t.Fatalf("expected roster entry %s removed, got %v", otherPhone, deletedKeys)
	}
}

func TestChangeStatus_UncancelDuplicateGuard(t *testing.T) {
	f := newFixture()
	tmpl := planTemplate()
	tmpl.EntityKeyField = "Name"
	act := seedActivity(f, tmpl, domain.StatusCancelled, creatorPhone, true)

	f.offices.countLiveEntitiesFn = func(_ context.Context, _ uuid.UUID, _, key string) (int, error) {
		if key == "key-1" {
			return 1, nil
		}
		return 0, nil
	}

	_, err := f.svc.ChangeStatus(authedCtx(creatorPhone), validStatusInput(act.ID, domain.StatusConfirmed))
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict from duplicate guard, got %v", err)
	}
}
