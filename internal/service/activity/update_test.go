package activity

import (
	"errors"
	"testing"

	"github.com/officetrack/backend/internal/domain"
)

func TestUpdateActivity_PartialMerge(t *testing.T) {
	f := newFixture()
	act := seedActivity(f, planTemplate(), domain.StatusPending, creatorPhone, true)

	title := "Renamed review"
	_, err := f.svc.UpdateActivity(authedCtx(creatorPhone), UpdateActivityInput{
		ActivityID:          act.ID,
		Title:               &title,
		Location:            domain.Geopoint{Unknown: true},
		UserDeviceTimestamp: 1767225600000,
	})
	if err != nil {
		t.Fatalf("UpdateActivity: unexpected error: %v", err)
	}

	stored := f.activities.byID[act.ID]
	if stored.Title != "Renamed review" {
		t.Errorf("title: got %q", stored.Title)
	}
	// Untouched fields survive.
	if stored.Status != domain.StatusPending {
		t.Errorf("status must be untouched: got %s", stored.Status)
	}

	if len(f.addendums.created) != 1 {
		t.Fatalf("expected 1 addendum, got %d", len(f.addendums.created))
	}
	add := f.addendums.created[0]
	if add.Action != domain.ActionUpdate {
		t.Errorf("action: got %s", add.Action)
	}
	if len(add.UpdatedFields) != 1 || add.UpdatedFields[0] != "title" {
		t.Errorf("updated fields: got %v", add.UpdatedFields)
	}
}

func TestUpdateActivity_AssignUnassignDiff(t *testing.T) {
	f := newFixture()
	act := seedActivity(f, planTemplate(), domain.StatusPending, creatorPhone, true)

	// Assign a second phone number.
	_, err := f.svc.UpdateActivity(authedCtx(creatorPhone), UpdateActivityInput{
		ActivityID:          act.ID,
		Assign:              []string{otherPhone},
		Location:            domain.Geopoint{Unknown: true},
		UserDeviceTimestamp: 1767225600000,
	})
	if err != nil {
		t.Fatalf("UpdateActivity (assign): unexpected error: %v", err)
	}

	if len(f.activities.assignees[act.ID]) != 2 {
		t.Fatalf("expected 2 assignees, got %d", len(f.activities.assignees[act.ID]))
	}
	if _, ok := f.profiles.mirrors[mirrorKey{otherPhone, act.ID}]; !ok {
		t.Error("new assignee missing mirror")
	}
	// CREATOR rule, requester is not the new assignee: no edit rights.
	for _, a := range f.activities.assignees[act.ID] {
		if a.PhoneNumber == otherPhone && a.CanEdit {
			t.Error("assigned user should not get edit rights under CREATOR rule")
		}
	}

	// A pure assignment reads as a share addendum.
	add := f.addendums.created[len(f.addendums.created)-1]
	if add.Action != domain.ActionShare {
		t.Errorf("action: got %s, want share", add.Action)
	}
	if len(add.Share) != 1 || add.Share[0] != otherPhone {
		t.Errorf("share payload: got %v", add.Share)
	}

	// Unassign removes both the assignee row and the mirror.
	_, err = f.svc.UpdateActivity(authedCtx(creatorPhone), UpdateActivityInput{
		ActivityID:          act.ID,
		Unassign:            []string{otherPhone},
		Location:            domain.Geopoint{Unknown: true},
		UserDeviceTimestamp: 1767225600000,
	})
	if err != nil {
		t.Fatalf("UpdateActivity (unassign): unexpected error: %v", err)
	}
	if len(f.activities.assignees[act.ID]) != 1 {
		t.Fatalf("expected 1 assignee after unassign, got %d", len(f.activities.assignees[act.ID]))
	}
	if _, ok := f.profiles.mirrors[mirrorKey{otherPhone, act.ID}]; ok {
		t.Error("unassigned user's mirror must be removed")
	}
}

func TestUpdateActivity_AttachmentOutsideShapeDropped(t *testing.T) {
	f := newFixture()
	tmpl := planTemplate()
	tmpl.AttachmentShape = map[string]domain.AttachmentType{
		"priority": domain.AttachmentString,
	}
	act := seedActivity(f, tmpl, domain.StatusPending, creatorPhone, true)

	_, err := f.svc.UpdateActivity(authedCtx(creatorPhone), UpdateActivityInput{
		ActivityID: act.ID,
		Attachment: domain.Attachment{
			"priority": {Value: "high", Type: domain.AttachmentString},
			"rogue":    {Value: "dropped", Type: domain.AttachmentString},
		},
		Location:            domain.Geopoint{Unknown: true},
		UserDeviceTimestamp: 1767225600000,
	})
	if err != nil {
		t.Fatalf("UpdateActivity: unexpected error: %v", err)
	}

	stored := f.activities.byID[act.ID]
	if stored.Attachment["priority"].Value != "high" {
		t.Errorf("priority: got %+v", stored.Attachment["priority"])
	}
	if _, ok := stored.Attachment["rogue"]; ok {
		t.Error("field outside the template shape must be dropped")
	}
}

func TestUpdateActivity_RequiresCanEdit(t *testing.T) {
	f := newFixture()
	act := seedActivity(f, planTemplate(), domain.StatusPending, creatorPhone, false)

	title := "nope"
	_, err := f.svc.UpdateActivity(authedCtx(creatorPhone), UpdateActivityInput{
		ActivityID:          act.ID,
		Title:               &title,
		Location:            domain.Geopoint{Unknown: true},
		UserDeviceTimestamp: 1767225600000,
	})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestUpdateActivity_EmptyInputRejected(t *testing.T) {
	f := newFixture()
	act := seedActivity(f, planTemplate(), domain.StatusPending, creatorPhone, true)

	_, err := f.svc.UpdateActivity(authedCtx(creatorPhone), UpdateActivityInput{
		ActivityID:          act.ID,
		Location:            domain.Geopoint{Unknown: true},
		UserDeviceTimestamp: 1767225600000,
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
