package fanout

import (
	"testing"

	"github.com/google/uuid"

	"github.com/officetrack/backend/internal/domain"
)

func strPtr(s string) *string { return &s }

func statusPtr(s domain.ActivityStatus) *domain.ActivityStatus { return &s }

func TestRenderComment_Create_Article(t *testing.T) {
	a := &domain.Addendum{
		ID:       uuid.New(),
		User:     "+15550001111",
		Action:   domain.ActionCreate,
		Template: "employee",
	}

	if got := RenderComment(a, false); got != "+15550001111 created an employee." {
		t.Errorf("unexpected rendering: %q", got)
	}

	a.Template = "plan"
	if got := RenderComment(a, true); got != "You created a plan." {
		t.Errorf("unexpected rendering: %q", got)
	}
}

func TestRenderComment_ChangeStatus(t *testing.T) {
	a := &domain.Addendum{
		User:         "Asha",
		Action:       domain.ActionChangeStatus,
		ActivityName: "Quarterly review",
		Status:       statusPtr(domain.StatusConfirmed),
	}

	if got := RenderComment(a, false); got != "Asha confirmed Quarterly review." {
		t.Errorf("unexpected rendering: %q", got)
	}

	// Back to PENDING reads as a reversal.
	a.Status = statusPtr(domain.StatusPending)
	if got := RenderComment(a, false); got != "Asha reversed Quarterly review." {
		t.Errorf("unexpected rendering: %q", got)
	}

	a.Status = statusPtr(domain.StatusCancelled)
	if got := RenderComment(a, true); got != "You cancelled Quarterly review." {
		t.Errorf("unexpected rendering: %q", got)
	}
}

func TestRenderComment_PerViewer(t *testing.T) {
	a := &domain.Addendum{
		User:         "+15550001111",
		Action:       domain.ActionChangeStatus,
		ActivityName: "Standup",
		Status:       statusPtr(domain.StatusCancelled),
	}

	asActor := RenderComment(a, true)
	asOther := RenderComment(a, false)

	if asActor == asOther {
		t.Error("expected viewer-dependent rendering to differ")
	}
	if asActor != "You cancelled Standup." {
		t.Errorf("actor view: %q", asActor)
	}
	if asOther != "+15550001111 cancelled Standup." {
		t.Errorf("other view: %q", asOther)
	}
}

func TestRenderComment_Share(t *testing.T) {
	a := &domain.Addendum{User: "Asha", Action: domain.ActionShare}

	a.Share = []string{"Ravi"}
	if got := RenderComment(a, false); got != "Asha added Ravi." {
		t.Errorf("one name: %q", got)
	}

	a.Share = []string{"Ravi", "Meena"}
	if got := RenderComment(a, false); got != "Asha added Ravi & Meena." {
		t.Errorf("two names: %q", got)
	}

	a.Share = []string{"Ravi", "Meena", "Karan"}
	if got := RenderComment(a, false); got != "Asha added Ravi, Meena & Karan." {
		t.Errorf("three names: %q", got)
	}
}

func TestRenderComment_CommentPassthrough(t *testing.T) {
	a := &domain.Addendum{
		User:    "Asha",
		Action:  domain.ActionComment,
		Comment: strPtr("running 10 minutes late"),
	}

	// Raw text, no actor prefix, even in the actor's own feed.
	if got := RenderComment(a, true); got != "running 10 minutes late" {
		t.Errorf("unexpected rendering: %q", got)
	}
}

func TestRenderComment_Update(t *testing.T) {
	a := &domain.Addendum{
		User:          "Asha",
		Action:        domain.ActionUpdate,
		UpdatedFields: []string{"title", "schedule"},
	}

	if got := RenderComment(a, false); got != "Asha updated title & schedule." {
		t.Errorf("unexpected rendering: %q", got)
	}
}

func TestRenderComment_PhoneNumberUpdate(t *testing.T) {
	a := &domain.Addendum{
		User:               "+15550001111",
		Action:             domain.ActionPhoneNumberUpdate,
		UpdatedPhoneNumber: strPtr("+15550009999"),
	}

	want := "You changed your phone number from +15550001111 to +15550009999."
	if got := RenderComment(a, true); got != want {
		t.Errorf("unexpected rendering: %q", got)
	}
}
