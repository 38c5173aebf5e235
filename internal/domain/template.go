package domain

import "slices"

// AttachmentType is the declared type of a template attachment field.
type AttachmentType string

const (
	AttachmentString      AttachmentType = "string"
	AttachmentNumber      AttachmentType = "number"
	AttachmentPhoneNumber AttachmentType = "phoneNumber"
	AttachmentEmail       AttachmentType = "email"
	AttachmentWeekday     AttachmentType = "weekday"
)

// AttachmentValue is one attachment field on an activity: the supplied
// value together with the type the template declared for it.
type AttachmentValue struct {
	Value string         `json:"value"`
	Type  AttachmentType `json:"type"`
}

// Attachment maps field names to their values. Field names come from the
// template's attachment shape; anything outside the shape is dropped
// during merging.
type Attachment map[string]AttachmentValue

// Template is a named schema plus policy definition governing what fields
// an activity of its type may have and who may edit it. Templates are
// immutable per version and referenced by name from activities.
type Template struct {
	Name           string
	DefaultTitle   string
	StatusOnCreate ActivityStatus
	// Statuses is the closed enumeration of states activities of this
	// template may be moved to.
	Statuses    []ActivityStatus
	CanEditRule CanEditRule
	// ScheduleShape and VenueShape carry both the permitted entry names
	// and the template-provided defaults; request values are merged
	// against them field by field.
	ScheduleShape []Schedule
	VenueShape    []Venue
	// AttachmentShape declares the attachment fields and their types.
	AttachmentShape map[string]AttachmentType
	// Include lists phone numbers auto-assigned to every activity of this
	// template (office admins, typically).
	Include []string
	// EntityKeyField names the attachment field that keys denormalized
	// entity documents for this template ("" when the template does not
	// denormalize).
	EntityKeyField string
}

// AllowsStatus reports whether the given status is a member of the
// template's declared enumeration.
func (t *Template) AllowsStatus(s ActivityStatus) bool {
	return slices.Contains(t.Statuses, s)
}

// Reserved template names with dedicated creation behavior.
const (
	TemplatePlan         = "plan"
	TemplateSubscription = "subscription"
	TemplateCompany      = "company"
	TemplateEmployee     = "employee"
)

// OfficePersonal is the pseudo-office for personal activities. Only the
// plan template may be used with it.
const OfficePersonal = "personal"
