package activity

import (
	"strings"

	"github.com/google/uuid"

	"github.com/officetrack/backend/internal/domain"
	"github.com/officetrack/backend/internal/service/validate"
)

// CreateActivityInput holds the parameters for creating an activity.
type CreateActivityInput struct {
	Template    string
	Office      string
	Title       string
	Description string
	Schedule    []domain.Schedule
	Venue       []domain.Venue
	Attachment  domain.Attachment
	// Share lists extra phone numbers to assign besides the creator and
	// the template's include list.
	Share []string

	Location            domain.Geopoint
	UserDeviceTimestamp int64 // unix milliseconds
}

// Validate checks all fields and collects all errors.
func (i CreateActivityInput) Validate() error {
	var errs []domain.FieldError

	if !validate.IsNonEmptyString(i.Template) {
		errs = append(errs, domain.FieldError{Field: "template", Message: "required"})
	}
	if !validate.IsNonEmptyString(i.Office) {
		errs = append(errs, domain.FieldError{Field: "office", Message: "required"})
	}
	for _, s := range i.Schedule {
		if fe := validate.Schedule(s); fe != nil {
			errs = append(errs, *fe)
		}
	}
	for _, v := range i.Venue {
		if fe := validate.Venue(v); fe != nil {
			errs = append(errs, *fe)
		}
	}
	for _, phone := range i.Share {
		if !validate.IsValidPhoneNumber(phone) {
			errs = append(errs, domain.FieldError{Field: "share", Message: "invalid phone number: " + phone})
		}
	}
	if !validate.IsValidGeopoint(i.Location) {
		errs = append(errs, domain.FieldError{Field: "geopoint", Message: "coordinates out of range"})
	}
	if !validate.IsValidDate(i.UserDeviceTimestamp) {
		errs = append(errs, domain.FieldError{Field: "timestamp", Message: "invalid date"})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// ChangeStatusInput holds the parameters for a status transition.
type ChangeStatusInput struct {
	ActivityID uuid.UUID
	Status     domain.ActivityStatus

	Location            domain.Geopoint
	UserDeviceTimestamp int64
}

// Validate checks all fields and collects all errors.
func (i ChangeStatusInput) Validate() error {
	var errs []domain.FieldError

	if i.ActivityID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "activityId", Message: "required"})
	}
	if !i.Status.IsValid() {
		errs = append(errs, domain.FieldError{Field: "status", Message: "unknown status"})
	}
	if !validate.IsValidGeopoint(i.Location) {
		errs = append(errs, domain.FieldError{Field: "geopoint", Message: "coordinates out of range"})
	}
	if !validate.IsValidDate(i.UserDeviceTimestamp) {
		errs = append(errs, domain.FieldError{Field: "timestamp", Message: "invalid date"})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// UpdateActivityInput holds the parameters for a partial update. Nil
// pointer and empty slice fields are left untouched; assign/unassign are
// processed as a diff against the current assignee set.
type UpdateActivityInput struct {
	ActivityID  uuid.UUID
	Title       *string
	Description *string
	Schedule    []domain.Schedule
	Venue       []domain.Venue
	Attachment  domain.Attachment
	Assign      []string
	Unassign    []string

	Location            domain.Geopoint
	UserDeviceTimestamp int64
}

// Validate checks all fields and collects all errors.
func (i UpdateActivityInput) Validate() error {
	var errs []domain.FieldError

	if i.ActivityID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "activityId", Message: "required"})
	}
	if i.Title == nil && i.Description == nil &&
		len(i.Schedule) == 0 && len(i.Venue) == 0 && len(i.Attachment) == 0 &&
		len(i.Assign) == 0 && len(i.Unassign) == 0 {
		errs = append(errs, domain.FieldError{Field: "input", Message: "at least one field must be provided"})
	}
	if i.Title != nil && !validate.IsNonEmptyString(*i.Title) {
		errs = append(errs, domain.FieldError{Field: "title", Message: "must not be empty"})
	}
	for _, s := range i.Schedule {
		if fe := validate.Schedule(s); fe != nil {
			errs = append(errs, *fe)
		}
	}
	for _, v := range i.Venue {
		if fe := validate.Venue(v); fe != nil {
			errs = append(errs, *fe)
		}
	}
	for _, phone := range i.Assign {
		if !validate.IsValidPhoneNumber(phone) {
			errs = append(errs, domain.FieldError{Field: "assign", Message: "invalid phone number: " + phone})
		}
	}
	for _, phone := range i.Unassign {
		if !validate.IsValidPhoneNumber(phone) {
			errs = append(errs, domain.FieldError{Field: "unassign", Message: "invalid phone number: " + phone})
		}
	}
	if !validate.IsValidGeopoint(i.Location) {
		errs = append(errs, domain.FieldError{Field: "geopoint", Message: "coordinates out of range"})
	}
	if !validate.IsValidDate(i.UserDeviceTimestamp) {
		errs = append(errs, domain.FieldError{Field: "timestamp", Message: "invalid date"})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// CommentInput holds the parameters for commenting on an activity.
type CommentInput struct {
	ActivityID uuid.UUID
	Comment    string

	Location            domain.Geopoint
	UserDeviceTimestamp int64
}

// Validate checks all fields and collects all errors.
func (i CommentInput) Validate() error {
	var errs []domain.FieldError

	if i.ActivityID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "activityId", Message: "required"})
	}
	if strings.TrimSpace(i.Comment) == "" {
		errs = append(errs, domain.FieldError{Field: "comment", Message: "required"})
	}
	if !validate.IsValidGeopoint(i.Location) {
		errs = append(errs, domain.FieldError{Field: "geopoint", Message: "coordinates out of range"})
	}
	if !validate.IsValidDate(i.UserDeviceTimestamp) {
		errs = append(errs, domain.FieldError{Field: "timestamp", Message: "invalid date"})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}
