// Package validate holds the field predicates shared by the mutation
// inputs. All functions are pure; callers turn failures into field-level
// validation errors naming the offending field.
package validate

import (
	"regexp"
	"strings"
	"time"

	"github.com/officetrack/backend/internal/domain"
)

// E.164: plus sign, leading digit 1-9, then 4 to 13 further digits.
var phoneNumberRe = regexp.MustCompile(`^\+[1-9]\d{4,13}$`)

// IsNonEmptyString reports whether s contains anything besides whitespace.
func IsNonEmptyString(s string) bool {
	return strings.TrimSpace(s) != ""
}

// IsValidDate reports whether ms is a usable unix-millisecond timestamp.
func IsValidDate(ms int64) bool {
	return ms > 0
}

// IsValidPhoneNumber reports whether s is an E.164 phone number.
func IsValidPhoneNumber(s string) bool {
	return phoneNumberRe.MatchString(s)
}

// IsValidGeopoint reports whether g carries in-range coordinates or the
// explicit unknown-location form.
func IsValidGeopoint(g domain.Geopoint) bool {
	return g.InRange()
}

// Schedule checks one schedule entry: non-empty name, both times set,
// and end not before start. Returns the first offending field.
func Schedule(s domain.Schedule) *domain.FieldError {
	if !IsNonEmptyString(s.Name) {
		return &domain.FieldError{Field: "schedule.name", Message: "required"}
	}
	if s.StartTime.IsZero() {
		return &domain.FieldError{Field: "schedule.startTime", Message: "invalid date"}
	}
	if s.EndTime.IsZero() {
		return &domain.FieldError{Field: "schedule.endTime", Message: "invalid date"}
	}
	if s.EndTime.Before(s.StartTime) {
		return &domain.FieldError{Field: "schedule.endTime", Message: "must not precede startTime"}
	}
	return nil
}

// Venue checks one venue entry: descriptor, address and location strings
// plus a valid geopoint. Returns the first offending field.
func Venue(v domain.Venue) *domain.FieldError {
	if !IsNonEmptyString(v.VenueDescriptor) {
		return &domain.FieldError{Field: "venue.venueDescriptor", Message: "required"}
	}
	if !IsNonEmptyString(v.Address) {
		return &domain.FieldError{Field: "venue.address", Message: "required"}
	}
	if !IsNonEmptyString(v.Location) {
		return &domain.FieldError{Field: "venue.location", Message: "required"}
	}
	if !IsValidGeopoint(v.Geopoint) {
		return &domain.FieldError{Field: "venue.geopoint", Message: "coordinates out of range"}
	}
	return nil
}

// MillisToTime converts a unix-millisecond timestamp to UTC time.
func MillisToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
