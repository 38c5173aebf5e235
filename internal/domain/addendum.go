package domain

import (
	"time"

	"github.com/google/uuid"
)

// Addendum is one immutable audit record describing one mutation to an
// activity, stored under the owning office. Append-only; the single
// source of audit truth.
type Addendum struct {
	ID           uuid.UUID
	OfficeID     uuid.UUID
	ActivityID   uuid.UUID
	ActivityName string
	Template     string
	// User is the acting identity: display name when the provider knows
	// one, otherwise the phone number.
	User   string
	Action AddendumAction
	// Action-specific payload; exactly the fields the action needs are set.
	Status             *ActivityStatus
	Comment            *string
	Share              []string
	Remove             *string
	UpdatedFields      []string
	UpdatedPhoneNumber *string

	Location            Geopoint
	Timestamp           time.Time
	UserDeviceTimestamp time.Time
}

// FeedEntry is a per-viewer, personalized copy of an addendum delivered
// to an assignee's private update stream. Generated by the fan-out, never
// mutated by users.
type FeedEntry struct {
	ID         uuid.UUID
	UserUID    uuid.UUID
	AddendumID uuid.UUID
	ActivityID uuid.UUID
	// Comment is rendered per viewer, so the same addendum yields a
	// different string per entry.
	Comment             string
	User                string
	Location            Geopoint
	Timestamp           time.Time
	UserDeviceTimestamp time.Time
}
