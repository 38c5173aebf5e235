package domain

import (
	"time"

	"github.com/google/uuid"
)

// Schedule is one named time span on an activity.
type Schedule struct {
	Name      string    `json:"name"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
}

// Venue is one named place on an activity.
type Venue struct {
	VenueDescriptor string   `json:"venueDescriptor"`
	Address         string   `json:"address"`
	Location        string   `json:"location"`
	Geopoint        Geopoint `json:"geopoint"`
}

// Activity is a typed, template-governed record inside an office.
// Activities are never hard-deleted; lifecycle end is modeled by status
// transitions.
type Activity struct {
	ID          uuid.UUID
	Template    string
	OfficeID    uuid.UUID
	Office      string
	Status      ActivityStatus
	Title       string
	Description string
	Schedule    []Schedule
	Venue       []Venue
	Attachment  Attachment
	// DocRef points to the denormalized per-office entity document this
	// activity represents, when its template denormalizes one.
	DocRef *uuid.UUID
	// AddendumID references the latest addendum written for this activity.
	AddendumID *uuid.UUID
	Timestamp  time.Time
}

// Assignee is a phone-number identity with read (and maybe write) access
// to a specific activity. Every activity has at least one: its creator.
type Assignee struct {
	ActivityID  uuid.UUID
	PhoneNumber string
	CanEdit     bool
}

// ProfileActivity mirrors an Assignee into the assignee's own profile
// index for fast "my activities" queries. The mirror is an invariant:
// it is written and removed in the same transaction as the Assignee row.
type ProfileActivity struct {
	PhoneNumber string
	ActivityID  uuid.UUID
	CanEdit     bool
	Timestamp   time.Time
}
