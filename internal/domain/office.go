package domain

import (
	"time"

	"github.com/google/uuid"
)

// Office is a tenant boundary. Most activities belong to exactly one
// office; the personal/plan pairing is the exception.
type Office struct {
	ID   uuid.UUID
	Name string
	// Attachment holds the office's own denormalized fields, written when
	// a company-template activity is created or updated.
	Attachment Attachment
	// ActivityID references the activity that created the office document.
	ActivityID *uuid.UUID
	Timestamp  time.Time
}

// OfficeEntity is a denormalized per-office document an activity
// represents (an employee record, a company branch). Keyed by a stable
// attachment field so re-running the same logical update is idempotent.
type OfficeEntity struct {
	// ID is the document id activity roots reference through DocRef. The
	// business key below, not the id, decides idempotence.
	ID         uuid.UUID
	OfficeID   uuid.UUID
	Template   string
	Key        string
	Attachment Attachment
	Schedule   []Schedule
	Venue      []Venue
	ActivityID uuid.UUID
	Status     ActivityStatus
	Timestamp  time.Time
}
