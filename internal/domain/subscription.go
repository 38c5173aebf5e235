package domain

import (
	"time"

	"github.com/google/uuid"
)

// Subscription is a user's standing permission to create activities of a
// given template in a given office. Created when a subscription-template
// activity is created.
type Subscription struct {
	ID          uuid.UUID
	PhoneNumber string
	Template    string
	Office      string
	ActivityID  uuid.UUID
	Include     []string
	Status      ActivityStatus
	Timestamp   time.Time
}
