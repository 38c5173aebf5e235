package domain

import "github.com/google/uuid"

// Profile maps a phone number to its authenticated identity. UID is nil
// for numbers introduced through assignment before the person signed up;
// the fan-out skips those until a uid appears.
type Profile struct {
	PhoneNumber string
	UID         *uuid.UUID
	DisplayName *string
}
