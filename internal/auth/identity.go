package auth

import "github.com/google/uuid"

// CustomClaims is the capability set the authentication provider attaches
// to an identity. The core treats it as opaque apart from the recognized
// flags below.
type CustomClaims struct {
	Support         bool     `json:"support,omitempty"`
	Admin           []string `json:"admin,omitempty"` // office names
	ManageTemplates bool     `json:"manageTemplates,omitempty"`
	SuperUser       bool     `json:"superUser,omitempty"`
}

// IsAdminOf reports whether the claims grant admin rights over the named
// office.
func (c CustomClaims) IsAdminOf(office string) bool {
	for _, name := range c.Admin {
		if name == office {
			return true
		}
	}
	return false
}

// Identity is a verified requester as supplied by the phone
// authentication provider.
type Identity struct {
	UID         uuid.UUID
	PhoneNumber string
	DisplayName string
	Claims      CustomClaims
}

// Actor returns the identifier used in audit records: the display name
// when known, otherwise the phone number.
func (i Identity) Actor() string {
	if i.DisplayName != "" {
		return i.DisplayName
	}
	return i.PhoneNumber
}
