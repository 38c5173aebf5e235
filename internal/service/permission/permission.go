// Package permission resolves edit rights from a template rule and the
// identities involved.
package permission

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/officetrack/backend/internal/domain"
)

// RosterLookup answers whether a phone number is on an office's employee
// roster. The EMPLOYEE rule is the only rule needing external state.
type RosterLookup interface {
	IsEmployee(ctx context.Context, officeID uuid.UUID, phoneNumber string) (bool, error)
}

// ComputeCanEdit derives the edit flag for one assignee. Pure apart from
// the roster lookup, which only the EMPLOYEE rule consults.
func ComputeCanEdit(
	ctx context.Context,
	roster RosterLookup,
	rule domain.CanEditRule,
	officeID uuid.UUID,
	targetPhoneNumber string,
	creatorPhoneNumber string,
) (bool, error) {
	switch rule {
	case domain.CanEditAll:
		return true, nil
	case domain.CanEditNone:
		return false, nil
	case domain.CanEditCreator:
		return targetPhoneNumber == creatorPhoneNumber, nil
	case domain.CanEditEmployee:
		ok, err := roster.IsEmployee(ctx, officeID, targetPhoneNumber)
		if err != nil {
			return false, fmt.Errorf("roster lookup for %s: %w", targetPhoneNumber, err)
		}
		return ok, nil
	default:
		return false, fmt.Errorf("can-edit rule %q: %w", rule, domain.ErrValidation)
	}
}
