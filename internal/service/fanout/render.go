package fanout

import (
	"fmt"
	"strings"

	"github.com/officetrack/backend/internal/domain"
)

// RenderComment produces the human-readable feed text for one addendum as
// seen by one viewer. Pure: same addendum and viewer flag, same string.
// The actor reads as "You" in their own feed and as the acting user's
// identifier in everyone else's.
func RenderComment(a *domain.Addendum, viewerIsActor bool) string {
	actor := a.User
	if viewerIsActor {
		actor = "You"
	}

	switch a.Action {
	case domain.ActionCreate:
		return fmt.Sprintf("%s created %s %s.", actor, article(a.Template), a.Template)

	case domain.ActionChangeStatus:
		return fmt.Sprintf("%s %s %s.", actor, statusVerb(a.Status), a.ActivityName)

	case domain.ActionRemove:
		subject := ""
		if a.Remove != nil {
			subject = *a.Remove
		}
		return fmt.Sprintf("%s removed %s.", actor, subject)

	case domain.ActionPhoneNumberUpdate:
		possessive := "their"
		if viewerIsActor {
			possessive = "your"
		}
		updated := ""
		if a.UpdatedPhoneNumber != nil {
			updated = *a.UpdatedPhoneNumber
		}
		return fmt.Sprintf("%s changed %s phone number from %s to %s.",
			actor, possessive, a.User, updated)

	case domain.ActionShare:
		return fmt.Sprintf("%s added %s.", actor, joinList(a.Share))

	case domain.ActionUpdate:
		return fmt.Sprintf("%s updated %s.", actor, joinList(a.UpdatedFields))

	case domain.ActionComment:
		if a.Comment != nil {
			return *a.Comment
		}
		return ""

	default:
		return fmt.Sprintf("%s updated %s.", actor, a.ActivityName)
	}
}

// statusVerb turns a status change into a past-tense verb. Moving back to
// PENDING reads as a reversal rather than "pendinged".
func statusVerb(s *domain.ActivityStatus) string {
	if s == nil {
		return "updated"
	}
	if *s == domain.StatusPending {
		return "reversed"
	}
	return strings.ToLower(s.String())
}

// article picks "a" or "an" by the first letter of the word.
func article(word string) string {
	if word == "" {
		return "a"
	}
	switch word[0] {
	case 'a', 'e', 'i', 'o', 'u', 'A', 'E', 'I', 'O', 'U':
		return "an"
	}
	return "a"
}

// joinList renders names as "X", "X & Y" or "X, Y & Z".
func joinList(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	default:
		return strings.Join(items[:len(items)-1], ", ") + " & " + items[len(items)-1]
	}
}
