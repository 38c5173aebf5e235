package rest

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/officetrack/backend/internal/domain"
	syncsvc "github.com/officetrack/backend/internal/service/sync"
	"github.com/officetrack/backend/internal/service/validate"
)

// syncService defines the minimal interface needed by SyncHandler.
type syncService interface {
	ReadChanges(ctx context.Context, from time.Time) (*syncsvc.Changes, error)
}

// SyncHandler serves the incremental read endpoint.
type SyncHandler struct {
	svc syncService
	log *slog.Logger
}

// NewSyncHandler creates a SyncHandler.
func NewSyncHandler(svc syncService, logger *slog.Logger) *SyncHandler {
	return &SyncHandler{svc: svc, log: logger.With("handler", "sync")}
}

type feedEntryJSON struct {
	ID         string          `json:"id"`
	ActivityID string          `json:"activityId"`
	Comment    string          `json:"comment"`
	User       string          `json:"user"`
	Geopoint   domain.Geopoint `json:"geopoint"`
	Timestamp  int64           `json:"timestamp"`
}

type assigneeJSON struct {
	PhoneNumber string `json:"phoneNumber"`
	CanEdit     bool   `json:"canEdit"`
}

type entityJSON struct {
	ID         string            `json:"id"`
	Template   string            `json:"template"`
	Key        string            `json:"key"`
	Status     string            `json:"status"`
	Attachment domain.Attachment `json:"attachment,omitempty"`
	Schedule   []scheduleJSON    `json:"schedule,omitempty"`
	Venue      []domain.Venue    `json:"venue,omitempty"`
	ActivityID string            `json:"activityId"`
	Timestamp  int64             `json:"timestamp"`
}

type activityChangeJSON struct {
	Activity  activityJSON   `json:"activity"`
	Assignees []assigneeJSON `json:"assignees"`
	CanEdit   bool           `json:"canEdit"`
	Entity    *entityJSON    `json:"entity,omitempty"`
}

type templateJSON struct {
	Name            string                           `json:"name"`
	DefaultTitle    string                           `json:"defaultTitle"`
	StatusOnCreate  string                           `json:"statusOnCreate"`
	Statuses        []string                         `json:"statuses"`
	CanEditRule     string                           `json:"canEditRule"`
	ScheduleShape   []scheduleJSON                   `json:"scheduleShape,omitempty"`
	VenueShape      []domain.Venue                   `json:"venueShape,omitempty"`
	AttachmentShape map[string]domain.AttachmentType `json:"attachmentShape,omitempty"`
	EntityKeyField  string                           `json:"entityKeyField,omitempty"`
}

type templateChangeJSON struct {
	Template templateJSON `json:"template"`
	Office   string       `json:"office"`
}

type readChangesResponse struct {
	envelope
	From       int64                `json:"from"`
	Upto       int64                `json:"upto"`
	Addendum   []feedEntryJSON      `json:"addendum"`
	Activities []activityChangeJSON `json:"activities"`
	Templates  []templateChangeJSON `json:"templates"`
}

// Read handles GET /activities/read. The from query parameter is the
// cursor returned by the previous call, in unix milliseconds; 0 or absent
// means a full resync.
func (h *SyncHandler) Read(w http.ResponseWriter, r *http.Request) {
	var from time.Time
	if raw := r.URL.Query().Get("from"); raw != "" {
		ms, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || ms < 0 {
			writeError(w, http.StatusBadRequest, "invalid from cursor")
			return
		}
		if ms > 0 {
			from = validate.MillisToTime(ms)
		}
	}

	changes, err := h.svc.ReadChanges(r.Context(), from)
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}

	resp := readChangesResponse{
		envelope:   ok(http.StatusOK, "changes read"),
		From:       changes.From.UnixMilli(),
		Upto:       changes.Upto.UnixMilli(),
		Addendum:   make([]feedEntryJSON, 0, len(changes.Addendums)),
		Activities: make([]activityChangeJSON, 0, len(changes.Activities)),
		Templates:  make([]templateChangeJSON, 0, len(changes.Templates)),
	}
	if changes.From.IsZero() {
		resp.From = 0
	}
	if changes.Upto.IsZero() {
		resp.Upto = 0
	}

	for _, e := range changes.Addendums {
		resp.Addendum = append(resp.Addendum, feedEntryJSON{
			ID:         e.ID.String(),
			ActivityID: e.ActivityID.String(),
			Comment:    e.Comment,
			User:       e.User,
			Geopoint:   e.Location,
			Timestamp:  e.Timestamp.UnixMilli(),
		})
	}
	for _, c := range changes.Activities {
		resp.Activities = append(resp.Activities, toActivityChangeJSON(c))
	}
	for _, t := range changes.Templates {
		resp.Templates = append(resp.Templates, templateChangeJSON{
			Template: toTemplateJSON(t.Template),
			Office:   t.Office,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

func toActivityChangeJSON(c syncsvc.ActivityChange) activityChangeJSON {
	out := activityChangeJSON{
		Activity:  toActivityJSON(c.Activity),
		Assignees: make([]assigneeJSON, 0, len(c.Assignees)),
		CanEdit:   c.CanEdit,
	}
	for _, a := range c.Assignees {
		out.Assignees = append(out.Assignees, assigneeJSON{
			PhoneNumber: a.PhoneNumber,
			CanEdit:     a.CanEdit,
		})
	}
	if c.Entity != nil {
		out.Entity = &entityJSON{
			ID:         c.Entity.ID.String(),
			Template:   c.Entity.Template,
			Key:        c.Entity.Key,
			Status:     c.Entity.Status.String(),
			Attachment: c.Entity.Attachment,
			Schedule:   toScheduleJSON(c.Entity.Schedule),
			Venue:      c.Entity.Venue,
			ActivityID: c.Entity.ActivityID.String(),
			Timestamp:  c.Entity.Timestamp.UnixMilli(),
		}
	}
	return out
}

func toTemplateJSON(t *domain.Template) templateJSON {
	statuses := make([]string, len(t.Statuses))
	for i, s := range t.Statuses {
		statuses[i] = s.String()
	}
	return templateJSON{
		Name:            t.Name,
		DefaultTitle:    t.DefaultTitle,
		StatusOnCreate:  t.StatusOnCreate.String(),
		Statuses:        statuses,
		CanEditRule:     t.CanEditRule.String(),
		ScheduleShape:   toScheduleJSON(t.ScheduleShape),
		VenueShape:      t.VenueShape,
		AttachmentShape: t.AttachmentShape,
		EntityKeyField:  t.EntityKeyField,
	}
}
