package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/officetrack/backend/internal/domain"
	"github.com/officetrack/backend/internal/service/activity"
	"github.com/officetrack/backend/internal/service/validate"
)

// activityService defines the minimal interface needed by ActivityHandler.
type activityService interface {
	CreateActivity(ctx context.Context, input activity.CreateActivityInput) (*domain.Activity, error)
	ChangeStatus(ctx context.Context, input activity.ChangeStatusInput) (*domain.Activity, error)
	UpdateActivity(ctx context.Context, input activity.UpdateActivityInput) (*domain.Activity, error)
	Comment(ctx context.Context, input activity.CommentInput) (*domain.Addendum, error)
}

// ActivityHandler serves the activity mutation endpoints.
type ActivityHandler struct {
	svc activityService
	log *slog.Logger
}

// NewActivityHandler creates an ActivityHandler.
func NewActivityHandler(svc activityService, logger *slog.Logger) *ActivityHandler {
	return &ActivityHandler{svc: svc, log: logger.With("handler", "activity")}
}

// scheduleJSON is the wire form of a schedule entry; times travel as unix
// milliseconds.
type scheduleJSON struct {
	Name      string `json:"name"`
	StartTime int64  `json:"startTime"`
	EndTime   int64  `json:"endTime"`
}

type createActivityRequest struct {
	Template    string            `json:"template"`
	Office      string            `json:"office"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Schedule    []scheduleJSON    `json:"schedule"`
	Venue       []domain.Venue    `json:"venue"`
	Attachment  domain.Attachment `json:"attachment"`
	Share       []string          `json:"share"`
	Geopoint    domain.Geopoint   `json:"geopoint"`
	Timestamp   int64             `json:"timestamp"`
}

type changeStatusRequest struct {
	ActivityID string          `json:"activityId"`
	Status     string          `json:"status"`
	Geopoint   domain.Geopoint `json:"geopoint"`
	Timestamp  int64           `json:"timestamp"`
}

type updateActivityRequest struct {
	ActivityID  string            `json:"activityId"`
	Title       *string           `json:"title"`
	Description *string           `json:"description"`
	Schedule    []scheduleJSON    `json:"schedule"`
	Venue       []domain.Venue    `json:"venue"`
	Attachment  domain.Attachment `json:"attachment"`
	Assign      []string          `json:"assign"`
	Unassign    []string          `json:"unassign"`
	Geopoint    domain.Geopoint   `json:"geopoint"`
	Timestamp   int64             `json:"timestamp"`
}

type commentRequest struct {
	ActivityID string          `json:"activityId"`
	Comment    string          `json:"comment"`
	Geopoint   domain.Geopoint `json:"geopoint"`
	Timestamp  int64           `json:"timestamp"`
}

type activityJSON struct {
	ID          string            `json:"id"`
	Template    string            `json:"template"`
	Office      string            `json:"office"`
	Status      string            `json:"status"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Schedule    []scheduleJSON    `json:"schedule,omitempty"`
	Venue       []domain.Venue    `json:"venue,omitempty"`
	Attachment  domain.Attachment `json:"attachment,omitempty"`
	DocRef      *string           `json:"docRef,omitempty"`
	Timestamp   int64             `json:"timestamp"`
}

type activityEnvelope struct {
	envelope
	Activity activityJSON `json:"activity"`
}

type commentEnvelope struct {
	envelope
	AddendumID string `json:"addendumId"`
	Timestamp  int64  `json:"timestamp"`
}

// Create handles POST /activities.
func (h *ActivityHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	act, err := h.svc.CreateActivity(r.Context(), activity.CreateActivityInput{
		Template:            req.Template,
		Office:              req.Office,
		Title:               req.Title,
		Description:         req.Description,
		Schedule:            schedulesFromWire(req.Schedule),
		Venue:               req.Venue,
		Attachment:          req.Attachment,
		Share:               req.Share,
		Location:            req.Geopoint,
		UserDeviceTimestamp: req.Timestamp,
	})
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, activityEnvelope{
		envelope: ok(http.StatusCreated, "activity created"),
		Activity: toActivityJSON(act),
	})
}

// ChangeStatus handles PATCH /activities/change-status.
func (h *ActivityHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	var req changeStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	activityID, err := uuid.Parse(req.ActivityID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid activity id")
		return
	}

	act, err := h.svc.ChangeStatus(r.Context(), activity.ChangeStatusInput{
		ActivityID:          activityID,
		Status:              domain.ActivityStatus(req.Status),
		Location:            req.Geopoint,
		UserDeviceTimestamp: req.Timestamp,
	})
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, activityEnvelope{
		envelope: ok(http.StatusOK, "status changed"),
		Activity: toActivityJSON(act),
	})
}

// Update handles PATCH /activities/update.
func (h *ActivityHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	activityID, err := uuid.Parse(req.ActivityID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid activity id")
		return
	}

	act, err := h.svc.UpdateActivity(r.Context(), activity.UpdateActivityInput{
		ActivityID:          activityID,
		Title:               req.Title,
		Description:         req.Description,
		Schedule:            schedulesFromWire(req.Schedule),
		Venue:               req.Venue,
		Attachment:          req.Attachment,
		Assign:              req.Assign,
		Unassign:            req.Unassign,
		Location:            req.Geopoint,
		UserDeviceTimestamp: req.Timestamp,
	})
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, activityEnvelope{
		envelope: ok(http.StatusOK, "activity updated"),
		Activity: toActivityJSON(act),
	})
}

// Comment handles POST /activities/comment.
func (h *ActivityHandler) Comment(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	activityID, err := uuid.Parse(req.ActivityID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid activity id")
		return
	}

	add, err := h.svc.Comment(r.Context(), activity.CommentInput{
		ActivityID:          activityID,
		Comment:             req.Comment,
		Location:            req.Geopoint,
		UserDeviceTimestamp: req.Timestamp,
	})
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, commentEnvelope{
		envelope:   ok(http.StatusCreated, "comment added"),
		AddendumID: add.ID.String(),
		Timestamp:  add.Timestamp.UnixMilli(),
	})
}

func schedulesFromWire(in []scheduleJSON) []domain.Schedule {
	if len(in) == 0 {
		return nil
	}
	out := make([]domain.Schedule, len(in))
	for i, s := range in {
		out[i] = domain.Schedule{
			Name:      s.Name,
			StartTime: validate.MillisToTime(s.StartTime),
			EndTime:   validate.MillisToTime(s.EndTime),
		}
	}
	return out
}

func toScheduleJSON(in []domain.Schedule) []scheduleJSON {
	if len(in) == 0 {
		return nil
	}
	out := make([]scheduleJSON, len(in))
	for i, s := range in {
		out[i] = scheduleJSON{
			Name:      s.Name,
			StartTime: s.StartTime.UnixMilli(),
			EndTime:   s.EndTime.UnixMilli(),
		}
	}
	return out
}

func toActivityJSON(act *domain.Activity) activityJSON {
	out := activityJSON{
		ID:          act.ID.String(),
		Template:    act.Template,
		Office:      act.Office,
		Status:      act.Status.String(),
		Title:       act.Title,
		Description: act.Description,
		Schedule:    toScheduleJSON(act.Schedule),
		Venue:       act.Venue,
		Attachment:  act.Attachment,
		Timestamp:   act.Timestamp.UnixMilli(),
	}
	if act.DocRef != nil {
		ref := act.DocRef.String()
		out.DocRef = &ref
	}
	return out
}
