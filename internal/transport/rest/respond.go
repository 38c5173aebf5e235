package rest

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/officetrack/backend/internal/domain"
)

// envelope is the common response header every endpoint returns.
type envelope struct {
	Success bool   `json:"success"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func ok(code int, message string) envelope {
	return envelope{Success: true, Code: code, Message: message}
}

type errorResponse struct {
	envelope
	Errors []fieldErrorJSON `json:"errors,omitempty"`
}

type fieldErrorJSON struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{
		envelope: envelope{Success: false, Code: status, Message: message},
	})
}

// respondError maps domain sentinels to HTTP statuses. Validation errors
// carry their per-field breakdown; anything unmapped is logged and hidden
// behind a 500.
func respondError(log *slog.Logger, w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		resp := errorResponse{
			envelope: envelope{Success: false, Code: http.StatusBadRequest, Message: "validation failed"},
		}
		for _, fe := range verr.Errors {
			resp.Errors = append(resp.Errors, fieldErrorJSON{Field: fe.Field, Message: fe.Message})
		}
		writeJSON(w, http.StatusBadRequest, resp)
		return
	}

	switch {
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrAlreadyExists), errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, "conflict")
	default:
		log.ErrorContext(r.Context(), "internal error", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
