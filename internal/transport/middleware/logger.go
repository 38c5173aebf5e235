package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/officetrack/backend/pkg/ctxutil"
)

// statusWriter captures the response status code for logging.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Logger logs each request with method, path, status, duration and the
// authenticated phone number when present.
func Logger(log *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(sw, r)

			attrs := []any{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", sw.status),
				slog.Duration("duration", time.Since(start)),
				slog.String("remote", r.RemoteAddr),
			}
			if id := ctxutil.RequestIDFromCtx(r.Context()); id != "" {
				attrs = append(attrs, slog.String("request_id", id))
			}
			if identity, ok := ctxutil.IdentityFromCtx(r.Context()); ok {
				attrs = append(attrs, slog.String("phone_number", identity.PhoneNumber))
			}

			log.InfoContext(r.Context(), "http request", attrs...)
		})
	}
}
