package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/officetrack/backend/internal/auth"
	"github.com/officetrack/backend/pkg/ctxutil"
)

type tokenVerifier interface {
	Verify(token string) (auth.Identity, error)
}

// Auth verifies the bearer token and stores the identity in the request
// context. Requests without a valid token are rejected with 401; every
// route behind this middleware requires a verified phone identity.
func Auth(verifier tokenVerifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := extractBearerToken(r)
			if err != nil {
				writeUnauthorized(w, err.Error())
				return
			}

			identity, err := verifier.Verify(token)
			if err != nil {
				writeUnauthorized(w, "invalid token")
				return
			}

			ctx := ctxutil.WithIdentity(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractBearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", fmt.Errorf("missing authorization header")
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", fmt.Errorf("malformed authorization header")
	}

	return parts[1], nil
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	fmt.Fprintf(w, `{"success":false,"code":401,"message":%q}`, message)
}
