package rest

import (
	"net/http"
)

// RouterDeps bundles the handlers and the authentication middleware the
// router mounts.
type RouterDeps struct {
	Activity *ActivityHandler
	Sync     *SyncHandler
	Health   *HealthHandler
	// Auth wraps every activity route; health probes stay open.
	Auth func(http.Handler) http.Handler
}

// NewRouter mounts all routes. Method mismatches on known paths return
// 405 through the ServeMux method patterns.
func NewRouter(deps RouterDeps) http.Handler {
	mux := http.NewServeMux()

	authed := func(h http.HandlerFunc) http.Handler {
		if deps.Auth == nil {
			return h
		}
		return deps.Auth(h)
	}

	mux.Handle("POST /activities", authed(deps.Activity.Create))
	mux.Handle("PATCH /activities/change-status", authed(deps.Activity.ChangeStatus))
	mux.Handle("PATCH /activities/update", authed(deps.Activity.Update))
	mux.Handle("POST /activities/comment", authed(deps.Activity.Comment))
	mux.Handle("GET /activities/read", authed(deps.Sync.Read))

	mux.HandleFunc("GET /live", deps.Health.Live)
	mux.HandleFunc("GET /ready", deps.Health.Ready)
	mux.HandleFunc("GET /health", deps.Health.Health)

	return mux
}
