//go:build e2e

package e2e_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/officetrack/backend/internal/adapter/postgres"
	activityrepo "github.com/officetrack/backend/internal/adapter/postgres/activity"
	addendumrepo "github.com/officetrack/backend/internal/adapter/postgres/addendum"
	feedrepo "github.com/officetrack/backend/internal/adapter/postgres/feed"
	officerepo "github.com/officetrack/backend/internal/adapter/postgres/office"
	profilerepo "github.com/officetrack/backend/internal/adapter/postgres/profile"
	subscriptionrepo "github.com/officetrack/backend/internal/adapter/postgres/subscription"
	"github.com/officetrack/backend/internal/adapter/postgres/testhelper"
	templaterepo "github.com/officetrack/backend/internal/adapter/postgres/template"
	authpkg "github.com/officetrack/backend/internal/auth"
	"github.com/officetrack/backend/internal/config"
	activitysvc "github.com/officetrack/backend/internal/service/activity"
	"github.com/officetrack/backend/internal/service/fanout"
	syncsvc "github.com/officetrack/backend/internal/service/sync"
	"github.com/officetrack/backend/internal/transport/middleware"
	"github.com/officetrack/backend/internal/transport/rest"
)

const (
	jwtSecret = "test-secret-at-least-32-chars-long!!"
	jwtIssuer = "test-issuer"
)

// testServer wraps the full-stack HTTP server for E2E tests.
type testServer struct {
	URL    string
	Client *http.Client
	Pool   *pgxpool.Pool
}

// testLogWriter adapts testing.T to io.Writer for slog.
type testLogWriter struct{ t *testing.T }

func (w testLogWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(string(p))
	return len(p), nil
}

// setupTestServer bootstraps the full application stack backed by a real
// PostgreSQL container (shared via testhelper).
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	pool := testhelper.SetupTestDB(t)

	logger := slog.New(slog.NewTextHandler(testLogWriter{t}, nil))
	txm := postgres.NewTxManager(pool)

	templates := templaterepo.New(pool)
	offices := officerepo.New(pool)
	activities := activityrepo.New(pool)
	profiles := profilerepo.New(pool)
	addendums := addendumrepo.New(pool)
	subscriptions := subscriptionrepo.New(pool)
	feed := feedrepo.New(pool)

	dispatcher := fanout.NewDispatcher(logger, activities, profiles, feed, config.FanoutConfig{
		QueueSize:    64,
		DrainTimeout: 5 * time.Second,
	})
	dispatcher.Start()
	t.Cleanup(dispatcher.Stop)

	activityService := activitysvc.NewService(logger,
		templates, offices, activities, profiles, addendums, subscriptions,
		dispatcher, nil, txm)
	syncService := syncsvc.NewService(logger,
		feed, profiles, activities, offices, subscriptions, templates)

	verifier := authpkg.NewVerifier(jwtSecret, jwtIssuer)

	router := rest.NewRouter(rest.RouterDeps{
		Activity: rest.NewActivityHandler(activityService, logger),
		Sync:     rest.NewSyncHandler(syncService, logger),
		Health:   rest.NewHealthHandler(pool, dispatcher, "e2e"),
		Auth:     middleware.Auth(verifier),
	})

	server := httptest.NewServer(middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID,
	)(router))
	t.Cleanup(server.Close)

	return &testServer{
		URL:    server.URL,
		Client: server.Client(),
		Pool:   pool,
	}
}

// mintToken signs a provider-style bearer token for the given identity.
func mintToken(t *testing.T, uid uuid.UUID, phone, name string, claims authpkg.CustomClaims) string {
	t.Helper()

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss":          jwtIssuer,
		"sub":          uid.String(),
		"iat":          now.Unix(),
		"exp":          now.Add(time.Hour).Unix(),
		"phone_number": phone,
		"name":         name,
		"claims":       claims,
	})

	signed, err := token.SignedString([]byte(jwtSecret))
	require.NoError(t, err)
	return signed
}

// doJSON issues a request with an optional bearer token and decodes the
// JSON response body.
func (ts *testServer) doJSON(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.Client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp.StatusCode, decoded
}

// readChanges polls the sync endpoint until the condition holds or the
// deadline passes. The fan-out is asynchronous, so feed entries trail the
// mutation response.
func (ts *testServer) readChanges(t *testing.T, token string, from int64, cond func(map[string]any) bool) map[string]any {
	t.Helper()

	deadline := time.Now().Add(10 * time.Second)
	for {
		status, body := ts.doJSON(t, http.MethodGet,
			"/activities/read?from="+jsonNumber(from), token, nil)
		require.Equal(t, http.StatusOK, status, "read changes: %v", body)
		if cond(body) {
			return body
		}
		if time.Now().After(deadline) {
			t.Fatalf("sync window never satisfied condition: %v", body)
		}
		time.Sleep(100 * time.Millisecond)
	}
}

func jsonNumber(n int64) string {
	raw, _ := json.Marshal(n)
	return string(raw)
}
