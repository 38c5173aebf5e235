//go:build e2e

package e2e_test

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authpkg "github.com/officetrack/backend/internal/auth"
)

// TestE2E_LiveEndpoint verifies the /live liveness probe returns 200 OK.
func TestE2E_LiveEndpoint(t *testing.T) {
	ts := setupTestServer(t)

	resp, err := ts.Client.Get(ts.URL + "/live")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// TestE2E_HealthEndpoint verifies /health reports the database and the
// fan-out queue.
func TestE2E_HealthEndpoint(t *testing.T) {
	ts := setupTestServer(t)

	status, body := ts.doJSON(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])

	components, ok := body["components"].(map[string]any)
	require.True(t, ok, "expected components object")

	db, ok := components["database"].(map[string]any)
	require.True(t, ok, "expected database component")
	assert.Equal(t, "ok", db["status"])

	_, ok = components["fanout"].(map[string]any)
	assert.True(t, ok, "expected fanout component")
}

// TestE2E_AuthRequired verifies activity routes reject requests without a
// bearer token.
func TestE2E_AuthRequired(t *testing.T) {
	ts := setupTestServer(t)

	status, body := ts.doJSON(t, http.MethodPost, "/activities", "", map[string]any{
		"template": "plan",
		"office":   "personal",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, false, body["success"])
}

// TestE2E_PlanLifecycle walks the personal plan flow end to end: create,
// comment, confirm, and read the diff back through the sync cursor.
func TestE2E_PlanLifecycle(t *testing.T) {
	ts := setupTestServer(t)

	uid := uuid.New()
	phone := "+15550100001"
	token := mintToken(t, uid, phone, "Alice", authpkg.CustomClaims{})

	status, body := ts.doJSON(t, http.MethodPost, "/activities", token, map[string]any{
		"template":    "plan",
		"office":      "personal",
		"title":       "Quarterly planning",
		"description": "Plan the next quarter",
		"geopoint":    map[string]any{"latitude": 52.5, "longitude": 13.4},
		"timestamp":   1767225600000,
	})
	require.Equal(t, http.StatusCreated, status, "create: %v", body)

	activity, ok := body["activity"].(map[string]any)
	require.True(t, ok, "expected activity payload")
	activityID := activity["id"].(string)
	assert.Equal(t, "PENDING", activity["status"])
	assert.Equal(t, "Quarterly planning", activity["title"])

	// Creation fans out asynchronously; the first sync sees it.
	changes := ts.readChanges(t, token, 0, func(b map[string]any) bool {
		addendum, _ := b["addendum"].([]any)
		return len(addendum) >= 1
	})
	addendum := changes["addendum"].([]any)
	first := addendum[0].(map[string]any)
	assert.Equal(t, "You created a plan.", first["comment"])

	activities := changes["activities"].([]any)
	require.Len(t, activities, 1)
	change := activities[0].(map[string]any)
	assert.Equal(t, true, change["canEdit"])

	cursor := int64(changes["upto"].(float64))
	require.Greater(t, cursor, int64(0))

	status, body = ts.doJSON(t, http.MethodPost, "/activities/comment", token, map[string]any{
		"activityId": activityID,
		"comment":    "kickoff on Monday",
		"timestamp":  1767225700000,
	})
	require.Equal(t, http.StatusCreated, status, "comment: %v", body)

	status, body = ts.doJSON(t, http.MethodPatch, "/activities/change-status", token, map[string]any{
		"activityId": activityID,
		"status":     "CONFIRMED",
		"timestamp":  1767225800000,
	})
	require.Equal(t, http.StatusOK, status, "change status: %v", body)
	assert.Equal(t, "CONFIRMED", body["activity"].(map[string]any)["status"])

	// Incremental read: only the comment and the status change show up
	// past the cursor.
	changes = ts.readChanges(t, token, cursor, func(b map[string]any) bool {
		addendum, _ := b["addendum"].([]any)
		return len(addendum) >= 2
	})
	comments := make([]string, 0, 2)
	for _, raw := range changes["addendum"].([]any) {
		comments = append(comments, raw.(map[string]any)["comment"].(string))
	}
	assert.Contains(t, comments, "kickoff on Monday")
	assert.Contains(t, comments, "You confirmed Quarterly planning.")

	// Same status again is a conflict.
	status, _ = ts.doJSON(t, http.MethodPatch, "/activities/change-status", token, map[string]any{
		"activityId": activityID,
		"status":     "CONFIRMED",
		"timestamp":  1767225900000,
	})
	assert.Equal(t, http.StatusConflict, status)
}

// TestE2E_ShareFansOutToAssignee verifies a shared activity reaches the
// other assignee's feed with the actor rendered by name, not as "You".
func TestE2E_ShareFansOutToAssignee(t *testing.T) {
	ts := setupTestServer(t)

	creatorUID, viewerUID := uuid.New(), uuid.New()
	creatorPhone, viewerPhone := "+15550200001", "+15550200002"
	creatorToken := mintToken(t, creatorUID, creatorPhone, "Bob", authpkg.CustomClaims{})
	viewerToken := mintToken(t, viewerUID, viewerPhone, "Carol", authpkg.CustomClaims{})

	// The viewer signs in first so their profile carries a uid before the
	// fan-out runs.
	status, _ := ts.doJSON(t, http.MethodPost, "/activities", viewerToken, map[string]any{
		"template":  "plan",
		"office":    "personal",
		"title":     "Bootstrap",
		"timestamp": 1767225600000,
	})
	require.Equal(t, http.StatusCreated, status)

	status, body := ts.doJSON(t, http.MethodPost, "/activities", creatorToken, map[string]any{
		"template":  "plan",
		"office":    "personal",
		"title":     "Shared plan",
		"share":     []string{viewerPhone},
		"timestamp": 1767225600000,
	})
	require.Equal(t, http.StatusCreated, status, "create: %v", body)

	changes := ts.readChanges(t, viewerToken, 0, func(b map[string]any) bool {
		for _, raw := range b["addendum"].([]any) {
			if raw.(map[string]any)["comment"] == "Bob created a plan." {
				return true
			}
		}
		return false
	})

	// The plan template grants edit to the creator only.
	for _, raw := range changes["activities"].([]any) {
		change := raw.(map[string]any)
		if change["activity"].(map[string]any)["title"] == "Shared plan" {
			assert.Equal(t, false, change["canEdit"])
		}
	}
}
