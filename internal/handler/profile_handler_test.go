package handler

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/startrail/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listProfiles(t *testing.T, client *testClient) profilesResponse {
	t.Helper()
	rec := client.do(http.MethodGet, "/api/profiles", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp profilesResponse
	decodeJSON(t, rec, &resp)
	return resp
}

func exportSession(t *testing.T, client *testClient, id string) string {
	t.Helper()
	rec := client.do(http.MethodGet, "/api/profiles/"+id+"/session", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		SessionID string `json:"sessionId"`
	}
	decodeJSON(t, rec, &body)
	return body.SessionID
}

func TestFirstVisitCreatesDefaultProfile(t *testing.T) {
	client := newTestClient(t, newTestRouter(setupHandlerTestStore(t)))

	rec := client.do(http.MethodGet, "/api/profiles", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "sessionId")
	require.Contains(t, client.cookies, SessionCookieName)
	assert.True(t, client.cookies[SessionCookieName].HttpOnly)

	var resp profilesResponse
	decodeJSON(t, rec, &resp)
	require.Len(t, resp.Profiles, 1)
	assert.Equal(t, service.DefaultProfileName, resp.Profiles[0].Name)
	assert.True(t, resp.Profiles[0].IsActive)
	assert.Equal(t, service.MaxProfiles, resp.Max)

	// the cookie is reused, not regenerated
	again := listProfiles(t, client)
	assert.Equal(t, resp.Profiles[0].ID, again.Profiles[0].ID)
}

func TestTamperedCookieIsReplaced(t *testing.T) {
	client := newTestClient(t, newTestRouter(setupHandlerTestStore(t)))
	first := listProfiles(t, client)

	client.cookies[SessionCookieName].Value = "tampered" + client.cookies[SessionCookieName].Value
	second := listProfiles(t, client)

	require.Len(t, second.Profiles, 1)
	assert.NotEqual(t, first.Profiles[0].ID, second.Profiles[0].ID)
}

func TestProfileLifecycle(t *testing.T) {
	client := newTestClient(t, newTestRouter(setupHandlerTestStore(t)))
	defaultID := listProfiles(t, client).Profiles[0].ID

	rec := client.do(http.MethodPost, "/api/profiles", gin.H{"name": "Alt account"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created profilesResponse
	decodeJSON(t, rec, &created)
	require.Len(t, created.Profiles, 2)
	altID := created.Profiles[1].ID
	assert.Equal(t, defaultID, created.activeID())

	require.Equal(t, http.StatusOK, client.do(http.MethodPost, "/api/profiles/"+altID+"/activate", nil).Code)
	assert.Equal(t, altID, listProfiles(t, client).activeID())

	// completions follow the active profile
	rec = client.do(http.MethodPost, "/api/categories/trailblazer/achievements", gin.H{"name": "Destiny Beckons (I)", "achieved": true})
	require.Equal(t, http.StatusOK, rec.Code)
	var summary service.ProgressSummary
	decodeJSON(t, client.do(http.MethodGet, "/api/categories", nil), &summary)
	assert.Equal(t, 1, summary.AchievedTotal)

	require.Equal(t, http.StatusOK, client.do(http.MethodPost, "/api/profiles/"+defaultID+"/activate", nil).Code)
	decodeJSON(t, client.do(http.MethodGet, "/api/categories", nil), &summary)
	assert.Zero(t, summary.AchievedTotal)

	rec = client.do(http.MethodPut, "/api/profiles/"+altID, gin.H{"name": "Speedrun"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Speedrun")

	rec = client.do(http.MethodPut, "/api/profiles/"+altID, gin.H{"name": "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// removing the active profile promotes the first remaining one
	rec = client.do(http.MethodDelete, "/api/profiles/"+defaultID, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	after := listProfiles(t, client)
	require.Len(t, after.Profiles, 1)
	assert.Equal(t, altID, after.activeID())

	rec = client.do(http.MethodDelete, "/api/profiles/"+altID, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = client.do(http.MethodPost, "/api/profiles/missing/activate", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProfileLimit(t *testing.T) {
	client := newTestClient(t, newTestRouter(setupHandlerTestStore(t)))
	listProfiles(t, client)

	for i := 1; i < service.MaxProfiles; i++ {
		rec := client.do(http.MethodPost, "/api/profiles", gin.H{"name": fmt.Sprintf("Run %d", i)})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := client.do(http.MethodPost, "/api/profiles", gin.H{"name": "One too many"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Len(t, listProfiles(t, client).Profiles, service.MaxProfiles)
}

func TestSessionExportAndImport(t *testing.T) {
	router := newTestRouter(setupHandlerTestStore(t))
	owner := newTestClient(t, router)
	ownerID := listProfiles(t, owner).Profiles[0].ID

	rec := owner.do(http.MethodPost, "/api/categories/moment-of-joy/achievements", gin.H{"name": "Earth Week", "achieved": true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	sessionID := exportSession(t, owner, ownerID)
	assert.True(t, service.IsSessionID(sessionID))

	friend := newTestClient(t, router)
	listProfiles(t, friend)

	// another browser cannot read someone else's profile
	rec = friend.do(http.MethodGet, "/api/profiles/"+ownerID+"/session", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = friend.do(http.MethodPost, "/api/profiles/import", gin.H{"name": "Shared", "sessionId": uuid.NewString()})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "no session")

	rec = friend.do(http.MethodPost, "/api/profiles/import", gin.H{"name": "Shared", "sessionId": "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = friend.do(http.MethodPost, "/api/profiles/import", gin.H{"name": "Shared", "sessionId": sessionID})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var imported profilesResponse
	decodeJSON(t, rec, &imported)
	require.Len(t, imported.Profiles, 2)

	rec = friend.do(http.MethodPost, "/api/profiles/import", gin.H{"name": "Again", "sessionId": sessionID})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	require.Equal(t, http.StatusOK, friend.do(http.MethodPost, "/api/profiles/"+imported.Profiles[1].ID+"/activate", nil).Code)
	var summary service.ProgressSummary
	decodeJSON(t, friend.do(http.MethodGet, "/api/categories", nil), &summary)
	assert.Equal(t, 1, summary.AchievedTotal)
}

func TestLegacyCookieMigratesOnce(t *testing.T) {
	store := setupHandlerTestStore(t)
	router := newTestRouter(store)
	client := newTestClient(t, router)

	legacyID := "legacy-" + strings.Repeat("a", 8)
	require.NoError(t, store.Insert(t.Context(), legacyID, "trailblazer", "Ever-Burning Amber"))
	require.NoError(t, store.Insert(t.Context(), legacyID, "trailblazer", "Destiny Beckons (I)"))

	require.Equal(t, http.StatusNoContent, client.do(http.MethodGet, "/test/legacy/"+legacyID, nil).Code)

	var summary service.ProgressSummary
	decodeJSON(t, client.do(http.MethodGet, "/api/categories", nil), &summary)
	assert.Equal(t, 2, summary.AchievedTotal)

	profiles := listProfiles(t, client)
	require.Len(t, profiles.Profiles, 1)
	assert.Equal(t, service.DefaultProfileName, profiles.Profiles[0].Name)

	newID := exportSession(t, client, profiles.Profiles[0].ID)
	assert.NotEqual(t, legacyID, newID)
	n, err := store.CountSession(t.Context(), legacyID)
	require.NoError(t, err)
	assert.Zero(t, n)

	// a second visit keeps the same session id
	decodeJSON(t, client.do(http.MethodGet, "/api/categories", nil), &summary)
	assert.Equal(t, 2, summary.AchievedTotal)
	assert.Equal(t, newID, exportSession(t, client, profiles.Profiles[0].ID))
}
