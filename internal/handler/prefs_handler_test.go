package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/startrail/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrefsDefaultsAndUpdate(t *testing.T) {
	client := newTestClient(t, newTestRouter(setupHandlerTestStore(t)))

	var prefs service.UserPrefs
	decodeJSON(t, client.do(http.MethodGet, "/api/prefs", nil), &prefs)
	assert.Equal(t, service.DefaultUserPrefs(), prefs)

	rec := client.do(http.MethodPut, "/api/prefs", gin.H{
		"showMissedFirst": false,
		"showClue": gin.H{
			"secretAchievement": gin.H{"beforeAchieved": true, "afterAchieved": true},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Contains(t, client.cookies, PrefsCookieName)

	decodeJSON(t, client.do(http.MethodGet, "/api/prefs", nil), &prefs)
	assert.False(t, prefs.ShowMissedFirst)
	assert.True(t, prefs.ShowClue.SecretAchievement.BeforeAchieved)
	assert.Equal(t, service.DefaultUserPrefs().ShowClue.NormalAchievement, prefs.ShowClue.NormalAchievement)

	rec = client.do(http.MethodPost, "/api/categories/trailblazer/achievements", gin.H{"name": "Destiny Beckons (I)", "achieved": true})
	require.Equal(t, http.StatusOK, rec.Code)

	var view service.CategoryView
	decodeJSON(t, client.do(http.MethodGet, "/api/categories/trailblazer", nil), &view)
	// catalog order is kept and secret clues are shown
	assert.Equal(t, "Ever-Burning Amber", view.Achievements[0].Name)
	assert.Equal(t, "Destiny Beckons (I)", view.Achievements[1].Name)
	assert.False(t, view.Achievements[0].ClueHidden)
	assert.NotEmpty(t, view.Achievements[0].Clue)
}

func TestPrefsRejectsInvalidBody(t *testing.T) {
	client := newTestClient(t, newTestRouter(setupHandlerTestStore(t)))

	for _, body := range []string{"", "not json", "[1,2]"} {
		rec := client.do(http.MethodPut, "/api/prefs", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
	assert.NotContains(t, client.cookies, PrefsCookieName)
}
