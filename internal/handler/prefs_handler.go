package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/startrail/internal/service"
)

const maxPrefsBodyBytes = 4 << 10

// GetPrefs 返回当前偏好（缺省项已回填默认值）
func (a *API) GetPrefs(c *gin.Context) {
	c.JSON(http.StatusOK, userPrefs(c))
}

// UpdatePrefs replaces the preferences. Groups missing from the body fall back to defaults.
func (a *API) UpdatePrefs(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxPrefsBodyBytes))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid preferences")
		return
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(body, &probe); err != nil {
		respondError(c, http.StatusBadRequest, "invalid preferences")
		return
	}

	prefs := service.DecodeUserPrefs(string(body))
	if err := a.saveUserPrefs(c, prefs); err != nil {
		c.Error(err)
		respondError(c, http.StatusInternalServerError, "failed to save preferences")
		return
	}
	c.JSON(http.StatusOK, prefs)
}
