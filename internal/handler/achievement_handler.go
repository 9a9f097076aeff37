package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/startrail/internal/service"
)

const maxLatestQueryLimit = 50

type completionRequest struct {
	Name     string `json:"name"`
	Achieved bool   `json:"achieved"`
	Variant  string `json:"variant"`
}

// GetOverview 返回首页数据：排名、最近完成、隐藏成就数与当前版本进度
func (a *API) GetOverview(c *gin.Context) {
	sessionID := activeSessionID(c)
	ctx := c.Request.Context()

	overview, err := a.achievements.Overview(ctx, sessionID)
	if err != nil {
		a.writeServiceError(c, err)
		return
	}
	summary, err := a.achievements.SummarizeProgress(ctx, sessionID)
	if err != nil {
		a.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"rank":           overview.Rank,
		"secretAchieved": overview.SecretAchieved,
		"currentVersion": overview.CurrentVersion,
		"latestAchieved": overview.Latest,
		"progress":       summary,
		"percent":        summary.Percent(),
	})
}

// ListCategories 返回导航用的分类与完成数
func (a *API) ListCategories(c *gin.Context) {
	summary, err := a.achievements.SummarizeProgress(c.Request.Context(), activeSessionID(c))
	if err != nil {
		a.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GetCategory 返回合并后的分类清单，排序与线索显示由偏好决定
func (a *API) GetCategory(c *gin.Context) {
	prefs := userPrefs(c)

	view, err := a.achievements.ListCategory(c.Request.Context(), activeSessionID(c), c.Param("slug"), prefs.ShowMissedFirst)
	if err != nil {
		a.writeServiceError(c, err)
		return
	}
	service.ApplyClueVisibility(view, prefs)

	c.JSON(http.StatusOK, view)
}

// SetCompletion toggles one achievement for the active profile.
func (a *API) SetCompletion(c *gin.Context) {
	var payload completionRequest
	if !bindJSON(c, &payload, "invalid request") {
		return
	}

	input := service.CompletionInput{
		SessionID: activeSessionID(c),
		Category:  c.Param("slug"),
		Name:      payload.Name,
		Achieved:  payload.Achieved,
		Variant:   payload.Variant,
	}
	if err := a.achievements.SetCompletion(c.Request.Context(), input); err != nil {
		a.writeServiceError(c, err)
		return
	}
	completionChangesTotal.WithLabelValues(completionAction(input)).Inc()

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func completionAction(input service.CompletionInput) string {
	switch {
	case input.Variant == service.VariantNone:
		return "clear"
	case input.Variant != "":
		return "variant"
	case input.Achieved:
		return "add"
	default:
		return "remove"
	}
}

// GetLatest 返回最近完成的成就
func (a *API) GetLatest(c *gin.Context) {
	limit, ok := parseLimitQuery(c, "limit", maxLatestQueryLimit)
	if !ok {
		respondError(c, http.StatusBadRequest, "limit must be between 1 and 50")
		return
	}

	entries, err := a.achievements.LatestCompletions(c.Request.Context(), activeSessionID(c), limit)
	if err != nil {
		a.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"latestAchieved": entries})
}
