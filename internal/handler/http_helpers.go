package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/startrail/internal/service"
	"go.uber.org/zap"
)

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, message)
		return false
	}
	return true
}

// parseLimitQuery 读取 ?limit=，缺省时返回 0 交给服务层取默认值
func parseLimitQuery(c *gin.Context, key string, max int) (int, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 || limit > max {
		return 0, false
	}
	return limit, true
}

// writeServiceError maps service sentinels to status codes. Storage failures are
// attached to the gin context for the request logger and never echoed.
func (a *API) writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCategory):
		respondError(c, http.StatusNotFound, "category not found")
	case errors.Is(err, service.ErrUnknownAchievement):
		respondError(c, http.StatusBadRequest, "unknown achievement")
	case errors.Is(err, service.ErrMalformedInput):
		respondError(c, http.StatusBadRequest, "invalid request")
	case errors.Is(err, service.ErrProfileLimitReached):
		respondError(c, http.StatusBadRequest, "profile limit reached")
	case errors.Is(err, service.ErrProfileExists):
		respondError(c, http.StatusBadRequest, "profile already exists")
	case errors.Is(err, service.ErrLastProfile):
		respondError(c, http.StatusBadRequest, "the last profile cannot be removed")
	case errors.Is(err, service.ErrProfileNotFound):
		respondError(c, http.StatusNotFound, "profile not found")
	case errors.Is(err, service.ErrNoSuchSession):
		respondError(c, http.StatusBadRequest, "no session was found with the provided id")
	case errors.Is(err, service.ErrStorageUnavailable):
		c.Error(err)
		respondError(c, http.StatusServiceUnavailable, "storage unavailable, please retry later")
	default:
		c.Error(err)
		a.log.Error("unexpected handler error", zap.String("path", c.FullPath()), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "internal error")
	}
}
