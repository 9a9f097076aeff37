package handler

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/startrail/internal/service"
	"go.uber.org/zap"
)

var errProfileStateMissing = errors.New("profile state missing from context")

// ResolveProfiles 在请求开始时读取档案 cookie，必要时迁移旧版会话或创建默认档案，
// 并把档案列表放进 gin 上下文。
func (a *API) ResolveProfiles() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.DefaultMany(c, SessionCookieName)
		raw, _ := session.Get(sessionsKey).(string)
		legacy, _ := session.Get(legacySessionKey).(string)

		res, err := a.profiles.Resolve(c.Request.Context(), raw, legacy)
		if err != nil {
			a.writeServiceError(c, err)
			c.Abort()
			return
		}

		if res.Discarded {
			a.log.Warn("discarded unreadable profile cookie")
		}
		if res.Migrated {
			legacyMigrationsTotal.Inc()
			session.Delete(legacySessionKey)
			a.log.Info("migrated legacy session cookie")
		}

		c.Set(profileStateContextKey, res.State)

		if res.Changed {
			if err := a.saveProfileState(c, res.State); err != nil {
				c.Error(err)
				respondError(c, http.StatusInternalServerError, "failed to save session")
				c.Abort()
				return
			}
		}

		c.Next()
	}
}

func profileState(c *gin.Context) (service.ProfileState, error) {
	value, ok := c.Get(profileStateContextKey)
	if !ok {
		return service.ProfileState{}, errProfileStateMissing
	}
	state, ok := value.(service.ProfileState)
	if !ok {
		return service.ProfileState{}, errProfileStateMissing
	}
	return state, nil
}

// activeSessionID 返回当前激活档案对应的存储会话 ID
func activeSessionID(c *gin.Context) string {
	state, err := profileState(c)
	if err != nil {
		return ""
	}
	active, _ := state.Active()
	return active.SessionID
}

func (a *API) saveProfileState(c *gin.Context, state service.ProfileState) error {
	payload, err := state.Encode()
	if err != nil {
		return err
	}

	session := sessions.DefaultMany(c, SessionCookieName)
	session.Set(sessionsKey, payload)
	if err := session.Save(); err != nil {
		a.log.Error("failed to save profile cookie", zap.Error(err))
		return err
	}
	c.Set(profileStateContextKey, state)
	return nil
}

func userPrefs(c *gin.Context) service.UserPrefs {
	session := sessions.DefaultMany(c, PrefsCookieName)
	raw, _ := session.Get(prefsKey).(string)
	return service.DecodeUserPrefs(raw)
}

func (a *API) saveUserPrefs(c *gin.Context, prefs service.UserPrefs) error {
	payload, err := service.EncodeUserPrefs(prefs)
	if err != nil {
		return err
	}

	session := sessions.DefaultMany(c, PrefsCookieName)
	session.Set(prefsKey, payload)
	if err := session.Save(); err != nil {
		a.log.Error("failed to save prefs cookie", zap.Error(err))
		return err
	}
	return nil
}
