package handler

import (
	"strings"

	"github.com/startrail/internal/catalog"
	"github.com/startrail/internal/service"
	"go.uber.org/zap"
)

const (
	// SessionCookieName 保存档案列表（以及旧版单会话 ID）的签名 cookie
	SessionCookieName = "__session"
	// PrefsCookieName 保存用户偏好的签名 cookie
	PrefsCookieName = "user-prefs"

	sessionsKey      = "sessions"
	legacySessionKey = "userSessionId"
	prefsKey         = "prefs"

	profileStateContextKey = "__profile_state"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	achievements *service.AchievementService
	profiles     *service.ProfileService
	log          *zap.Logger
	siteBaseURL  string
}

// NewAPI constructs a handler set over one completion store and the loaded catalog.
func NewAPI(store service.CompletionStore, c *catalog.Catalog, log *zap.Logger) *API {
	if log == nil {
		log = zap.NewNop()
	}
	return &API{
		achievements: service.NewAchievementService(c, store),
		profiles:     service.NewProfileService(store),
		log:          log,
	}
}

// WithSiteBaseURL fixes the origin used in the sitemap; otherwise the request host is used.
func (a *API) WithSiteBaseURL(baseURL string) *API {
	a.siteBaseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	return a
}

// Achievements exposes the achievement service for callers outside HTTP (seeding, tests).
func (a *API) Achievements() *service.AchievementService {
	return a.achievements
}

// Profiles exposes the profile service.
func (a *API) Profiles() *service.ProfileService {
	return a.profiles
}
