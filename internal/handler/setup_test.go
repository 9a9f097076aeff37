package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/startrail/internal/catalog"
	"github.com/startrail/internal/db"
	"github.com/startrail/internal/service"
	"github.com/stretchr/testify/require"
)

func setupHandlerTestStore(t *testing.T) *service.GormCompletionStore {
	t.Helper()

	gdb, err := db.Open(db.Options{
		Path:   fmt.Sprintf("file:handler-%d?mode=memory&cache=shared", time.Now().UnixNano()),
		Silent: true,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return service.NewGormCompletionStore(gdb)
}

func newTestRouter(store service.CompletionStore) *gin.Engine {
	gin.SetMode(gin.TestMode)

	api := NewAPI(store, catalog.MustLoad(), nil).WithSiteBaseURL("https://startrail.test")

	cookieStore := cookie.NewStore([]byte("test-secret"))
	cookieStore.Options(sessions.Options{Path: "/", MaxAge: 3600, HttpOnly: true, SameSite: http.SameSiteLaxMode})

	r := gin.New()
	r.Use(sessions.SessionsMany([]string{SessionCookieName, PrefsCookieName}, cookieStore))

	// writes a pre-profile cookie holding only the legacy session id
	r.GET("/test/legacy/:id", func(c *gin.Context) {
		session := sessions.DefaultMany(c, SessionCookieName)
		session.Set(legacySessionKey, c.Param("id"))
		if err := session.Save(); err != nil {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusNoContent)
	})
	api.RegisterRoutes(r)

	return r
}

// testClient carries cookies between requests like a browser.
type testClient struct {
	t       *testing.T
	router  *gin.Engine
	cookies map[string]*http.Cookie
}

func newTestClient(t *testing.T, router *gin.Engine) *testClient {
	return &testClient{t: t, router: router, cookies: map[string]*http.Cookie{}}
}

func (tc *testClient) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	tc.t.Helper()

	var reader io.Reader
	switch payload := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(payload)
	default:
		data, err := json.Marshal(payload)
		require.NoError(tc.t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range tc.cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	tc.router.ServeHTTP(rec, req)

	for _, c := range rec.Result().Cookies() {
		tc.cookies[c.Name] = c
	}
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}

type profilesResponse struct {
	Profiles []struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		IsActive bool   `json:"isActive"`
	} `json:"profiles"`
	Max int `json:"max"`
}

func (p profilesResponse) activeID() string {
	for _, profile := range p.Profiles {
		if profile.IsActive {
			return profile.ID
		}
	}
	return ""
}

var errStoreDown = errors.New("dial tcp 10.0.0.5:5432: connection refused")

// brokenStore fails every call the way an unreachable database would.
type brokenStore struct{}

func (brokenStore) fail() error {
	return fmt.Errorf("%w: query: %w", service.ErrStorageUnavailable, errStoreDown)
}

func (s brokenStore) ListByCategory(context.Context, string, string) ([]db.Achievement, error) {
	return nil, s.fail()
}

func (s brokenStore) ListBySession(context.Context, string) ([]db.Achievement, error) {
	return nil, s.fail()
}

func (s brokenStore) Latest(context.Context, string, int) ([]db.Achievement, error) {
	return nil, s.fail()
}

func (s brokenStore) CountByCategory(context.Context, string) (map[string]int, error) {
	return nil, s.fail()
}

func (s brokenStore) CountSession(context.Context, string) (int, error) { return 0, s.fail() }

func (s brokenStore) CountSessions(context.Context) (int, error) { return 0, s.fail() }

func (s brokenStore) CountSessionsAbove(context.Context, int) (int, error) { return 0, s.fail() }

func (s brokenStore) Exists(context.Context, string) (bool, error) { return false, s.fail() }

func (s brokenStore) Insert(context.Context, string, string, string) error { return s.fail() }

func (s brokenStore) Delete(context.Context, string, string, ...string) error { return s.fail() }

func (s brokenStore) ReplaceVariant(context.Context, string, string, string, []string, string) error {
	return s.fail()
}

func (s brokenStore) Reassign(context.Context, string, string) (int64, error) { return 0, s.fail() }
