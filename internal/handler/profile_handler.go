package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/startrail/internal/service"
)

type profileRequest struct {
	Name string `json:"name"`
}

type profileImportRequest struct {
	Name      string `json:"name"`
	SessionID string `json:"sessionId"`
}

// profilePayload 不包含 sessionId，导出需走单独的接口
func profilePayload(profile service.Profile) gin.H {
	return gin.H{
		"id":       profile.ID,
		"name":     profile.Name,
		"isActive": profile.IsActive,
	}
}

func profilesPayload(state service.ProfileState) gin.H {
	items := make([]gin.H, 0, len(state.Sessions))
	for _, profile := range state.Sessions {
		items = append(items, profilePayload(profile))
	}
	return gin.H{"profiles": items, "max": service.MaxProfiles}
}

// ListProfiles 返回当前 cookie 中的全部档案
func (a *API) ListProfiles(c *gin.Context) {
	state, err := profileState(c)
	if err != nil {
		a.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, profilesPayload(state))
}

// CreateProfile 新建档案
func (a *API) CreateProfile(c *gin.Context) {
	var payload profileRequest
	if !bindJSON(c, &payload, "profile name is required") {
		return
	}

	a.mutateProfiles(c, "new", http.StatusCreated, func(state *service.ProfileState) error {
		_, err := a.profiles.New(state, payload.Name)
		return err
	})
}

// ImportProfile 通过已有会话 ID 导入档案
func (a *API) ImportProfile(c *gin.Context) {
	var payload profileImportRequest
	if !bindJSON(c, &payload, "profile name and session id are required") {
		return
	}

	a.mutateProfiles(c, "import", http.StatusCreated, func(state *service.ProfileState) error {
		_, err := a.profiles.Import(c.Request.Context(), state, payload.Name, payload.SessionID)
		return err
	})
}

// RenameProfile 修改档案名称
func (a *API) RenameProfile(c *gin.Context) {
	var payload profileRequest
	if !bindJSON(c, &payload, "profile name is required") {
		return
	}

	id := c.Param("id")
	a.mutateProfiles(c, "rename", http.StatusOK, func(state *service.ProfileState) error {
		return a.profiles.Rename(state, id, payload.Name)
	})
}

// DeleteProfile 删除档案；删除激活档案时第一个剩余档案成为激活档案
func (a *API) DeleteProfile(c *gin.Context) {
	id := c.Param("id")
	a.mutateProfiles(c, "remove", http.StatusOK, func(state *service.ProfileState) error {
		return a.profiles.Remove(state, id)
	})
}

// ActivateProfile 切换激活档案
func (a *API) ActivateProfile(c *gin.Context) {
	id := c.Param("id")
	a.mutateProfiles(c, "switch", http.StatusOK, func(state *service.ProfileState) error {
		return a.profiles.Switch(state, id)
	})
}

// ExportProfileSession reveals the session id behind one of the caller's own profiles.
func (a *API) ExportProfileSession(c *gin.Context) {
	state, err := profileState(c)
	if err != nil {
		a.writeServiceError(c, err)
		return
	}

	sessionID, err := a.profiles.SessionIDFor(state, c.Param("id"))
	observeProfileOp("export", err)
	if errors.Is(err, service.ErrProfileNotFound) {
		respondError(c, http.StatusForbidden, "you don't have permission to access this resource")
		return
	}
	if err != nil {
		a.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "sessionId": sessionID})
}

func (a *API) mutateProfiles(c *gin.Context, op string, status int, apply func(*service.ProfileState) error) {
	state, err := profileState(c)
	if err != nil {
		a.writeServiceError(c, err)
		return
	}

	err = apply(&state)
	observeProfileOp(op, err)
	if err != nil {
		a.writeServiceError(c, err)
		return
	}

	if err := a.saveProfileState(c, state); err != nil {
		c.Error(err)
		respondError(c, http.StatusInternalServerError, "failed to save session")
		return
	}
	c.JSON(status, profilesPayload(state))
}
