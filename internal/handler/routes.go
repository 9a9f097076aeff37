package handler

import "github.com/gin-gonic/gin"

// RegisterRoutes 挂载页面与 /api 路由；/api 下的请求先解析 profile cookie
func (a *API) RegisterRoutes(r gin.IRouter) {
	r.GET("/sitemap.xml", a.Sitemap)
	r.GET("/about", a.ShowAbout)

	apiGroup := r.Group("/api")
	apiGroup.Use(a.ResolveProfiles())
	{
		apiGroup.GET("/overview", a.GetOverview)
		apiGroup.GET("/latest", a.GetLatest)

		apiGroup.GET("/categories", a.ListCategories)
		apiGroup.GET("/categories/:slug", a.GetCategory)
		apiGroup.POST("/categories/:slug/achievements", a.SetCompletion)

		apiGroup.GET("/prefs", a.GetPrefs)
		apiGroup.PUT("/prefs", a.UpdatePrefs)

		apiGroup.GET("/profiles", a.ListProfiles)
		apiGroup.POST("/profiles", a.CreateProfile)
		apiGroup.POST("/profiles/import", a.ImportProfile)
		apiGroup.PUT("/profiles/:id", a.RenameProfile)
		apiGroup.DELETE("/profiles/:id", a.DeleteProfile)
		apiGroup.POST("/profiles/:id/activate", a.ActivateProfile)
		apiGroup.GET("/profiles/:id/session", a.ExportProfileSession)
	}
}
