package handler

import (
	"encoding/xml"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

const sitemapNamespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

type sitemapURL struct {
	Loc      string  `xml:"loc"`
	Priority float64 `xml:"priority,omitempty"`
}

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

// Sitemap 列出首页、设置页与全部分类页
func (a *API) Sitemap(c *gin.Context) {
	origin := a.requestOrigin(c)

	urls := []sitemapURL{
		{Loc: origin, Priority: 1},
		{Loc: origin + "/settings", Priority: 0.64},
		{Loc: origin + "/settings/sessions", Priority: 0.64},
	}
	for _, slug := range a.achievements.Catalog().Slugs() {
		urls = append(urls, sitemapURL{Loc: fmt.Sprintf("%s/category/%s", origin, slug), Priority: 0.8})
	}

	body, err := xml.MarshalIndent(sitemapURLSet{XMLNS: sitemapNamespace, URLs: urls}, "", "  ")
	if err != nil {
		c.Error(err)
		respondError(c, http.StatusInternalServerError, "failed to build sitemap")
		return
	}

	c.Data(http.StatusOK, "application/xml; charset=utf-8", append([]byte(xml.Header), body...))
}

func (a *API) requestOrigin(c *gin.Context) string {
	if a.siteBaseURL != "" {
		return a.siteBaseURL
	}
	scheme := "http"
	if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s", scheme, c.Request.Host)
}
