package handler

import (
	"bytes"
	_ "embed"
	"html/template"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

//go:embed content/about.md
var aboutMarkdown []byte

var (
	markdownEngine = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify),
		goldmark.WithRendererOptions(html.WithXHTML()),
	)
	sanitizer = bluemonday.UGCPolicy()

	aboutOnce sync.Once
	aboutPage []byte
	aboutErr  error
)

var aboutTemplate = template.Must(template.New("about").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Behind the scenes</title>
</head>
<body>
<main>
{{ . }}
</main>
</body>
</html>
`))

func renderMarkdown(content []byte) (template.HTML, error) {
	var buf bytes.Buffer
	if err := markdownEngine.Convert(content, &buf); err != nil {
		return "", err
	}
	safe := sanitizer.SanitizeBytes(buf.Bytes())
	return template.HTML(safe), nil
}

func buildAboutPage() ([]byte, error) {
	body, err := renderMarkdown(aboutMarkdown)
	if err != nil {
		return nil, err
	}
	var page bytes.Buffer
	if err := aboutTemplate.Execute(&page, body); err != nil {
		return nil, err
	}
	return page.Bytes(), nil
}

// ShowAbout 渲染“幕后”说明页
func (a *API) ShowAbout(c *gin.Context) {
	aboutOnce.Do(func() {
		aboutPage, aboutErr = buildAboutPage()
	})
	if aboutErr != nil {
		c.Error(aboutErr)
		respondError(c, http.StatusInternalServerError, "failed to render page")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", aboutPage)
}
