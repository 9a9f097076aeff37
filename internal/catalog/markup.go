package catalog

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Markup lists the fragments of a clue that are rendered with inline styling.
type Markup struct {
	Italic    []string `yaml:"italic"`
	Highlight []string `yaml:"highlight"`
	Link      []Link   `yaml:"link"`
}

// Link turns the first occurrence of Keyword into an external hyperlink.
type Link struct {
	Keyword string `yaml:"keyword"`
	URL     string `yaml:"url"`
}

var cluePolicy = newCluePolicy()

func newCluePolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowAttrs("class").
		Matching(regexp.MustCompile(`^clue-(italic|highlight|link)$`)).
		OnElements("span", "a")
	p.AllowAttrs("href").OnElements("a")
	p.AllowStandardURLs()
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return p
}

// RenderClue escapes the clue and wraps the first occurrence of every markup fragment.
// Only the clue-* spans and http(s) links survive sanitisation.
func RenderClue(clue string, markup Markup) string {
	out := html.EscapeString(clue)

	for _, fragment := range markup.Italic {
		out = wrapFirst(out, fragment, `<span class="clue-italic">`, `</span>`)
	}
	for _, fragment := range markup.Highlight {
		out = wrapFirst(out, fragment, `<span class="clue-highlight">`, `</span>`)
	}
	for _, link := range markup.Link {
		open := fmt.Sprintf(`<a href="%s" class="clue-link">`, html.EscapeString(link.URL))
		out = wrapFirst(out, link.Keyword, open, `</a>`)
	}

	return cluePolicy.Sanitize(out)
}

func wrapFirst(escaped, fragment, open, close string) string {
	if fragment == "" {
		return escaped
	}
	target := html.EscapeString(fragment)
	return strings.Replace(escaped, target, open+target+close, 1)
}
