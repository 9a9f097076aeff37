package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmbeddedCatalog(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, CategorySlugs, c.Slugs())
	assert.Equal(t, "1.1", c.CurrentVersion())
	assert.Equal(t, 347, c.Size())
	assert.Equal(t, 332, c.VersionSize("1.0"))
	assert.Equal(t, 15, c.VersionSize("1.1"))

	trailblazer, ok := c.Category("trailblazer")
	require.True(t, ok)
	assert.Equal(t, "Trailblazer", trailblazer.Name)

	first := trailblazer.Achievements()[0]
	assert.Equal(t, "Ever-Burning Amber", first.Name.Key())
	assert.True(t, first.Secret)
	assert.Equal(t, "1.0", first.Version)
}

func TestLoadEmbeddedCatalogVariants(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	achievement, ok := c.Find("the-memories-we-share", "The Lifecycle of Software Objects")
	require.True(t, ok)
	assert.True(t, achievement.Name.IsVariant())
	assert.Equal(t, []string{"For a Breath I Tarry", "The Lifecycle of Software Objects"}, achievement.Name.Values())
	assert.Len(t, achievement.Clue, 2)

	byKey, ok := c.Find("the-memories-we-share", "For a Breath I Tarry,The Lifecycle of Software Objects")
	require.True(t, ok)
	assert.Equal(t, achievement.Name.Key(), byKey.Name.Key())
}

func TestLoadEmbeddedCatalogRendersMarkup(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	var found bool
	for _, category := range c.Categories() {
		for _, achievement := range category.Achievements() {
			for i, clue := range achievement.Clue {
				if clue == "Collect all of The Adventurous Moles" {
					found = true
					assert.Contains(t, achievement.ClueHTML[i], `<span class="clue-italic">The Adventurous Moles</span>`)
				}
			}
		}
	}
	assert.True(t, found, "expected markup clue in catalog")
}

func TestParseRejectsClueParityMismatch(t *testing.T) {
	_, err := Parse([]byte(`
categories:
  - name: Moment of Joy
    achievements:
      - name: [A, B]
        version: "1.0"
        clue: [only one]
`))
	require.Error(t, err)
}

func TestParseRejectsDuplicateVariant(t *testing.T) {
	_, err := Parse([]byte(`
categories:
  - name: Moment of Joy
    achievements:
      - name: [A, A]
        version: "1.0"
`))
	require.Error(t, err)
}

func TestParseRejectsBadVersion(t *testing.T) {
	_, err := Parse([]byte(`
categories:
  - name: Moment of Joy
    achievements:
      - name: A
        version: "one"
`))
	require.Error(t, err)
}

func TestParseDerivesCurrentVersion(t *testing.T) {
	c, err := Parse([]byte(`
categories:
  - name: Moment of Joy
    achievements:
      - name: A
        version: "1.2"
      - name: B
        version: "1.10"
      - name: C
        version: "1.9"
`))
	require.NoError(t, err)
	assert.Equal(t, "1.10", c.CurrentVersion())
	assert.Equal(t, "moment-of-joy", c.Slugs()[0])
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Trailblazer":             "trailblazer",
		"Moment of Joy":           "moment-of-joy",
		"The Rail Unto the Stars": "the-rail-unto-the-stars",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestVariantsValidation(t *testing.T) {
	_, err := Variants("only")
	assert.Error(t, err)

	name, err := Variants("A", "B")
	require.NoError(t, err)
	assert.True(t, name.Matches("A,B"))
	assert.True(t, name.Matches("B"))
	assert.False(t, name.Matches("C"))

	single, err := Single("Solo")
	require.NoError(t, err)
	assert.False(t, single.IsVariant())
	assert.Equal(t, "Solo", single.Key())
}

func TestRenderClueLinkAndEscaping(t *testing.T) {
	out := RenderClue(`Read <b>the</b> wiki`, Markup{
		Link: []Link{{Keyword: "wiki", URL: "https://example.com/wiki"}},
	})
	assert.Contains(t, out, `href="https://example.com/wiki"`)
	assert.Contains(t, out, `class="clue-link"`)
	assert.NotContains(t, out, "<b>")

	blocked := RenderClue("Click here", Markup{
		Link: []Link{{Keyword: "here", URL: "javascript:alert(1)"}},
	})
	assert.NotContains(t, blocked, "javascript:")
}
