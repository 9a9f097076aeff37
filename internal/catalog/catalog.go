package catalog

import (
	_ "embed"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed data/achievements.yaml
var defaultData []byte

// CategorySlugs is the closed set of category identifiers, in display order.
var CategorySlugs = []string{
	"trailblazer",
	"the-rail-unto-the-stars",
	"eager-for-battle",
	"vestige-of-luminflux",
	"universe-in-a-nutshell",
	"glory-of-the-unyielding",
	"moment-of-joy",
	"the-memories-we-share",
	"fathom-the-unfathomable",
}

var versionPattern = regexp.MustCompile(`^\d+\.\d+$`)

// Achievement is one static achievement definition.
type Achievement struct {
	Name     Name
	Category string
	Version  string
	// Clue holds the raw clue text: empty, or one entry per name in Name.
	Clue     []string
	ClueHTML []string
	Secret   bool
}

// NewAchievement validates the name/clue parity and version format.
func NewAchievement(name Name, category, version string, clue []string, secret bool) (Achievement, error) {
	if name.Len() == 0 {
		return Achievement{}, fmt.Errorf("achievement in %s has no name", category)
	}
	if !versionPattern.MatchString(version) {
		return Achievement{}, fmt.Errorf("achievement %q: invalid version %q", name, version)
	}
	if len(clue) != 0 && len(clue) != name.Len() {
		return Achievement{}, fmt.Errorf("achievement %q: %d clues for %d names", name, len(clue), name.Len())
	}

	return Achievement{
		Name:     name,
		Category: category,
		Version:  version,
		Clue:     slices.Clone(clue),
		Secret:   secret,
	}, nil
}

// Category groups achievements under one display name.
type Category struct {
	Name         string
	Slug         string
	achievements []Achievement
}

// Achievements returns the definitions in authored order.
func (c Category) Achievements() []Achievement {
	return slices.Clone(c.achievements)
}

// Size is the number of achievements in the category.
func (c Category) Size() int {
	return len(c.achievements)
}

// Find returns the achievement addressed by name (key, single name or any variant).
func (c Category) Find(name string) (Achievement, bool) {
	for _, achievement := range c.achievements {
		if achievement.Name.Matches(name) {
			return achievement, true
		}
	}
	return Achievement{}, false
}

// Catalog is the immutable achievement table.
type Catalog struct {
	currentVersion string
	categories     []Category
	bySlug         map[string]int
	versionSize    map[string]int
}

type rawCatalog struct {
	CurrentVersion string        `yaml:"current_version"`
	Categories     []rawCategory `yaml:"categories"`
}

type rawCategory struct {
	Name         string           `yaml:"name"`
	Achievements []rawAchievement `yaml:"achievements"`
}

type rawAchievement struct {
	Name    yaml.Node `yaml:"name"`
	Version string    `yaml:"version"`
	Secret  bool      `yaml:"secret"`
	Clue    yaml.Node `yaml:"clue"`
	Markup  *Markup   `yaml:"markup"`
}

// Load parses the embedded catalog and checks it carries exactly the known categories.
func Load() (*Catalog, error) {
	c, err := Parse(defaultData)
	if err != nil {
		return nil, err
	}
	if !slices.Equal(c.Slugs(), CategorySlugs) {
		return nil, fmt.Errorf("catalog categories %v do not match %v", c.Slugs(), CategorySlugs)
	}
	return c, nil
}

// MustLoad is Load for program start-up.
func MustLoad() *Catalog {
	c, err := Load()
	if err != nil {
		panic(err)
	}
	return c
}

// Parse builds a catalog from YAML. When current_version is omitted the highest
// version found among the achievements is used.
func Parse(data []byte) (*Catalog, error) {
	var raw rawCatalog
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if len(raw.Categories) == 0 {
		return nil, fmt.Errorf("catalog has no categories")
	}

	c := &Catalog{
		currentVersion: strings.TrimSpace(raw.CurrentVersion),
		bySlug:         make(map[string]int, len(raw.Categories)),
		versionSize:    make(map[string]int),
	}

	for _, rc := range raw.Categories {
		category, err := buildCategory(rc)
		if err != nil {
			return nil, err
		}
		if _, dup := c.bySlug[category.Slug]; dup {
			return nil, fmt.Errorf("duplicate category %q", category.Slug)
		}
		c.bySlug[category.Slug] = len(c.categories)
		c.categories = append(c.categories, category)
		for _, achievement := range category.achievements {
			c.versionSize[achievement.Version]++
		}
	}

	if c.currentVersion == "" {
		for version := range c.versionSize {
			if c.currentVersion == "" || compareVersions(version, c.currentVersion) > 0 {
				c.currentVersion = version
			}
		}
	} else if !versionPattern.MatchString(c.currentVersion) {
		return nil, fmt.Errorf("invalid current_version %q", c.currentVersion)
	}

	return c, nil
}

func buildCategory(rc rawCategory) (Category, error) {
	name := strings.TrimSpace(rc.Name)
	if name == "" {
		return Category{}, fmt.Errorf("category without a name")
	}

	category := Category{Name: name, Slug: Slugify(name)}
	seen := make(map[string]struct{})

	for i, ra := range rc.Achievements {
		names, err := stringOrList(&ra.Name)
		if err != nil {
			return Category{}, fmt.Errorf("%s[%d] name: %w", category.Slug, i, err)
		}
		clues, err := stringOrList(&ra.Clue)
		if err != nil {
			return Category{}, fmt.Errorf("%s[%d] clue: %w", category.Slug, i, err)
		}

		var title Name
		switch len(names) {
		case 0:
			return Category{}, fmt.Errorf("%s[%d]: missing name", category.Slug, i)
		case 1:
			title, err = Single(names[0])
		default:
			title, err = Variants(names...)
		}
		if err != nil {
			return Category{}, fmt.Errorf("%s[%d]: %w", category.Slug, i, err)
		}

		for _, n := range names {
			if _, dup := seen[n]; dup {
				return Category{}, fmt.Errorf("%s: duplicate achievement name %q", category.Slug, n)
			}
			seen[n] = struct{}{}
		}

		achievement, err := NewAchievement(title, category.Slug, strings.TrimSpace(ra.Version), clues, ra.Secret)
		if err != nil {
			return Category{}, err
		}

		var markup Markup
		if ra.Markup != nil {
			markup = *ra.Markup
		}
		for _, clue := range achievement.Clue {
			achievement.ClueHTML = append(achievement.ClueHTML, RenderClue(clue, markup))
		}

		category.achievements = append(category.achievements, achievement)
	}

	return category, nil
}

func stringOrList(node *yaml.Node) ([]string, error) {
	switch node.Kind {
	case 0:
		return nil, nil
	case yaml.ScalarNode:
		return []string{node.Value}, nil
	case yaml.SequenceNode:
		var values []string
		if err := node.Decode(&values); err != nil {
			return nil, err
		}
		return values, nil
	default:
		return nil, fmt.Errorf("expected string or list at line %d", node.Line)
	}
}

// Slugify lower-cases a display name and joins its words with hyphens.
func Slugify(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "-")
}

// CurrentVersion is the newest game-content version the catalog declares.
func (c *Catalog) CurrentVersion() string {
	return c.currentVersion
}

// VersionSize counts achievements introduced in version.
func (c *Catalog) VersionSize(version string) int {
	return c.versionSize[version]
}

// Size counts every achievement in the catalog.
func (c *Catalog) Size() int {
	total := 0
	for _, category := range c.categories {
		total += category.Size()
	}
	return total
}

// Categories returns all categories in display order.
func (c *Catalog) Categories() []Category {
	return slices.Clone(c.categories)
}

// Slugs returns category identifiers in display order.
func (c *Catalog) Slugs() []string {
	slugs := make([]string, 0, len(c.categories))
	for _, category := range c.categories {
		slugs = append(slugs, category.Slug)
	}
	return slugs
}

// Category looks a category up by slug.
func (c *Catalog) Category(slug string) (Category, bool) {
	idx, ok := c.bySlug[slug]
	if !ok {
		return Category{}, false
	}
	return c.categories[idx], true
}

// Find resolves an achievement inside a category.
func (c *Catalog) Find(slug, name string) (Achievement, bool) {
	category, ok := c.Category(slug)
	if !ok {
		return Achievement{}, false
	}
	return category.Find(name)
}

func compareVersions(a, b string) int {
	am, an := splitVersion(a)
	bm, bn := splitVersion(b)
	if am != bm {
		return am - bm
	}
	return an - bn
}

func splitVersion(v string) (int, int) {
	major, minor, _ := strings.Cut(v, ".")
	ma, _ := strconv.Atoi(major)
	mi, _ := strconv.Atoi(minor)
	return ma, mi
}
