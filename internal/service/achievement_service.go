package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/startrail/internal/catalog"
	"github.com/startrail/internal/db"
)

const (
	// VariantNone clears the choice of a multi-variant achievement.
	VariantNone = "none"

	defaultLatestLimit = 10
	maxLatestLimit     = 50
)

// AchievementService joins the static catalog with a session's completion rows.
type AchievementService struct {
	catalog *catalog.Catalog
	store   CompletionStore
	now     func() time.Time
}

// NewAchievementService 构造 AchievementService
func NewAchievementService(c *catalog.Catalog, store CompletionStore) *AchievementService {
	return &AchievementService{catalog: c, store: store, now: time.Now}
}

// WithClock 允许在测试中固定当前时间
func (s *AchievementService) WithClock(now func() time.Time) *AchievementService {
	if now == nil {
		return s
	}
	s.now = now
	return s
}

// Catalog exposes the catalog the service was built with.
func (s *AchievementService) Catalog() *catalog.Catalog {
	return s.catalog
}

// AchievementItem is one catalog entry annotated with the session's completion state.
type AchievementItem struct {
	Name       string      `json:"name"`
	Variants   []string    `json:"variants,omitempty"`
	Clue       []string    `json:"clue,omitempty"`
	ClueHTML   []string    `json:"clueHtml,omitempty"`
	ClueHidden bool        `json:"clueHidden,omitempty"`
	Version    string      `json:"version"`
	IsSecret   bool        `json:"isSecret"`
	Path       string      `json:"path,omitempty"`
	AchievedAt *AchievedAt `json:"achievedAt,omitempty"`
}

// Achieved reports whether the session completed the achievement.
func (i AchievementItem) Achieved() bool {
	return i.AchievedAt != nil
}

// AchievedEntry is one line of a category's completion log.
type AchievedEntry struct {
	Name       string     `json:"name"`
	AchievedAt AchievedAt `json:"achievedAt"`
}

// CategoryView is the merged read model of one category.
type CategoryView struct {
	Slug         string            `json:"slug"`
	CategoryName string            `json:"categoryName"`
	Achievements []AchievementItem `json:"achievements"`
	Achieved     []AchievedEntry   `json:"achieved"`
}

// ListCategory merges the category's definitions with the session's rows.
// An empty sessionID is treated as a session without completions.
func (s *AchievementService) ListCategory(ctx context.Context, sessionID, slug string, sortIncompleteFirst bool) (*CategoryView, error) {
	category, ok := s.catalog.Category(slug)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, slug)
	}

	var rows []db.Achievement
	if sessionID != "" {
		var err error
		rows, err = s.store.ListByCategory(ctx, sessionID, slug)
		if err != nil {
			return nil, err
		}
	}

	now := s.now()
	done := make(map[string]db.Achievement, len(rows))
	achieved := make([]AchievedEntry, 0, len(rows))
	for _, row := range rows {
		if _, seen := done[row.Name]; !seen {
			done[row.Name] = row
		}
		achieved = append(achieved, AchievedEntry{
			Name:       row.Name,
			AchievedAt: newAchievedAt(now, row.CreatedAt),
		})
	}

	definitions := category.Achievements()
	items := make([]AchievementItem, 0, len(definitions))
	for _, definition := range definitions {
		item := AchievementItem{
			Name:     definition.Name.Key(),
			Clue:     definition.Clue,
			ClueHTML: definition.ClueHTML,
			Version:  definition.Version,
			IsSecret: definition.Secret,
		}
		if definition.Name.IsVariant() {
			item.Variants = definition.Name.Values()
		}

		for _, name := range definition.Name.Values() {
			row, ok := done[name]
			if !ok {
				continue
			}
			at := newAchievedAt(now, row.CreatedAt)
			item.AchievedAt = &at
			if definition.Name.IsVariant() {
				item.Path = name
			}
			break
		}

		items = append(items, item)
	}

	if sortIncompleteFirst {
		partitionIncompleteFirst(items)
	}

	return &CategoryView{
		Slug:         category.Slug,
		CategoryName: category.Name,
		Achievements: items,
		Achieved:     achieved,
	}, nil
}

// partitionIncompleteFirst moves completed items behind incomplete ones without
// reordering items that share a completion state.
func partitionIncompleteFirst(items []AchievementItem) {
	slices.SortStableFunc(items, func(a, b AchievementItem) int {
		return boolRank(a.Achieved()) - boolRank(b.Achieved())
	})
}

func boolRank(v bool) int {
	if v {
		return 1
	}
	return 0
}

// CategoryProgress is one navigation entry with its badge counts.
type CategoryProgress struct {
	Name          string `json:"name"`
	Slug          string `json:"slug"`
	Size          int    `json:"size"`
	AchievedCount int    `json:"achievedCount"`
}

// ProgressSummary aggregates completion counts across categories.
type ProgressSummary struct {
	Categories      []CategoryProgress `json:"categories"`
	AchievedTotal   int                `json:"achievedTotal"`
	AchievementSize int                `json:"achievementSize"`
}

// Percent returns overall completion in [0, 100].
func (p ProgressSummary) Percent() float64 {
	if p.AchievementSize == 0 {
		return 0
	}
	return float64(p.AchievedTotal) / float64(p.AchievementSize) * 100
}

// SummarizeProgress counts the session's completions per category.
func (s *AchievementService) SummarizeProgress(ctx context.Context, sessionID string) (*ProgressSummary, error) {
	counts := map[string]int{}
	if sessionID != "" {
		var err error
		counts, err = s.store.CountByCategory(ctx, sessionID)
		if err != nil {
			return nil, err
		}
	}

	categories := s.catalog.Categories()
	summary := &ProgressSummary{
		Categories:      make([]CategoryProgress, 0, len(categories)),
		AchievementSize: s.catalog.Size(),
	}
	for _, count := range counts {
		summary.AchievedTotal += count
	}
	for _, category := range categories {
		summary.Categories = append(summary.Categories, CategoryProgress{
			Name:          category.Name,
			Slug:          category.Slug,
			Size:          category.Size(),
			AchievedCount: counts[category.Slug],
		})
	}

	return summary, nil
}

// ComputeRank places the session among every session with at least one completion.
func (s *AchievementService) ComputeRank(ctx context.Context, sessionID string) (*RankResult, error) {
	totalSessions, err := s.store.CountSessions(ctx)
	if err != nil {
		return nil, err
	}

	achieved := 0
	if sessionID != "" {
		achieved, err = s.store.CountSession(ctx, sessionID)
		if err != nil {
			return nil, err
		}
	}

	ahead, err := s.store.CountSessionsAbove(ctx, achieved)
	if err != nil {
		return nil, err
	}

	result := newRankResult(achieved, ahead+1, totalSessions)
	return &result, nil
}

// FeedEntry is one recently completed achievement across all categories.
type FeedEntry struct {
	Name           string     `json:"name"`
	Slug           string     `json:"slug"`
	Category       string     `json:"category"`
	Version        string     `json:"version"`
	IsSecret       bool       `json:"isSecret"`
	CurrentVersion bool       `json:"currentVersion"`
	AchievedAt     AchievedAt `json:"achievedAt"`
}

// LatestCompletions returns the most recent completions, newest first.
// Rows that no longer match the catalog are left out.
func (s *AchievementService) LatestCompletions(ctx context.Context, sessionID string, limit int) ([]FeedEntry, error) {
	if limit <= 0 {
		limit = defaultLatestLimit
	}
	if limit > maxLatestLimit {
		limit = maxLatestLimit
	}
	if sessionID == "" {
		return []FeedEntry{}, nil
	}

	rows, err := s.store.Latest(ctx, sessionID, limit)
	if err != nil {
		return nil, err
	}

	now := s.now()
	entries := make([]FeedEntry, 0, len(rows))
	for _, row := range rows {
		category, ok := s.catalog.Category(row.Category)
		if !ok {
			continue
		}
		definition, ok := category.Find(row.Name)
		if !ok {
			continue
		}
		entries = append(entries, FeedEntry{
			Name:           row.Name,
			Slug:           category.Slug,
			Category:       category.Name,
			Version:        definition.Version,
			IsSecret:       definition.Secret,
			CurrentVersion: definition.Version == s.catalog.CurrentVersion(),
			AchievedAt:     newAchievedAt(now, row.CreatedAt),
		})
	}

	return entries, nil
}

// VersionProgress is the session's progress on the newest content version.
type VersionProgress struct {
	Num      string `json:"num"`
	Achieved int    `json:"achieved"`
	Size     int    `json:"size"`
}

// Overview is the home page read model.
type Overview struct {
	Rank           RankResult      `json:"rank"`
	SecretAchieved int             `json:"secretAchieved"`
	CurrentVersion VersionProgress `json:"currentVersion"`
	Latest         []FeedEntry     `json:"latestAchieved"`
}

// Overview combines rank, the recent feed and the secret/current-version counters.
func (s *AchievementService) Overview(ctx context.Context, sessionID string) (*Overview, error) {
	rank, err := s.ComputeRank(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	latest, err := s.LatestCompletions(ctx, sessionID, defaultLatestLimit)
	if err != nil {
		return nil, err
	}

	var rows []db.Achievement
	if sessionID != "" {
		rows, err = s.store.ListBySession(ctx, sessionID)
		if err != nil {
			return nil, err
		}
	}

	current := s.catalog.CurrentVersion()
	overview := &Overview{
		Rank:   *rank,
		Latest: latest,
		CurrentVersion: VersionProgress{
			Num:  current,
			Size: s.catalog.VersionSize(current),
		},
	}
	for _, row := range rows {
		definition, ok := s.catalog.Find(row.Category, row.Name)
		if !ok {
			continue
		}
		if definition.Secret {
			overview.SecretAchieved++
		}
		if definition.Version == current {
			overview.CurrentVersion.Achieved++
		}
	}

	return overview, nil
}

// CompletionInput describes one toggle from the checklist.
type CompletionInput struct {
	SessionID string
	Category  string
	Name      string
	Achieved  bool
	// Variant selects the outcome of a multi-variant achievement; VariantNone clears it.
	Variant string
}

// SetCompletion applies a toggle. Repeating the same toggle is a no-op.
func (s *AchievementService) SetCompletion(ctx context.Context, input CompletionInput) error {
	sessionID := strings.TrimSpace(input.SessionID)
	name := strings.TrimSpace(input.Name)
	if sessionID == "" {
		return fmt.Errorf("%w: session id is required", ErrMalformedInput)
	}
	if name == "" {
		return fmt.Errorf("%w: achievement name is required", ErrMalformedInput)
	}

	category, ok := s.catalog.Category(input.Category)
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, input.Category)
	}
	definition, ok := category.Find(name)
	if !ok {
		return fmt.Errorf("%w: %q in %s", ErrUnknownAchievement, name, category.Slug)
	}

	if !definition.Name.IsVariant() {
		if input.Achieved {
			return s.store.Insert(ctx, sessionID, category.Slug, definition.Name.Key())
		}
		return s.store.Delete(ctx, sessionID, category.Slug, definition.Name.Key())
	}

	variant := strings.TrimSpace(input.Variant)
	if variant == "" && !input.Achieved {
		variant = VariantNone
	}

	switch {
	case variant == VariantNone:
		return s.store.Delete(ctx, sessionID, category.Slug, definition.Name.Values()...)
	case definition.Name.Has(variant):
		return s.store.ReplaceVariant(ctx, sessionID, category.Slug, definition.Name.Key(), definition.Name.Values(), variant)
	default:
		return fmt.Errorf("%w: variant %q is not an outcome of %q", ErrMalformedInput, variant, definition.Name.Key())
	}
}
