package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/startrail/internal/catalog"
	"github.com/startrail/internal/db"
	"github.com/startrail/internal/service"
)

// 生成随机完成记录，便于本地检查排名与百分位
func main() {
	var (
		driver     string
		dbPath     string
		dsn        string
		sessions   int
		maxPerUser int
		seed       int64
		categories string
	)
	flag.StringVar(&driver, "driver", "sqlite", "database driver (sqlite or postgres)")
	flag.StringVar(&dbPath, "db", "startrail.db", "sqlite db path")
	flag.StringVar(&dsn, "dsn", "", "postgres connection string")
	flag.IntVar(&sessions, "sessions", 50, "number of sessions to create")
	flag.IntVar(&maxPerUser, "max", 120, "maximum completions per session")
	flag.Int64Var(&seed, "seed", 1, "random seed")
	flag.StringVar(&categories, "categories", "", "comma-separated category slugs (default: all)")
	flag.Parse()

	if err := db.Init(db.Options{Driver: driver, Path: dbPath, DSN: dsn}); err != nil {
		fmt.Fprintf(os.Stderr, "init db: %v\n", err)
		os.Exit(1)
	}

	achievements := catalog.MustLoad()
	svc := service.NewAchievementService(achievements, service.NewGormCompletionStore(db.DB))

	slugs := splitCSV(categories)
	if len(slugs) == 0 {
		slugs = achievements.Slugs()
	}

	seeder := &completionSeeder{
		catalog: achievements,
		svc:     svc,
		rng:     rand.New(rand.NewSource(seed)),
		newID:   uuid.NewString,
	}
	created, err := seeder.Seed(context.Background(), sessions, maxPerUser, slugs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed completions: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("done: created %d completions across %d sessions\n", created, sessions)
}

type completionSeeder struct {
	catalog *catalog.Catalog
	svc     *service.AchievementService
	rng     *rand.Rand
	newID   func() string
}

// Seed 为每个新会话随机勾选 1..maxPerUser 个成就，多结局成就随机选一个分支
func (s *completionSeeder) Seed(ctx context.Context, sessions, maxPerUser int, slugs []string) (int, error) {
	var pool []catalog.Achievement
	for _, slug := range slugs {
		category, ok := s.catalog.Category(slug)
		if !ok {
			return 0, fmt.Errorf("unknown category %q", slug)
		}
		pool = append(pool, category.Achievements()...)
	}
	if len(pool) == 0 || sessions <= 0 || maxPerUser <= 0 {
		return 0, nil
	}

	created := 0
	for i := 0; i < sessions; i++ {
		sessionID := s.newID()
		count := 1 + s.rng.Intn(min(maxPerUser, len(pool)))

		for _, idx := range s.rng.Perm(len(pool))[:count] {
			achievement := pool[idx]
			input := service.CompletionInput{
				SessionID: sessionID,
				Category:  achievement.Category,
				Name:      achievement.Name.Key(),
				Achieved:  true,
			}
			if achievement.Name.IsVariant() {
				variants := achievement.Name.Values()
				input.Variant = variants[s.rng.Intn(len(variants))]
			}
			if err := s.svc.SetCompletion(ctx, input); err != nil {
				return created, err
			}
			created++
		}
	}
	return created, nil
}

func splitCSV(value string) []string {
	raw := strings.Split(value, ",")
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		trimmed := strings.TrimSpace(item)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}
