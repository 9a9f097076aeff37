package main

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/startrail/internal/catalog"
	"github.com/startrail/internal/db"
	"github.com/startrail/internal/service"
)

func newTestSeeder(t *testing.T) (*completionSeeder, *service.GormCompletionStore) {
	t.Helper()

	gdb, err := db.Open(db.Options{
		Path:   fmt.Sprintf("file:seed-%d?mode=memory&cache=shared", time.Now().UnixNano()),
		Silent: true,
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})

	achievements := catalog.MustLoad()
	store := service.NewGormCompletionStore(gdb)
	n := 0
	return &completionSeeder{
		catalog: achievements,
		svc:     service.NewAchievementService(achievements, store),
		rng:     rand.New(rand.NewSource(7)),
		newID: func() string {
			n++
			return fmt.Sprintf("seed-session-%d", n)
		},
	}, store
}

func TestSeedCreatesRankableSessions(t *testing.T) {
	seeder, store := newTestSeeder(t)
	ctx := context.Background()

	created, err := seeder.Seed(ctx, 5, 20, []string{"the-memories-we-share", "moment-of-joy"})
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	sessions, err := store.CountSessions(ctx)
	if err != nil {
		t.Fatalf("count sessions failed: %v", err)
	}
	if sessions != 5 {
		t.Fatalf("expected 5 sessions, got %d", sessions)
	}

	total := 0
	for i := 1; i <= 5; i++ {
		n, err := store.CountSession(ctx, fmt.Sprintf("seed-session-%d", i))
		if err != nil {
			t.Fatalf("count session failed: %v", err)
		}
		if n < 1 || n > 20 {
			t.Fatalf("session %d has %d completions, want 1..20", i, n)
		}
		total += n
	}
	if total != created {
		t.Fatalf("expected %d stored rows, got %d", created, total)
	}
}

func TestSeedRejectsUnknownCategory(t *testing.T) {
	seeder, _ := newTestSeeder(t)

	if _, err := seeder.Seed(context.Background(), 1, 5, []string{"nope"}); err == nil {
		t.Fatal("expected unknown category to fail")
	}
}

func TestSplitCSV(t *testing.T) {
	got := splitCSV(" trailblazer, ,moment-of-joy ")
	if len(got) != 2 || got[0] != "trailblazer" || got[1] != "moment-of-joy" {
		t.Fatalf("unexpected split result: %v", got)
	}
}
