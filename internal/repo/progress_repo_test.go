package repo

import (
	"context"
	"fmt"
	"sync"
	"testing"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/menucraft/go-badge-backend/internal/domain"
)

func newProgressDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:progressrepo_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.Progress{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func TestGetProgress_AbsentUser_ZeroValued(t *testing.T) {
	db := newProgressDB(t)

	p, err := GetProgress(context.Background(), db, "never-seen")
	if err != nil {
		t.Fatalf("GetProgress error: %v", err)
	}
	if p.UserID != "never-seen" {
		t.Fatalf("UserID = %q", p.UserID)
	}
	if p.ArticlesCount != 0 || p.CommentsCount != 0 || p.ReactionsGiven != 0 ||
		p.BookmarksCount != 0 || p.StreakDays != 0 || p.ProfileComplete {
		t.Fatalf("expected zero-valued progress, got %+v", p)
	}
}

func TestGetProgress_Error_NoTable(t *testing.T) {
	dsn := fmt.Sprintf("file:progressrepo_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if _, err := GetProgress(context.Background(), db, "u1"); err == nil {
		t.Fatalf("expected error when user_progress table is missing")
	}
}

func TestApplyProgressDelta_CreatesRow(t *testing.T) {
	db := newProgressDB(t)
	ctx := context.Background()

	p, err := ApplyProgressDelta(ctx, db, "u1", domain.ProgressDelta{ArticlesCount: 1})
	if err != nil {
		t.Fatalf("ApplyProgressDelta error: %v", err)
	}
	if p.ArticlesCount != 1 {
		t.Fatalf("ArticlesCount = %d, want 1", p.ArticlesCount)
	}
	if p.LastUpdatedAt.IsZero() {
		t.Fatalf("LastUpdatedAt not set")
	}
}

func TestApplyProgressDelta_CountersAreAdditive(t *testing.T) {
	db := newProgressDB(t)
	ctx := context.Background()

	if _, err := ApplyProgressDelta(ctx, db, "u1", domain.ProgressDelta{ArticlesCount: 2, CommentsCount: 1}); err != nil {
		t.Fatalf("first apply: %v", err)
	}
	p, err := ApplyProgressDelta(ctx, db, "u1", domain.ProgressDelta{ArticlesCount: 3, ReactionsGiven: 5})
	if err != nil {
		t.Fatalf("second apply: %v", err)
	}
	if p.ArticlesCount != 5 || p.CommentsCount != 1 || p.ReactionsGiven != 5 {
		t.Fatalf("unexpected counters: %+v", p)
	}
}

func TestApplyProgressDelta_OverwriteFields(t *testing.T) {
	db := newProgressDB(t)
	ctx := context.Background()

	done := true
	streak := 7
	if _, err := ApplyProgressDelta(ctx, db, "u1", domain.ProgressDelta{ProfileComplete: &done, StreakDays: &streak}); err != nil {
		t.Fatalf("apply: %v", err)
	}

	// Overwrite, not add: a later shorter streak replaces the stored value.
	streak = 3
	p, err := ApplyProgressDelta(ctx, db, "u1", domain.ProgressDelta{StreakDays: &streak})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if p.StreakDays != 3 {
		t.Fatalf("StreakDays = %d, want 3 (replace semantics)", p.StreakDays)
	}
	if !p.ProfileComplete {
		t.Fatalf("ProfileComplete reset by an unrelated delta")
	}
}

func TestApplyProgressDelta_NilPointersLeaveFieldsAlone(t *testing.T) {
	db := newProgressDB(t)
	ctx := context.Background()

	done := true
	streak := 5
	if _, err := ApplyProgressDelta(ctx, db, "u1", domain.ProgressDelta{ProfileComplete: &done, StreakDays: &streak}); err != nil {
		t.Fatalf("seed apply: %v", err)
	}
	p, err := ApplyProgressDelta(ctx, db, "u1", domain.ProgressDelta{ArticlesCount: 1})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !p.ProfileComplete || p.StreakDays != 5 {
		t.Fatalf("counter-only delta touched overwrite fields: %+v", p)
	}
}

// Concurrent applies must not lose increments: the arithmetic runs inside the
// database, not on a stale in-memory snapshot.
func TestApplyProgressDelta_ConcurrentIncrements(t *testing.T) {
	db := newProgressDB(t)
	ctx := context.Background()

	const workers = 8
	const perWorker = 5

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				if _, err := ApplyProgressDelta(ctx, db, "u1", domain.ProgressDelta{CommentsCount: 1}); err != nil {
					t.Errorf("apply: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	p, err := GetProgress(ctx, db, "u1")
	if err != nil {
		t.Fatalf("GetProgress: %v", err)
	}
	if p.CommentsCount != workers*perWorker {
		t.Fatalf("CommentsCount = %d, want %d (lost increments)", p.CommentsCount, workers*perWorker)
	}
}
