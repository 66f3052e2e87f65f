package domain

import (
	"testing"
	"time"
)

func TestCriteria_Zero_SatisfiedByZeroProgress(t *testing.T) {
	var cr Criteria
	if !cr.Satisfied(Progress{}) {
		t.Fatalf("zero criteria should be satisfied by zero progress")
	}
}

func TestCriteria_Thresholds(t *testing.T) {
	cr := Criteria{MinArticles: 5, MinComments: 2}

	if cr.Satisfied(Progress{ArticlesCount: 4, CommentsCount: 2}) {
		t.Fatalf("articles below threshold should not satisfy")
	}
	if cr.Satisfied(Progress{ArticlesCount: 5, CommentsCount: 1}) {
		t.Fatalf("comments below threshold should not satisfy")
	}
	if !cr.Satisfied(Progress{ArticlesCount: 5, CommentsCount: 2}) {
		t.Fatalf("exact thresholds should satisfy")
	}
}

func TestCriteria_RequireProfile(t *testing.T) {
	cr := Criteria{RequireProfile: true}
	if cr.Satisfied(Progress{}) {
		t.Fatalf("incomplete profile should not satisfy")
	}
	if !cr.Satisfied(Progress{ProfileComplete: true}) {
		t.Fatalf("complete profile should satisfy")
	}
}

// Once satisfied, a criteria must stay satisfied for any component-wise
// larger progress. The evaluator's lock-free reads depend on this.
func TestCriteria_Monotonic(t *testing.T) {
	cr := Criteria{
		MinArticles:    3,
		MinComments:    1,
		MinReactions:   2,
		MinBookmarks:   1,
		MinStreakDays:  2,
		RequireProfile: true,
	}
	base := Progress{
		ArticlesCount:   3,
		CommentsCount:   1,
		ReactionsGiven:  2,
		BookmarksCount:  1,
		StreakDays:      2,
		ProfileComplete: true,
	}
	if !cr.Satisfied(base) {
		t.Fatalf("base progress should satisfy")
	}

	grown := []Progress{
		{ArticlesCount: 100, CommentsCount: 1, ReactionsGiven: 2, BookmarksCount: 1, StreakDays: 2, ProfileComplete: true},
		{ArticlesCount: 3, CommentsCount: 50, ReactionsGiven: 2, BookmarksCount: 1, StreakDays: 2, ProfileComplete: true},
		{ArticlesCount: 4, CommentsCount: 2, ReactionsGiven: 3, BookmarksCount: 2, StreakDays: 30, ProfileComplete: true},
	}
	for i, p := range grown {
		if !cr.Satisfied(p) {
			t.Fatalf("grown[%d]: criteria regressed for larger progress %+v", i, p)
		}
	}
}

func TestProgressDelta_IsZero(t *testing.T) {
	if !(ProgressDelta{}).IsZero() {
		t.Fatalf("empty delta should be zero")
	}
	if (ProgressDelta{ArticlesCount: 1}).IsZero() {
		t.Fatalf("counter delta should not be zero")
	}
	f := false
	if (ProgressDelta{ProfileComplete: &f}).IsZero() {
		t.Fatalf("profile overwrite should not be zero even when false")
	}
	n := 0
	if (ProgressDelta{StreakDays: &n}).IsZero() {
		t.Fatalf("streak overwrite should not be zero even when 0")
	}
}

func TestTableNames(t *testing.T) {
	if got := (Progress{}).TableName(); got != "user_progress" {
		t.Fatalf("Progress table = %q", got)
	}
	if got := (UnlockRecord{}).TableName(); got != "unlock_records" {
		t.Fatalf("UnlockRecord table = %q", got)
	}
	if got := (Idempotency{}).TableName(); got != "idempotency" {
		t.Fatalf("Idempotency table = %q", got)
	}
}

func TestUnlockedBadge_EmbedsBadge(t *testing.T) {
	ub := UnlockedBadge{
		Badge:      Badge{ID: "first-article", Points: 10},
		UnlockedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	if ub.ID != "first-article" || ub.Points != 10 {
		t.Fatalf("embedded badge fields not promoted: %+v", ub)
	}
}
