// Package repo implements the data persistence layer for the badge engine,
// backed by GORM. This file provides repository helpers for the per-user
// progress counters that badge criteria are evaluated against.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/menucraft/go-badge-backend/internal/domain"
)

// GetProgress returns the progress row for userID. An absent user is not an
// error: it resolves to a zero-valued Progress, matching the implicit-create
// semantics of the store (a user "exists" with all counters at zero until the
// first apply writes a row).
func GetProgress(ctx context.Context, db *gorm.DB, userID string) (domain.Progress, error) {
	var p domain.Progress
	err := db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Progress{UserID: userID}, nil
	}
	if err != nil {
		return domain.Progress{}, err
	}
	return p, nil
}

// ApplyProgressDelta applies one delta to a user's progress and returns the
// updated row. The write is a single upsert: the insert covers first-time
// users, and on conflict counter columns are bumped with `column + ?`
// arithmetic evaluated inside the database. Two concurrent applies therefore
// both land; neither can overwrite the other's increment. ProfileComplete and
// StreakDays are assigned (replace semantics), not added.
func ApplyProgressDelta(ctx context.Context, db *gorm.DB, userID string, d domain.ProgressDelta) (domain.Progress, error) {
	now := time.Now().UTC()

	row := domain.Progress{
		UserID:         userID,
		ArticlesCount:  d.ArticlesCount,
		CommentsCount:  d.CommentsCount,
		ReactionsGiven: d.ReactionsGiven,
		BookmarksCount: d.BookmarksCount,
		LastUpdatedAt:  now,
	}
	if d.ProfileComplete != nil {
		row.ProfileComplete = *d.ProfileComplete
	}
	if d.StreakDays != nil {
		row.StreakDays = *d.StreakDays
	}

	assign := map[string]interface{}{
		"last_updated_at": now,
	}
	if d.ArticlesCount != 0 {
		assign["articles_count"] = gorm.Expr("articles_count + ?", d.ArticlesCount)
	}
	if d.CommentsCount != 0 {
		assign["comments_count"] = gorm.Expr("comments_count + ?", d.CommentsCount)
	}
	if d.ReactionsGiven != 0 {
		assign["reactions_given"] = gorm.Expr("reactions_given + ?", d.ReactionsGiven)
	}
	if d.BookmarksCount != 0 {
		assign["bookmarks_count"] = gorm.Expr("bookmarks_count + ?", d.BookmarksCount)
	}
	if d.ProfileComplete != nil {
		assign["profile_complete"] = *d.ProfileComplete
	}
	if d.StreakDays != nil {
		assign["streak_days"] = *d.StreakDays
	}

	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(assign),
	}).Create(&row).Error
	if err != nil {
		return domain.Progress{}, err
	}

	// Re-read: after a conflict-update the in-memory row does not reflect the
	// database arithmetic.
	return GetProgress(ctx, db, userID)
}
