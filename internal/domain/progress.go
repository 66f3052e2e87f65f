package domain

import "time"

// Progress holds the per-user counters that badge criteria are evaluated
// against. One row exists per user; a user with no row is semantically a
// zero-valued Progress, not an error (the repository materializes that).
//
// Counter fields only ever grow, and they grow through additive SQL updates
// so concurrent applies from separate business actions never lose an
// increment. ProfileComplete and StreakDays carry replace semantics: the
// caller supplies the current truth and the stored value is overwritten.
type Progress struct {
	UserID          string    `json:"user_id"         gorm:"type:varchar(64);primaryKey"`
	ArticlesCount   int       `json:"articles_count"  gorm:"not null;default:0"`
	CommentsCount   int       `json:"comments_count"  gorm:"not null;default:0"`
	ReactionsGiven  int       `json:"reactions_given" gorm:"not null;default:0"`
	BookmarksCount  int       `json:"bookmarks_count" gorm:"not null;default:0"`
	ProfileComplete bool      `json:"profile_complete" gorm:"not null;default:false"`
	StreakDays      int       `json:"streak_days"     gorm:"not null;default:0"`
	LastUpdatedAt   time.Time `json:"last_updated_at" gorm:"autoUpdateTime"`
}

// TableName returns the database table name for Progress.
func (Progress) TableName() string { return "user_progress" }

// ProgressDelta describes one apply call against a user's progress. Counter
// fields are added to the stored values; ProfileComplete and StreakDays, when
// present, overwrite them. Nil pointers leave the stored value untouched.
type ProgressDelta struct {
	ArticlesCount   int   `json:"articles_count,omitempty"`
	CommentsCount   int   `json:"comments_count,omitempty"`
	ReactionsGiven  int   `json:"reactions_given,omitempty"`
	BookmarksCount  int   `json:"bookmarks_count,omitempty"`
	ProfileComplete *bool `json:"profile_complete,omitempty"`
	StreakDays      *int  `json:"streak_days,omitempty"`
}

// IsZero reports whether the delta would leave progress unchanged.
func (d ProgressDelta) IsZero() bool {
	return d.ArticlesCount == 0 && d.CommentsCount == 0 &&
		d.ReactionsGiven == 0 && d.BookmarksCount == 0 &&
		d.ProfileComplete == nil && d.StreakDays == nil
}
