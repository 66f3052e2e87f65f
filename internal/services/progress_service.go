// Package services – ProgressService
//
// This file implements the apply/read side of the progress contract. The
// service validates deltas (counters may only grow) and delegates the actual
// arithmetic to the repository, where it runs inside the database so
// concurrent business actions never lose an increment.
package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/menucraft/go-badge-backend/internal/domain"
)

// ProgressRepo defines the repository contract required by ProgressService.
type ProgressRepo interface {
	// GetProgress returns the user's counters; absent users resolve to a
	// zero-valued Progress.
	GetProgress(ctx context.Context, db *gorm.DB, userID string) (domain.Progress, error)

	// ApplyProgressDelta applies one delta atomically and returns the
	// updated row.
	ApplyProgressDelta(ctx context.Context, db *gorm.DB, userID string, d domain.ProgressDelta) (domain.Progress, error)
}

// ProgressService exposes the progress read/apply operations consumed by the
// surrounding application's business logic.
type ProgressService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the progress repository used by this service.
	Repo ProgressRepo
}

// Get returns the user's progress, zero-valued for a never-seen user.
func (s *ProgressService) Get(ctx context.Context, userID string) (domain.Progress, error) {
	return s.Repo.GetProgress(ctx, s.DB, userID)
}

// Apply validates and applies a progress delta, returning the updated
// progress. Negative counter deltas and negative streak overwrites are
// rejected with ErrInvalidDelta; a zero delta is a harmless no-op apply that
// still refreshes last_updated_at.
func (s *ProgressService) Apply(ctx context.Context, userID string, d domain.ProgressDelta) (domain.Progress, error) {
	if d.ArticlesCount < 0 || d.CommentsCount < 0 || d.ReactionsGiven < 0 || d.BookmarksCount < 0 {
		return domain.Progress{}, ErrInvalidDelta
	}
	if d.StreakDays != nil && *d.StreakDays < 0 {
		return domain.Progress{}, ErrInvalidDelta
	}
	return s.Repo.ApplyProgressDelta(ctx, s.DB, userID, d)
}
