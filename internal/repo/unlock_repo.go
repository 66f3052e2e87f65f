// Package repo implements the data persistence layer for the badge engine,
// backed by GORM. This file provides repository helpers for the append-only
// unlock ledger.
//
// The ledger is the linchpin of the exactly-once guarantee: the unique index
// on (user_id, badge_id) makes TryInsertUnlock an atomic insert-if-absent, so
// any number of concurrent evaluators racing on the same badge resolve to one
// winner with no in-process coordination.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/menucraft/go-badge-backend/internal/domain"
)

// ListUnlockedIDs returns the set of badge ids already recorded for a user.
func ListUnlockedIDs(ctx context.Context, db *gorm.DB, userID string) (map[string]struct{}, error) {
	var ids []string
	err := db.WithContext(ctx).
		Model(&domain.UnlockRecord{}).
		Where("user_id = ?", userID).
		Pluck("badge_id", &ids).Error
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

// TryInsertUnlock attempts to record a badge unlock. The first call for a
// given (user_id, badge_id) pair inserts the row and reports true; any later
// call hits the unique index and reports false with a nil error. A rejected
// duplicate is a normal outcome, never surfaced as an error.
func TryInsertUnlock(ctx context.Context, db *gorm.DB, userID, badgeID string, at time.Time) (bool, *domain.UnlockRecord, error) {
	rec := &domain.UnlockRecord{
		ID:         uuid.NewString(),
		UserID:     userID,
		BadgeID:    badgeID,
		UnlockedAt: at.UTC(),
	}
	if err := db.WithContext(ctx).Create(rec).Error; err != nil {
		// glebarez/sqlite often returns plain-text errors for UNIQUE violations.
		low := strings.ToLower(err.Error())
		if errors.Is(err, gorm.ErrDuplicatedKey) ||
			strings.Contains(low, "unique constraint failed") ||
			strings.Contains(low, "constraint failed: unique") {
			return false, nil, nil
		}
		return false, nil, err
	}
	return true, rec, nil
}

// ListUnlocks returns a page of a user's unlock records, oldest first (the
// order they were earned). Used by the user-badges listing.
func ListUnlocks(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.UnlockRecord, error) {
	var recs []domain.UnlockRecord
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("unlocked_at ASC, id ASC").
		Offset(offset).Limit(limit).
		Find(&recs).Error
	return recs, err
}

// CountUnlocks returns the total number of unlock records for a user.
func CountUnlocks(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.UnlockRecord{}).
		Where("user_id = ?", userID).
		Count(&n).Error
	return n, err
}
