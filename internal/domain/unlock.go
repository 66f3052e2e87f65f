package domain

import "time"

// UnlockRecord is one row of the append-only unlock ledger. The unique index
// on (user_id, badge_id) is the correctness anchor of the whole engine: a
// badge can be recorded for a user exactly once, and every concurrent
// evaluator racing on the same badge loses to the database constraint rather
// than to any in-process coordination. Rows are never updated or deleted;
// there is deliberately no soft-delete marker here.
type UnlockRecord struct {
	ID         string    `json:"id"          gorm:"type:char(36);primaryKey"`
	UserID     string    `json:"user_id"     gorm:"type:varchar(64);not null;index;uniqueIndex:ux_unlock_user_badge,priority:1"`
	BadgeID    string    `json:"badge_id"    gorm:"type:varchar(64);not null;uniqueIndex:ux_unlock_user_badge,priority:2"`
	UnlockedAt time.Time `json:"unlocked_at" gorm:"not null"`
}

// TableName returns the database table name for UnlockRecord.
func (UnlockRecord) TableName() string { return "unlock_records" }
