// Package services – BadgeService
//
// This file implements the evaluator, the core of the badge engine. Given a
// user it computes which catalog badges are newly satisfied and not yet
// recorded, and records them through the ledger's atomic insert-if-absent.
//
// The evaluator holds no locks and no shared mutable state. Its correctness
// under arbitrary concurrency rests on two properties established elsewhere:
// badge criteria are monotonic (domain.Criteria), and the ledger insert is
// exactly-once per (user, badge) pair (unique index, see repo). A stale
// progress read can only under-report a badge for one cycle, and a stale
// unlocked-set read can only cause a redundant insert attempt that the ledger
// rejects. Both are self-healing on the next evaluation.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	"github.com/menucraft/go-badge-backend/internal/catalog"
	"github.com/menucraft/go-badge-backend/internal/domain"
)

var (
	// badgeUnlocks counts recorded unlocks by badge id. Catalog sizes are in
	// the tens, so cardinality stays bounded.
	badgeUnlocks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "badge_unlocks_total",
			Help: "Total number of badge unlocks recorded in the ledger.",
		},
		[]string{"badge_id"},
	)

	// badgeEvaluations counts evaluation cycles by outcome.
	badgeEvaluations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "badge_evaluations_total",
			Help: "Total number of badge evaluation cycles.",
		},
		[]string{"outcome"}, // "ok" | "unavailable"
	)
)

func init() {
	prometheus.MustRegister(badgeUnlocks, badgeEvaluations)
}

// UnlockLedger defines the repository contract required by BadgeService for
// the append-only unlock ledger.
type UnlockLedger interface {
	// ListUnlockedIDs returns the set of badge ids recorded for the user.
	ListUnlockedIDs(ctx context.Context, db *gorm.DB, userID string) (map[string]struct{}, error)

	// TryInsertUnlock atomically records an unlock; inserted=false means the
	// pair already existed (a normal outcome, not an error).
	TryInsertUnlock(ctx context.Context, db *gorm.DB, userID, badgeID string, at time.Time) (bool, *domain.UnlockRecord, error)

	// ListUnlocks returns a page of the user's unlock records, oldest first.
	ListUnlocks(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.UnlockRecord, error)

	// CountUnlocks returns the user's total number of unlock records.
	CountUnlocks(ctx context.Context, db *gorm.DB, userID string) (int64, error)
}

// ProgressReader is the read side of the progress store contract consumed by
// the evaluator.
type ProgressReader interface {
	// GetProgress returns the user's counters; absent users resolve to a
	// zero-valued Progress.
	GetProgress(ctx context.Context, db *gorm.DB, userID string) (domain.Progress, error)
}

// BadgeService evaluates badge criteria and exposes read operations over the
// catalog and the unlock ledger. It is stateless apart from injected
// collaborators and safe for unbounded concurrent use.
type BadgeService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Catalog is the process-wide, immutable badge registry.
	Catalog *catalog.Catalog
	// Ledger is the unlock ledger repository.
	Ledger UnlockLedger
	// Progress is the progress store read contract.
	Progress ProgressReader

	// Now returns the current time; overridable in tests.
	Now func() time.Time
}

// UserBadgeSummary aggregates a user's unlocks for the summary endpoint.
type UserBadgeSummary struct {
	UserID      string `json:"user_id"`
	Unlocked    int    `json:"unlocked"`
	Total       int    `json:"total"`
	TotalPoints int    `json:"total_points"`
}

func (s *BadgeService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// CheckBadges evaluates every not-yet-unlocked catalog badge against the
// user's current progress and records the satisfied ones. It returns, in
// catalog order, exactly the badges whose ledger insert this call won; a
// badge that a concurrent evaluation recorded first is silently omitted.
//
// The progress and unlocked-set reads are deliberately not transactional
// (see the package comment). If either read fails the evaluation aborts with
// ErrStoreUnavailable and no unlock attempt is made. A failed insert for one
// badge does not abort the remaining candidates: partial success across
// badges within one call is expected under transient write failures.
func (s *BadgeService) CheckBadges(ctx context.Context, userID string) ([]domain.UnlockedBadge, error) {
	prog, err := s.Progress.GetProgress(ctx, s.DB, userID)
	if err != nil {
		badgeEvaluations.WithLabelValues("unavailable").Inc()
		return nil, fmt.Errorf("%w: read progress: %v", ErrStoreUnavailable, err)
	}
	unlocked, err := s.Ledger.ListUnlockedIDs(ctx, s.DB, userID)
	if err != nil {
		badgeEvaluations.WithLabelValues("unavailable").Inc()
		return nil, fmt.Errorf("%w: read unlocked set: %v", ErrStoreUnavailable, err)
	}

	newly := []domain.UnlockedBadge{}
	for _, b := range s.Catalog.List() {
		if _, done := unlocked[b.ID]; done {
			continue
		}
		if !b.Criteria.Satisfied(prog) {
			continue
		}
		inserted, rec, err := s.Ledger.TryInsertUnlock(ctx, s.DB, userID, b.ID, s.now())
		if err != nil {
			// Per-badge failure; the badge stays satisfied and is retried
			// on the next evaluation.
			continue
		}
		if !inserted {
			// A concurrent evaluation won the race for this badge.
			continue
		}
		badgeUnlocks.WithLabelValues(b.ID).Inc()
		newly = append(newly, domain.UnlockedBadge{Badge: b, UnlockedAt: rec.UnlockedAt})
	}

	badgeEvaluations.WithLabelValues("ok").Inc()
	return newly, nil
}

// ListBadges returns the full catalog in registration order.
func (s *BadgeService) ListBadges() []domain.Badge {
	return s.Catalog.List()
}

// GetBadge returns a single catalog badge by id.
func (s *BadgeService) GetBadge(id string) (domain.Badge, error) {
	b, err := s.Catalog.Get(id)
	if errors.Is(err, catalog.ErrNotFound) {
		return domain.Badge{}, ErrBadgeNotFound
	}
	return b, err
}

// ListUserBadges returns a page of the user's unlocked badges, oldest first,
// each joined with its catalog definition, plus the total count. A ledger row
// whose badge id has left the catalog is skipped rather than surfaced; the
// row itself is permanent.
func (s *BadgeService) ListUserBadges(ctx context.Context, userID string, page, pageSize int) ([]domain.UnlockedBadge, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := s.Ledger.CountUnlocks(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: count unlocks: %v", ErrStoreUnavailable, err)
	}
	if total == 0 {
		return []domain.UnlockedBadge{}, 0, nil
	}

	recs, err := s.Ledger.ListUnlocks(ctx, s.DB, userID, offset, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: list unlocks: %v", ErrStoreUnavailable, err)
	}

	out := make([]domain.UnlockedBadge, 0, len(recs))
	for _, r := range recs {
		b, err := s.Catalog.Get(r.BadgeID)
		if err != nil {
			continue
		}
		out = append(out, domain.UnlockedBadge{Badge: b, UnlockedAt: r.UnlockedAt})
	}
	return out, total, nil
}

// Summary returns the user's unlock count against the catalog size and the
// points earned so far.
func (s *BadgeService) Summary(ctx context.Context, userID string) (UserBadgeSummary, error) {
	unlocked, err := s.Ledger.ListUnlockedIDs(ctx, s.DB, userID)
	if err != nil {
		return UserBadgeSummary{}, fmt.Errorf("%w: read unlocked set: %v", ErrStoreUnavailable, err)
	}

	sum := UserBadgeSummary{
		UserID: userID,
		Total:  s.Catalog.Len(),
	}
	for _, b := range s.Catalog.List() {
		if _, ok := unlocked[b.ID]; ok {
			sum.Unlocked++
			sum.TotalPoints += b.Points
		}
	}
	return sum, nil
}
