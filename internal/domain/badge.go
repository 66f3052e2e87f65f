// Package domain defines the core data model of the badge engine: badge
// definitions with their unlock criteria, per-user progress counters, and the
// immutable unlock ledger rows. Persisted types are mapped with GORM and are
// shared across the repository and service layers; Badge itself is a pure
// in-memory value owned by the deploy-time catalog and is never stored.
package domain

import "time"

// BadgeCategory groups badges for presentation and filtering.
type BadgeCategory string

// BadgeRarity expresses how hard a badge is to earn.
type BadgeRarity string

const (
	CategoryContent     BadgeCategory = "content"
	CategoryEngagement  BadgeCategory = "engagement"
	CategoryCommunity   BadgeCategory = "community"
	CategoryAchievement BadgeCategory = "achievement"
	CategorySpecial     BadgeCategory = "special"
)

const (
	RarityCommon    BadgeRarity = "common"
	RarityRare      BadgeRarity = "rare"
	RarityEpic      BadgeRarity = "epic"
	RarityLegendary BadgeRarity = "legendary"
)

// Badge is a deploy-time badge definition. Badges are created once when the
// catalog is built and are never mutated or deleted at runtime; every
// evaluation across all users shares the same set of values.
//
// Fields:
//   - ID: stable string key (e.g. "first-article"); identifies the badge in
//     the unlock ledger and in API payloads.
//   - Name / Description: presentation copy.
//   - Icon: a display glyph for the badge (emoji).
//   - Category / Rarity: presentation taxonomy.
//   - Points: positive score awarded on unlock.
//   - Criteria: the unlock predicate evaluated against a Progress snapshot.
type Badge struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Icon        string        `json:"icon"`
	Category    BadgeCategory `json:"category"`
	Rarity      BadgeRarity   `json:"rarity"`
	Points      int           `json:"points"`
	Criteria    Criteria      `json:"criteria"`
}

// Criteria is the unlock predicate for a badge, expressed as minimum
// thresholds over Progress fields. Expressing criteria as thresholds (rather
// than arbitrary predicates) makes every criteria monotonic by construction:
// counters never decrease, so once Satisfied reports true for a user it
// reports true for every later snapshot of that user. The evaluator relies on
// this ratchet to stay correct with non-transactional reads.
//
// A zero threshold means the corresponding field is not part of the
// criteria. The zero-valued Criteria is satisfied by any Progress.
type Criteria struct {
	MinArticles    int  `json:"min_articles,omitempty"`
	MinComments    int  `json:"min_comments,omitempty"`
	MinReactions   int  `json:"min_reactions,omitempty"`
	MinBookmarks   int  `json:"min_bookmarks,omitempty"`
	MinStreakDays  int  `json:"min_streak_days,omitempty"`
	RequireProfile bool `json:"require_profile,omitempty"`
}

// Satisfied reports whether the progress snapshot meets every threshold.
func (cr Criteria) Satisfied(p Progress) bool {
	if p.ArticlesCount < cr.MinArticles {
		return false
	}
	if p.CommentsCount < cr.MinComments {
		return false
	}
	if p.ReactionsGiven < cr.MinReactions {
		return false
	}
	if p.BookmarksCount < cr.MinBookmarks {
		return false
	}
	if p.StreakDays < cr.MinStreakDays {
		return false
	}
	if cr.RequireProfile && !p.ProfileComplete {
		return false
	}
	return true
}

// UnlockedBadge pairs a catalog badge with the moment it was recorded in the
// ledger. It is the item type returned by the evaluator and by the
// user-badges listing.
type UnlockedBadge struct {
	Badge
	UnlockedAt time.Time `json:"unlocked_at"`
}
