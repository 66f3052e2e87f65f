package catalog

import "github.com/menucraft/go-badge-backend/internal/domain"

// Default returns the production badge set. Order matters: it is the order
// badges are listed and the order newly unlocked badges are reported in.
func Default() *Catalog {
	return MustNew(
		// Content
		domain.Badge{
			ID: "first-article", Name: "First Article",
			Description: "Published your first article",
			Icon:        "📝", Category: domain.CategoryContent, Rarity: domain.RarityCommon,
			Points: 10, Criteria: domain.Criteria{MinArticles: 1},
		},
		domain.Badge{
			ID: "five-articles", Name: "Getting Started",
			Description: "Published 5 articles",
			Icon:        "✍️", Category: domain.CategoryContent, Rarity: domain.RarityCommon,
			Points: 25, Criteria: domain.Criteria{MinArticles: 5},
		},
		domain.Badge{
			ID: "ten-articles", Name: "Regular Author",
			Description: "Published 10 articles",
			Icon:        "📚", Category: domain.CategoryContent, Rarity: domain.RarityRare,
			Points: 50, Criteria: domain.Criteria{MinArticles: 10},
		},
		domain.Badge{
			ID: "prolific-author", Name: "Prolific Author",
			Description: "Published 25 articles",
			Icon:        "🖋️", Category: domain.CategoryContent, Rarity: domain.RarityEpic,
			Points: 100, Criteria: domain.Criteria{MinArticles: 25},
		},

		// Engagement
		domain.Badge{
			ID: "first-comment", Name: "First Comment",
			Description: "Left your first comment",
			Icon:        "💬", Category: domain.CategoryEngagement, Rarity: domain.RarityCommon,
			Points: 5, Criteria: domain.Criteria{MinComments: 1},
		},
		domain.Badge{
			ID: "conversation-starter", Name: "Conversation Starter",
			Description: "Left 10 comments",
			Icon:        "🗨️", Category: domain.CategoryEngagement, Rarity: domain.RarityCommon,
			Points: 20, Criteria: domain.Criteria{MinComments: 10},
		},
		domain.Badge{
			ID: "community-voice", Name: "Community Voice",
			Description: "Left 50 comments",
			Icon:        "📣", Category: domain.CategoryEngagement, Rarity: domain.RarityRare,
			Points: 60, Criteria: domain.Criteria{MinComments: 50},
		},
		domain.Badge{
			ID: "reaction-giver", Name: "Reaction Giver",
			Description: "Gave 25 reactions",
			Icon:        "👏", Category: domain.CategoryEngagement, Rarity: domain.RarityCommon,
			Points: 15, Criteria: domain.Criteria{MinReactions: 25},
		},
		domain.Badge{
			ID: "cheerleader", Name: "Cheerleader",
			Description: "Gave 100 reactions",
			Icon:        "🎉", Category: domain.CategoryEngagement, Rarity: domain.RarityRare,
			Points: 40, Criteria: domain.Criteria{MinReactions: 100},
		},

		// Community
		domain.Badge{
			ID: "first-bookmark", Name: "First Bookmark",
			Description: "Saved your first article",
			Icon:        "🔖", Category: domain.CategoryCommunity, Rarity: domain.RarityCommon,
			Points: 5, Criteria: domain.Criteria{MinBookmarks: 1},
		},
		domain.Badge{
			ID: "collector", Name: "Collector",
			Description: "Saved 10 articles",
			Icon:        "🗂️", Category: domain.CategoryCommunity, Rarity: domain.RarityCommon,
			Points: 20, Criteria: domain.Criteria{MinBookmarks: 10},
		},

		// Achievement
		domain.Badge{
			ID: "week-streak", Name: "Week Streak",
			Description: "Active 7 days in a row",
			Icon:        "🔥", Category: domain.CategoryAchievement, Rarity: domain.RarityRare,
			Points: 30, Criteria: domain.Criteria{MinStreakDays: 7},
		},
		domain.Badge{
			ID: "month-streak", Name: "Month Streak",
			Description: "Active 30 days in a row",
			Icon:        "🌋", Category: domain.CategoryAchievement, Rarity: domain.RarityEpic,
			Points: 150, Criteria: domain.Criteria{MinStreakDays: 30},
		},

		// Special
		domain.Badge{
			ID: "profile-complete", Name: "All Set Up",
			Description: "Completed your profile",
			Icon:        "✅", Category: domain.CategorySpecial, Rarity: domain.RarityCommon,
			Points: 10, Criteria: domain.Criteria{RequireProfile: true},
		},
		domain.Badge{
			ID: "local-legend", Name: "Local Legend",
			Description: "25 articles, 50 comments, a month-long streak and a complete profile",
			Icon:        "🏆", Category: domain.CategorySpecial, Rarity: domain.RarityLegendary,
			Points: 500, Criteria: domain.Criteria{
				MinArticles:    25,
				MinComments:    50,
				MinStreakDays:  30,
				RequireProfile: true,
			},
		},
	)
}
