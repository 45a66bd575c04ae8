package domain

// badgeRule awards a display label once a counter crosses its threshold.
type badgeRule struct {
	Label     string
	Threshold int
}

// Score and streak thresholds. Order matters: badges are always emitted in
// this sequence so the set is comparable across calls.
var (
	scoreBadges = []badgeRule{
		{Label: "Starter", Threshold: 100},
		{Label: "Quiz Ace", Threshold: 300},
		{Label: "Eco Hero", Threshold: 600},
	}
	streakBadges = []badgeRule{
		{Label: "3-Day Streak", Threshold: 3},
		{Label: "Week Warrior", Threshold: 7},
	}
)

// BadgesFor derives the badge set from score and streak alone. It is pure:
// badges are never edited independently, only recomputed.
func BadgesFor(score, streak int) []string {
	badges := make([]string, 0, len(scoreBadges)+len(streakBadges))
	for _, rule := range scoreBadges {
		if score >= rule.Threshold {
			badges = append(badges, rule.Label)
		}
	}
	for _, rule := range streakBadges {
		if streak >= rule.Threshold {
			badges = append(badges, rule.Label)
		}
	}
	return badges
}

// TopBadgeFor returns the highest score badge earned, for leaderboard display.
func TopBadgeFor(score int) string {
	top := ""
	for _, rule := range scoreBadges {
		if score >= rule.Threshold {
			top = rule.Label
		}
	}
	return top
}
