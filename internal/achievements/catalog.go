// Package achievements implements the achievement rule catalog, the
// evaluator that matches rules against a user's activity facts and the
// idempotent award ledger.
package achievements

// Facts is a snapshot of a user's activity, gathered once per evaluation.
// Predicates read only from this snapshot, never from ambient state.
type Facts struct {
	TotalEntries        int
	CurrentStreakDays   int
	DistinctLogDays     int
	TotalLoss           float64
	PercentageLoss      float64
	TenUnitMilestone    bool
	EarlyBirdLog        bool
	NightOwlLog         bool
	TeamCount           int
	PostCount           int
	MessageCount        int
	ChallengesCompleted int
	Donated             bool
}

// Rule is one achievement definition with its matching predicate.
type Rule struct {
	Name        string
	Description string
	Points      int
	Hidden      bool
	Predicate   func(Facts) bool
}

// Catalog returns the full achievement catalog in evaluation order. Rules
// are independent; every matching rule fires in a single pass. Hidden rules
// go through the identical matching path, the flag only affects display.
func Catalog() []Rule {
	return []Rule{
		{
			Name: "First Step", Description: "Log your first weight entry", Points: 10,
			Predicate: func(f Facts) bool { return f.TotalEntries >= 1 },
		},
		{
			Name: "Habit Forming", Description: "Log entries on 7 distinct days", Points: 25,
			Predicate: func(f Facts) bool { return f.DistinctLogDays >= 7 },
		},
		{
			Name: "Week Warrior", Description: "Keep a 7-day logging streak", Points: 50,
			Predicate: func(f Facts) bool { return f.CurrentStreakDays >= 7 },
		},
		{
			Name: "Monthly Machine", Description: "Keep a 30-day logging streak", Points: 200,
			Predicate: func(f Facts) bool { return f.CurrentStreakDays >= 30 },
		},
		{
			Name: "First Pound Down", Description: "Lose your first unit of weight", Points: 20,
			Predicate: func(f Facts) bool { return f.TotalLoss >= 1 },
		},
		{
			Name: "Perfect Ten", Description: "Lose ten total units of weight", Points: 100,
			Predicate: func(f Facts) bool { return f.TenUnitMilestone },
		},
		{
			Name: "Five Percent Club", Description: "Lose 5% of your starting weight", Points: 150,
			Predicate: func(f Facts) bool { return f.PercentageLoss >= 5 },
		},
		{
			Name: "Team Player", Description: "Join your first team", Points: 15,
			Predicate: func(f Facts) bool { return f.TeamCount >= 1 },
		},
		{
			Name: "Social Butterfly", Description: "Publish 10 posts", Points: 30,
			Predicate: func(f Facts) bool { return f.PostCount >= 10 },
		},
		{
			Name: "Pen Pal", Description: "Send 25 messages", Points: 30,
			Predicate: func(f Facts) bool { return f.MessageCount >= 25 },
		},
		{
			Name: "Finisher", Description: "Complete your first challenge", Points: 75,
			Predicate: func(f Facts) bool { return f.ChallengesCompleted >= 1 },
		},
		{
			Name: "Serial Finisher", Description: "Complete 5 challenges", Points: 250,
			Predicate: func(f Facts) bool { return f.ChallengesCompleted >= 5 },
		},
		{
			Name: "Early Bird", Description: "Log an entry before 7am", Points: 20, Hidden: true,
			Predicate: func(f Facts) bool { return f.EarlyBirdLog },
		},
		{
			Name: "Night Owl", Description: "Log an entry after 11pm", Points: 20, Hidden: true,
			Predicate: func(f Facts) bool { return f.NightOwlLog },
		},
		{
			Name: "Generous Heart", Description: "Make a donation", Points: 40, Hidden: true,
			Predicate: func(f Facts) bool { return f.Donated },
		},
	}
}
