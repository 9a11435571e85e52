package achievements

import (
	"time"

	"github.com/slimtribe/slimtribe-api/internal/models"
	"gorm.io/gorm"
)

// GatherFacts builds the activity snapshot a single evaluation runs against.
// Donation flags are supplied by the caller when the triggering event carries
// them; the stored history has no donation rows to derive them from.
func GatherFacts(db *gorm.DB, userID uint, now time.Time) (Facts, error) {
	var facts Facts

	var entries []models.WeightEntry
	err := db.Where("user_id = ?", userID).
		Order("recorded_at asc, id asc").
		Find(&entries).Error
	if err != nil {
		return facts, err
	}

	facts.TotalEntries = len(entries)

	days := make(map[string]bool)
	for _, e := range entries {
		day := e.RecordedAt.UTC()
		days[day.Format("2006-01-02")] = true
		if day.Hour() < 7 {
			facts.EarlyBirdLog = true
		}
		if day.Hour() >= 23 {
			facts.NightOwlLog = true
		}
	}
	facts.DistinctLogDays = len(days)
	facts.CurrentStreakDays = streakDays(days, now)

	if len(entries) >= 2 {
		first := entries[0].Weight
		last := entries[len(entries)-1].Weight
		facts.TotalLoss = first - last
		if first > 0 {
			facts.PercentageLoss = (first - last) / first * 100
		}
		facts.TenUnitMilestone = facts.TotalLoss >= 10
	}

	var teamCount int64
	if err := db.Model(&models.TeamMember{}).Where("user_id = ?", userID).Count(&teamCount).Error; err != nil {
		return facts, err
	}
	facts.TeamCount = int(teamCount)

	var postCount int64
	if err := db.Model(&models.Post{}).Where("author_id = ?", userID).Count(&postCount).Error; err != nil {
		return facts, err
	}
	facts.PostCount = int(postCount)

	var messageCount int64
	if err := db.Model(&models.Message{}).Where("sender_id = ?", userID).Count(&messageCount).Error; err != nil {
		return facts, err
	}
	facts.MessageCount = int(messageCount)

	var completedCount int64
	err = db.Model(&models.ChallengeParticipant{}).
		Where("user_id = ? AND completed = ?", userID, true).
		Count(&completedCount).Error
	if err != nil {
		return facts, err
	}
	facts.ChallengesCompleted = int(completedCount)

	return facts, nil
}

// streakDays counts consecutive logged days ending today or yesterday. A day
// without an entry breaks the streak; a streak whose last day is before
// yesterday has already lapsed and counts as zero.
func streakDays(days map[string]bool, now time.Time) int {
	day := now.UTC().Truncate(24 * time.Hour)
	if !days[day.Format("2006-01-02")] {
		day = day.AddDate(0, 0, -1)
		if !days[day.Format("2006-01-02")] {
			return 0
		}
	}

	streak := 0
	for days[day.Format("2006-01-02")] {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}
