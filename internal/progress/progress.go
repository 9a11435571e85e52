// Package progress computes challenge progress from weight-entry history.
package progress

import (
	"time"

	"github.com/slimtribe/slimtribe-api/internal/models"
)

// Compute returns the progress value for a challenge given the participant's
// weight entries, which must be ordered by recorded_at (ties by insertion
// order) and restricted to the challenge window. An empty window yields 0 for
// every challenge type; weight gain yields a negative value and is not
// clamped.
func Compute(challenge models.Challenge, entries []models.WeightEntry) float64 {
	if len(entries) == 0 {
		return 0
	}

	switch challenge.Type {
	case models.ChallengePercentageLoss:
		if len(entries) < 2 {
			return 0
		}
		first := entries[0].Weight
		last := entries[len(entries)-1].Weight
		if first == 0 {
			return 0
		}
		return (first - last) / first * 100

	case models.ChallengeTotalLoss:
		return entries[0].Weight - entries[len(entries)-1].Weight

	case models.ChallengeConsistency:
		days := make(map[string]struct{})
		for _, e := range entries {
			days[e.RecordedAt.UTC().Format("2006-01-02")] = struct{}{}
		}
		return float64(len(days))

	case models.ChallengeActivityBased:
		count := 0
		for _, e := range entries {
			if e.Activity {
				count++
			}
		}
		return float64(count)
	}

	return 0
}

// Window returns the entry window for a challenge: from the start date up to
// now, capped at the end date.
func Window(challenge models.Challenge, now time.Time) (time.Time, time.Time) {
	end := now
	if end.After(challenge.EndDate) {
		end = challenge.EndDate
	}
	return challenge.StartDate, end
}

// EffectiveStatus derives the status a reader should see. Cancelled and
// Completed are sticky once stored; otherwise the status follows the current
// time against the challenge dates. No timer flips the stored field, it is
// updated lazily on qualifying writes.
func EffectiveStatus(challenge models.Challenge, now time.Time) models.ChallengeStatus {
	switch challenge.Status {
	case models.StatusCancelled, models.StatusCompleted:
		return challenge.Status
	}
	if now.Before(challenge.StartDate) {
		return models.StatusUpcoming
	}
	if now.After(challenge.EndDate) {
		return models.StatusCompleted
	}
	return models.StatusActive
}
