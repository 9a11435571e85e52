// Package challenges implements the challenge lifecycle: creation, joining,
// leaving and progress recalculation.
package challenges

import (
	"errors"
	"time"

	"github.com/slimtribe/slimtribe-api/internal/models"
	"github.com/slimtribe/slimtribe-api/internal/progress"
	"gorm.io/gorm"
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Create validates and stores a new challenge definition.
func (s *Service) Create(challenge *models.Challenge) error {
	switch challenge.Type {
	case models.ChallengePercentageLoss, models.ChallengeTotalLoss,
		models.ChallengeConsistency, models.ChallengeActivityBased:
	default:
		return ErrInvalidChallenge
	}

	if !challenge.EndDate.After(challenge.StartDate) {
		return ErrInvalidChallenge
	}

	challenge.Status = progress.EffectiveStatus(*challenge, time.Now())
	return s.db.Create(challenge).Error
}

// Get loads a challenge by ID.
func (s *Service) Get(challengeID uint) (*models.Challenge, error) {
	var challenge models.Challenge
	if err := s.db.First(&challenge, challengeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChallengeNotFound
		}
		return nil, err
	}
	return &challenge, nil
}

// Join enrolls a user in a challenge. The (challenge_id, user_id) uniqueness
// index is the race arbiter: a concurrent duplicate join surfaces as
// ErrAlreadyParticipating, never a second row.
func (s *Service) Join(challengeID, userID uint) (*models.ChallengeParticipant, error) {
	challenge, err := s.Get(challengeID)
	if err != nil {
		return nil, err
	}

	switch progress.EffectiveStatus(*challenge, time.Now()) {
	case models.StatusUpcoming, models.StatusActive:
	default:
		return nil, ErrChallengeClosed
	}

	var existing models.ChallengeParticipant
	err = s.db.Where("challenge_id = ? AND user_id = ?", challengeID, userID).First(&existing).Error
	if err == nil {
		return nil, ErrAlreadyParticipating
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	participant := models.ChallengeParticipant{
		ChallengeID: challengeID,
		UserID:      userID,
	}
	if err := s.db.Create(&participant).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyParticipating
		}
		return nil, err
	}
	return &participant, nil
}

// Leave removes the participant row. Completed participants may leave too;
// rejoining starts over at zero progress.
func (s *Service) Leave(challengeID, userID uint) error {
	result := s.db.Where("challenge_id = ? AND user_id = ?", challengeID, userID).
		Delete(&models.ChallengeParticipant{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotParticipating
	}
	return nil
}

// UpdateChallengeProgress recalculates progress for every participant of a
// challenge and returns the participants that newly crossed the target.
func (s *Service) UpdateChallengeProgress(challengeID uint, now time.Time) ([]models.ChallengeParticipant, error) {
	challenge, err := s.Get(challengeID)
	if err != nil {
		return nil, err
	}

	if err := s.syncStatus(challenge, now); err != nil {
		return nil, err
	}

	var participants []models.ChallengeParticipant
	if err := s.db.Where("challenge_id = ?", challengeID).Find(&participants).Error; err != nil {
		return nil, err
	}

	var newlyCompleted []models.ChallengeParticipant
	for i := range participants {
		completed, err := s.recompute(challenge, &participants[i], now)
		if err != nil {
			return nil, err
		}
		if completed {
			newlyCompleted = append(newlyCompleted, participants[i])
		}
	}
	return newlyCompleted, nil
}

// UpdateUserProgress recalculates the acting user's progress in all their
// currently active participations. Called after each weight entry is logged.
func (s *Service) UpdateUserProgress(userID uint, now time.Time) ([]models.ChallengeParticipant, error) {
	var participants []models.ChallengeParticipant
	err := s.db.Preload("Challenge").Where("user_id = ?", userID).Find(&participants).Error
	if err != nil {
		return nil, err
	}

	var newlyCompleted []models.ChallengeParticipant
	for i := range participants {
		challenge := participants[i].Challenge
		if progress.EffectiveStatus(challenge, now) != models.StatusActive {
			continue
		}
		if err := s.syncStatus(&challenge, now); err != nil {
			return nil, err
		}
		completed, err := s.recompute(&challenge, &participants[i], now)
		if err != nil {
			return nil, err
		}
		if completed {
			newlyCompleted = append(newlyCompleted, participants[i])
		}
	}
	return newlyCompleted, nil
}

// Complete marks a challenge finished by explicit action.
func (s *Service) Complete(challengeID uint) error {
	challenge, err := s.Get(challengeID)
	if err != nil {
		return err
	}
	return s.db.Model(challenge).Update("status", models.StatusCompleted).Error
}

// Cancel marks a challenge cancelled by explicit action.
func (s *Service) Cancel(challengeID uint) error {
	challenge, err := s.Get(challengeID)
	if err != nil {
		return err
	}
	return s.db.Model(challenge).Update("status", models.StatusCancelled).Error
}

// syncStatus persists the lazily derived status on a qualifying write.
func (s *Service) syncStatus(challenge *models.Challenge, now time.Time) error {
	effective := progress.EffectiveStatus(*challenge, now)
	if effective == challenge.Status {
		return nil
	}
	challenge.Status = effective
	return s.db.Model(challenge).Update("status", effective).Error
}

// recompute refreshes one participant's progress and reports whether they
// crossed the target for the first time. CompletedAt is written once and
// never reset by later recalculations.
func (s *Service) recompute(challenge *models.Challenge, participant *models.ChallengeParticipant, now time.Time) (bool, error) {
	from, to := progress.Window(*challenge, now)

	var entries []models.WeightEntry
	err := s.db.
		Where("user_id = ? AND recorded_at >= ? AND recorded_at <= ?", participant.UserID, from, to).
		Order("recorded_at asc, id asc").
		Find(&entries).Error
	if err != nil {
		return false, err
	}

	value := progress.Compute(*challenge, entries)
	updates := map[string]interface{}{"progress": value}

	newlyCompleted := false
	if !participant.Completed && challenge.TargetValue > 0 && value >= challenge.TargetValue {
		completedAt := now
		participant.Completed = true
		participant.CompletedAt = &completedAt
		updates["completed"] = true
		updates["completed_at"] = completedAt
		newlyCompleted = true
	}

	participant.Progress = value
	if err := s.db.Model(participant).Updates(updates).Error; err != nil {
		return false, err
	}
	return newlyCompleted, nil
}
