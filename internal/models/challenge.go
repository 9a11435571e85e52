package models

import (
	"time"

	"gorm.io/gorm"
)

type ChallengeType string

const (
	ChallengePercentageLoss ChallengeType = "percentage_loss"
	ChallengeTotalLoss      ChallengeType = "total_loss"
	ChallengeConsistency    ChallengeType = "consistency"
	ChallengeActivityBased  ChallengeType = "activity_based"
)

type ChallengeStatus string

const (
	StatusUpcoming  ChallengeStatus = "upcoming"
	StatusActive    ChallengeStatus = "active"
	StatusCompleted ChallengeStatus = "completed"
	StatusCancelled ChallengeStatus = "cancelled"
)

type Challenge struct {
	gorm.Model
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Type         ChallengeType   `json:"type"`
	Status       ChallengeStatus `json:"status" gorm:"default:'upcoming'"`
	StartDate    time.Time       `json:"start_date"`
	EndDate      time.Time       `json:"end_date"`
	TargetValue  float64         `json:"target_value"`
	TeamID       *uint           `json:"team_id,omitempty"`
	Team         *Team           `json:"-" gorm:"foreignKey:TeamID"`
	RewardPoints int             `json:"reward_points"`
	CreatedByID  uint            `json:"created_by_id"`
	CreatedBy    User            `json:"-" gorm:"foreignKey:CreatedByID"`
}

type ChallengeParticipant struct {
	gorm.Model
	ChallengeID uint       `json:"challenge_id" gorm:"uniqueIndex:idx_challenge_user"`
	Challenge   Challenge  `json:"-" gorm:"foreignKey:ChallengeID"`
	UserID      uint       `json:"user_id" gorm:"uniqueIndex:idx_challenge_user"`
	User        User       `json:"-" gorm:"foreignKey:UserID"`
	Progress    float64    `json:"progress" gorm:"default:0"`
	Completed   bool       `json:"completed" gorm:"default:false"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
