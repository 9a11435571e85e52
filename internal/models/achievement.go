package models

import (
	"time"

	"gorm.io/gorm"
)

type Achievement struct {
	gorm.Model
	Name        string `gorm:"uniqueIndex" json:"name"`
	Description string `json:"description"`
	Points      int    `json:"points"`
	IsHidden    bool   `json:"is_hidden"`
}

type UserAchievement struct {
	gorm.Model
	UserID        uint        `json:"user_id" gorm:"uniqueIndex:idx_user_achievement"`
	User          User        `json:"-" gorm:"foreignKey:UserID"`
	AchievementID uint        `json:"achievement_id" gorm:"uniqueIndex:idx_user_achievement"`
	Achievement   Achievement `json:"achievement" gorm:"foreignKey:AchievementID"`
	AwardedAt     time.Time   `json:"awarded_at"`
}
