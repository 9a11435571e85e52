package models

import (
	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Email          string  `gorm:"uniqueIndex" json:"email"`
	Username       string  `json:"username"`
	PasswordHash   string  `json:"-"`
	DiscordID      *string `gorm:"uniqueIndex" json:"discord_id,omitempty"`
	Avatar         string  `json:"avatar"`
	StartingWeight float64 `json:"starting_weight"`
}
