package models

import (
	"time"

	"gorm.io/gorm"
)

type TeamRole string

const (
	TeamRoleOwner  TeamRole = "owner"
	TeamRoleMember TeamRole = "member"
)

type Team struct {
	gorm.Model
	Name        string `json:"name"`
	Description string `json:"description"`
	OwnerID     uint   `json:"owner_id"`
	Owner       User   `json:"-" gorm:"foreignKey:OwnerID"`
	InviteCode  string `json:"invite_code" gorm:"uniqueIndex"`
}

type TeamMember struct {
	gorm.Model
	TeamID   uint      `json:"team_id" gorm:"uniqueIndex:idx_team_user"`
	Team     Team      `json:"-" gorm:"foreignKey:TeamID"`
	UserID   uint      `json:"user_id" gorm:"uniqueIndex:idx_team_user"`
	User     User      `json:"-" gorm:"foreignKey:UserID"`
	Role     TeamRole  `json:"role" gorm:"default:'member'"`
	JoinedAt time.Time `json:"joined_at"`
}
