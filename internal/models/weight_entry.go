package models

import (
	"time"

	"gorm.io/gorm"
)

type Visibility string

const (
	VisibilityPrivate Visibility = "private"
	VisibilityTeam    Visibility = "team"
	VisibilityPublic  Visibility = "public"
)

type WeightEntry struct {
	gorm.Model
	UserID            uint       `json:"user_id" gorm:"index:idx_user_recorded"`
	User              User       `json:"-" gorm:"foreignKey:UserID"`
	Weight            float64    `json:"weight"`
	BodyFatPercentage *float64   `json:"body_fat_percentage,omitempty"`
	MuscleMass        *float64   `json:"muscle_mass,omitempty"`
	WaterPercentage   *float64   `json:"water_percentage,omitempty"`
	RecordedAt        time.Time  `json:"recorded_at" gorm:"index:idx_user_recorded"`
	Visibility        Visibility `json:"visibility" gorm:"default:'private'"`
	Activity          bool       `json:"activity"`
}
