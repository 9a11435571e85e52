package models

import (
	"gorm.io/gorm"
)

type Post struct {
	gorm.Model
	AuthorID uint   `json:"author_id" gorm:"index"`
	Author   User   `json:"-" gorm:"foreignKey:AuthorID"`
	TeamID   *uint  `json:"team_id,omitempty" gorm:"index"`
	Team     *Team  `json:"-" gorm:"foreignKey:TeamID"`
	Body     string `json:"body"`
}
