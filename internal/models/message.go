package models

import (
	"gorm.io/gorm"
)

type Message struct {
	gorm.Model
	SenderID    uint   `json:"sender_id" gorm:"index"`
	Sender      User   `json:"-" gorm:"foreignKey:SenderID"`
	RecipientID uint   `json:"recipient_id" gorm:"index"`
	Recipient   User   `json:"-" gorm:"foreignKey:RecipientID"`
	Body        string `json:"body"`
	Read        bool   `json:"read" gorm:"default:false"`
}
