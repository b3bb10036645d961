package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Event struct {
	gorm.Model
	ID            uuid.UUID `gorm:"type:uuid;primary_key"`
	Title         string    `gorm:"not null"`
	Description   string    `gorm:"not null"`
	StartTime     time.Time `gorm:"not null"`
	EndTime       time.Time `gorm:"not null"`
	Province      string
	City          string
	Location      string `gorm:"not null"`
	AttendeeCount int    `gorm:"not null;default:0"`
	Disputed      bool   `gorm:"not null;default:false"`
	User          User
	UserID        uuid.UUID `gorm:"type:uuid;not null;index"`
}

func (event *Event) BeforeCreate(tx *gorm.DB) (err error) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	return
}
