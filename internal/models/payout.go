package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	PayoutPending  = "pending"
	PayoutReleased = "released"
	PayoutFailed   = "failed"
)

// Payout accumulates an organizer's held funds for one event. It is created
// when the event's first paid ticket lands and grows with every confirmed
// sale. Funds stay held until hold_until so the refund window elapses before
// money leaves the platform.
type Payout struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrganizerID uuid.UUID       `gorm:"type:uuid;not null;index"`
	EventID     uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	Amount      decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	Status      string          `gorm:"not null;default:'pending'"`
	HoldUntil   time.Time       `gorm:"not null"`
	ReleaseRef  string          `gorm:"column:release_reference"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (payout *Payout) BeforeCreate(tx *gorm.DB) (err error) {
	if payout.ID == uuid.Nil {
		payout.ID = uuid.New()
	}
	return
}
