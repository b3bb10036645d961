package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	TemplateTypeGeneral   = "general"
	TemplateTypeVIP       = "vip"
	TemplateTypeEarlyBird = "early_bird"
	TemplateTypeDayPass   = "day_pass"
	TemplateTypeMultiDay  = "multi_day"
	TemplateTypeBackstage = "backstage"
	TemplateTypeStudent   = "student"
	TemplateTypeGroup     = "group"
)

func ValidTemplateType(t string) bool {
	switch t {
	case TemplateTypeGeneral, TemplateTypeVIP, TemplateTypeEarlyBird,
		TemplateTypeDayPass, TemplateTypeMultiDay, TemplateTypeBackstage,
		TemplateTypeStudent, TemplateTypeGroup:
		return true
	}
	return false
}

// TicketTemplate is the sellable inventory of one admission kind for an
// event. quantity_available is decremented when a reservation takes a hold
// and quantity_sold is incremented only once payment is confirmed, so
// quantity_available + quantity_sold + open holds == quantity_total.
type TicketTemplate struct {
	gorm.Model
	ID                uuid.UUID       `gorm:"type:uuid;primary_key"`
	Name              string          `gorm:"not null"`
	Type              string          `gorm:"not null"`
	Price             decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	QuantityTotal     int             `gorm:"not null"`
	QuantityAvailable int             `gorm:"not null"`
	QuantitySold      int             `gorm:"not null;default:0"`
	EventID           uuid.UUID       `gorm:"type:uuid;not null;index"`
	Event             Event
}

func (template *TicketTemplate) BeforeCreate(tx *gorm.DB) (err error) {
	if template.ID == uuid.Nil {
		template.ID = uuid.New()
	}
	return
}
