package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	PaymentPending = "pending"
	PaymentPaid    = "paid"
	PaymentFailed  = "failed"
)

const (
	TicketValid     = "valid"
	TicketUsed      = "used"
	TicketCancelled = "cancelled"
	TicketRefunded  = "refunded"
	TicketExpired   = "expired"
)

// TerminalStatus reports whether a ticket status permits no further
// transition.
func TerminalStatus(status string) bool {
	switch status {
	case TicketUsed, TicketCancelled, TicketRefunded, TicketExpired:
		return true
	}
	return false
}

// Ticket is one admission. It is created pending by a reservation, flipped
// to paid (with its code attached) by reconciliation, and consumed at the
// door by verification. The partial unique index on (buyer, event) keeps a
// buyer from holding two pending reservations for the same event, which is
// what makes the reconciler's buyer+event fallback match unambiguous.
type Ticket struct {
	gorm.Model
	ID             uuid.UUID `gorm:"type:uuid;primary_key"`
	HolderName     string    `gorm:"not null"`
	HolderEmail    string    `gorm:"not null"`
	BuyerAccountID uuid.UUID `gorm:"type:uuid;not null;index:idx_tickets_pending_buyer_event,unique,where:payment_status = 'pending' AND deleted_at IS NULL"`
	EventID        uuid.UUID `gorm:"type:uuid;not null;index;index:idx_tickets_pending_buyer_event,unique,where:payment_status = 'pending' AND deleted_at IS NULL"`
	TemplateID     uuid.UUID `gorm:"type:uuid;not null;index"`
	Template       TicketTemplate
	PricePaid      decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	PaymentStatus  string          `gorm:"not null;default:'pending'"`
	Status         string          `gorm:"not null;default:'valid'"`
	Code           *string         `gorm:"uniqueIndex"`
	SessionRef     string          `gorm:"column:checkout_session_reference;not null;uniqueIndex"`
	PaymentRef     string          `gorm:"column:payment_reference"`
	PaidAt         *time.Time
	UsedAt         *time.Time
}

func (ticket *Ticket) BeforeCreate(tx *gorm.DB) (err error) {
	if ticket.ID == uuid.Nil {
		ticket.ID = uuid.New()
	}
	return
}
