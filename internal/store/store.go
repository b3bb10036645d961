package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aldenputra/tixgate/internal/models"
)

var (
	ErrNotFound                 = errors.New("record not found")
	ErrInventoryExhausted       = errors.New("no tickets available for this template")
	ErrPendingReservationExists = errors.New("buyer already has a pending reservation for this event")
)

// PaymentConfirmation carries everything the pending->paid settlement
// writes: the ticket's paid fields, the template whose sale count grows,
// the event whose attendee count is recomputed, and the organizer's payout
// hold contribution.
type PaymentConfirmation struct {
	TicketID    uuid.UUID
	TemplateID  uuid.UUID
	EventID     uuid.UUID
	OrganizerID uuid.UUID
	Code        string
	PaymentRef  string
	PaidAt      time.Time
	Amount      decimal.Decimal
	HoldUntil   time.Time
}

// TicketStore is the single writer of truth for tickets, templates and
// payouts. Every state transition is a conditional update: callers get a
// boolean telling them whether their transition won, and losing a transition
// is never an error. This is the only synchronization primitive the
// reservation, reconciliation and verification paths share.
type TicketStore interface {
	// Inventory.
	GetTemplate(ctx context.Context, id uuid.UUID) (*models.TicketTemplate, error)
	HoldInventory(ctx context.Context, templateID uuid.UUID) error
	ReleaseInventory(ctx context.Context, templateID uuid.UUID) error
	RestockSold(ctx context.Context, templateID uuid.UUID) error

	// Tickets.
	CreateTicket(ctx context.Context, ticket *models.Ticket) error
	GetTicket(ctx context.Context, id uuid.UUID) (*models.Ticket, error)
	GetTicketByCode(ctx context.Context, code string) (*models.Ticket, error)
	GetTicketBySession(ctx context.Context, sessionRef string) (*models.Ticket, error)
	GetPendingTicketForBuyer(ctx context.Context, buyerID, eventID uuid.UUID) (*models.Ticket, error)
	ListTicketsForBuyer(ctx context.Context, buyerID uuid.UUID) ([]models.Ticket, error)
	// ConfirmPayment is the paid CAS plus its settlement side effects (sale
	// count, attendee recount, payout hold) in one transaction: either the
	// whole settlement commits or the ticket stays pending and a redelivery
	// can run it again.
	ConfirmPayment(ctx context.Context, conf PaymentConfirmation) (bool, error)
	MarkFailed(ctx context.Context, ticketID uuid.UUID) (bool, error)
	MarkUsed(ctx context.Context, ticketID uuid.UUID, usedAt time.Time) (bool, error)
	MarkRefunded(ctx context.Context, ticketID uuid.UUID) (bool, error)
	ListExpiredPending(ctx context.Context, cutoff time.Time) ([]models.Ticket, error)
	ExpireTicket(ctx context.Context, ticketID uuid.UUID) (bool, error)

	// Event aggregates.
	GetEvent(ctx context.Context, id uuid.UUID) (*models.Event, error)
	RefundRate(ctx context.Context, eventID uuid.UUID) (float64, error)

	// Payouts.
	AddToPayoutHold(ctx context.Context, organizerID, eventID uuid.UUID, amount decimal.Decimal, holdUntil time.Time) error
	DuePayouts(ctx context.Context, now time.Time) ([]models.Payout, error)
	ReleasePayout(ctx context.Context, payoutID uuid.UUID, releaseRef string) (bool, error)
}
