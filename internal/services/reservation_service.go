package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/aldenputra/tixgate/internal/models"
	"github.com/aldenputra/tixgate/internal/store"
	"github.com/aldenputra/tixgate/monitoring"
)

type ReserveInput struct {
	TemplateID      uuid.UUID
	BuyerID         uuid.UUID
	HolderName      string
	HolderEmail     string
	SessionRef      string
	DiscountPercent int
}

// ReservationService creates provisional tickets. The inventory hold is
// taken before the ticket row is written so a competing checkout can never
// oversell; if the ticket write loses (duplicate pending reservation), the
// hold is handed back.
type ReservationService struct {
	store   store.TicketStore
	holdTTL time.Duration
	log     *zap.SugaredLogger
}

func NewReservationService(st store.TicketStore, holdTTL time.Duration, log *zap.SugaredLogger) *ReservationService {
	return &ReservationService{store: st, holdTTL: holdTTL, log: log}
}

func (s *ReservationService) Reserve(ctx context.Context, in ReserveInput) (*models.Ticket, error) {
	template, err := s.store.GetTemplate(ctx, in.TemplateID)
	if err != nil {
		return nil, err
	}

	// IDR has no subunit, so discounted prices settle on whole rupiah;
	// the payment processor only accepts integral amounts.
	price := template.Price
	if in.DiscountPercent > 0 {
		price = price.
			Mul(decimal.NewFromInt(int64(100 - in.DiscountPercent))).
			Div(decimal.NewFromInt(100)).
			Round(0)
	}

	if err := s.store.HoldInventory(ctx, in.TemplateID); err != nil {
		if err == store.ErrInventoryExhausted {
			monitoring.TrackReservation("exhausted")
		}
		return nil, err
	}

	ticket := &models.Ticket{
		ID:             uuid.New(),
		HolderName:     in.HolderName,
		HolderEmail:    in.HolderEmail,
		BuyerAccountID: in.BuyerID,
		EventID:        template.EventID,
		TemplateID:     template.ID,
		PricePaid:      price,
		PaymentStatus:  models.PaymentPending,
		Status:         models.TicketValid,
		SessionRef:     in.SessionRef,
	}

	if err := s.store.CreateTicket(ctx, ticket); err != nil {
		// Hand the hold back; the reservation never existed.
		if relErr := s.store.ReleaseInventory(ctx, in.TemplateID); relErr != nil {
			s.log.Errorw("failed to release inventory after reservation failure",
				"template_id", in.TemplateID, "error", relErr)
		}
		monitoring.TrackReservation("rejected")
		return nil, err
	}

	monitoring.TrackReservation("created")
	s.log.Infow("reservation created",
		"ticket_id", ticket.ID,
		"template_id", template.ID,
		"session_ref", in.SessionRef,
	)
	return ticket, nil
}

// SweepExpired releases the inventory of pending reservations whose
// checkout session has passed its expiry. Safe to run concurrently with
// live reconciliation: the pending->expired transition is conditional, so a
// ticket that gets paid mid-sweep is left alone.
func (s *ReservationService) SweepExpired(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-s.holdTTL)
	stale, err := s.store.ListExpiredPending(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	swept := 0
	for _, ticket := range stale {
		won, err := s.store.ExpireTicket(ctx, ticket.ID)
		if err != nil {
			s.log.Errorw("failed to expire reservation", "ticket_id", ticket.ID, "error", err)
			continue
		}
		if !won {
			continue
		}
		if err := s.store.ReleaseInventory(ctx, ticket.TemplateID); err != nil {
			s.log.Errorw("failed to restock expired reservation",
				"ticket_id", ticket.ID, "template_id", ticket.TemplateID, "error", err)
			continue
		}
		monitoring.TrackExpiredReservation()
		swept++
	}

	if swept > 0 {
		s.log.Infow("expired reservations swept", "count", swept)
	}
	return swept, nil
}

// RunExpirySweeper drives SweepExpired on a fixed interval until the
// context is cancelled.
func (s *ReservationService) RunExpirySweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.SweepExpired(ctx); err != nil {
				s.log.Errorw("expiry sweep failed", "error", err)
			}
		}
	}
}
