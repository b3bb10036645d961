package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/aldenputra/tixgate/internal/models"
	"github.com/aldenputra/tixgate/internal/store"
	"github.com/aldenputra/tixgate/monitoring"
)

var (
	ErrRefundWindowClosed  = errors.New("event is too close to refund this ticket")
	ErrTicketNotRefundable = errors.New("ticket is not in a refundable state")
)

// Refund policy windows, counted back from event start.
const (
	fullRefundDays    = 7
	partialRefundDays = 3
)

// RefundPolicy returns the refundable fraction of the price paid: full at
// seven days or more before the event, half between three and seven days,
// nothing inside three days. The payout hold window exists so this whole
// schedule elapses before organizer funds are released.
func RefundPolicy(eventStart, now time.Time) decimal.Decimal {
	until := eventStart.Sub(now)
	switch {
	case until >= fullRefundDays*24*time.Hour:
		return decimal.NewFromInt(1)
	case until >= partialRefundDays*24*time.Hour:
		return decimal.NewFromFloat(0.5)
	default:
		return decimal.Zero
	}
}

// PayoutService releases held organizer funds once an event's hold window
// has elapsed and no disqualifying signal is present.
type PayoutService struct {
	store           store.TicketStore
	grace           time.Duration
	refundThreshold float64
	log             *zap.SugaredLogger
}

func NewPayoutService(st store.TicketStore, grace time.Duration, refundThreshold float64, log *zap.SugaredLogger) *PayoutService {
	return &PayoutService{
		store:           st,
		grace:           grace,
		refundThreshold: refundThreshold,
		log:             log,
	}
}

// Sweep releases every due payout that isn't disqualified. Disqualified
// payouts are left pending and logged for manual review; rerunning the
// sweep over an already-released payout is a no-op thanks to the
// conditional release.
func (s *PayoutService) Sweep(ctx context.Context) ([]models.Payout, error) {
	due, err := s.store.DuePayouts(ctx, time.Now())
	if err != nil {
		return nil, err
	}

	var released []models.Payout
	for _, payout := range due {
		disqualified, reason, err := s.disqualified(ctx, payout)
		if err != nil {
			s.log.Errorw("payout disqualification check failed",
				"payout_id", payout.ID, "error", err)
			continue
		}
		if disqualified {
			monitoring.TrackPayout("held_for_review")
			s.log.Warnw("payout held for manual review",
				"payout_id", payout.ID,
				"event_id", payout.EventID,
				"reason", reason,
			)
			continue
		}

		releaseRef := fmt.Sprintf("PAYOUT-%s", uuid.New())
		won, err := s.store.ReleasePayout(ctx, payout.ID, releaseRef)
		if err != nil {
			s.log.Errorw("payout release failed", "payout_id", payout.ID, "error", err)
			continue
		}
		if !won {
			continue
		}

		payout.Status = models.PayoutReleased
		payout.ReleaseRef = releaseRef
		released = append(released, payout)
		monitoring.TrackPayout("released")
		s.log.Infow("payout released",
			"payout_id", payout.ID,
			"organizer_id", payout.OrganizerID,
			"event_id", payout.EventID,
			"amount", payout.Amount,
			"release_ref", releaseRef,
		)
	}
	return released, nil
}

func (s *PayoutService) disqualified(ctx context.Context, payout models.Payout) (bool, string, error) {
	event, err := s.store.GetEvent(ctx, payout.EventID)
	if err != nil {
		return false, "", err
	}
	if event.Disputed {
		return true, "event disputed", nil
	}

	rate, err := s.store.RefundRate(ctx, payout.EventID)
	if err != nil {
		return false, "", err
	}
	if rate > s.refundThreshold {
		return true, fmt.Sprintf("refund rate %.2f above threshold", rate), nil
	}
	return false, "", nil
}

// RunSweeper drives Sweep on a fixed interval until the context is
// cancelled.
func (s *PayoutService) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				s.log.Errorw("payout sweep failed", "error", err)
			}
		}
	}
}

// RefundTicket is the explicit terminal-state entry point for refunds. The
// refunded unit goes back on sale and the organizer's held amount shrinks
// by the refunded fraction.
func (s *PayoutService) RefundTicket(ctx context.Context, ticketID uuid.UUID, now time.Time) (decimal.Decimal, error) {
	ticket, err := s.store.GetTicket(ctx, ticketID)
	if err != nil {
		return decimal.Zero, err
	}
	event, err := s.store.GetEvent(ctx, ticket.EventID)
	if err != nil {
		return decimal.Zero, err
	}

	fraction := RefundPolicy(event.StartTime, now)
	if fraction.IsZero() {
		return decimal.Zero, ErrRefundWindowClosed
	}

	won, err := s.store.MarkRefunded(ctx, ticket.ID)
	if err != nil {
		return decimal.Zero, err
	}
	if !won {
		return decimal.Zero, ErrTicketNotRefundable
	}

	if err := s.store.RestockSold(ctx, ticket.TemplateID); err != nil {
		s.log.Errorw("failed to restock refunded ticket",
			"ticket_id", ticket.ID, "template_id", ticket.TemplateID, "error", err)
	}

	amount := ticket.PricePaid.Mul(fraction).Round(2)
	holdUntil := event.EndTime.Add(s.grace)
	if err := s.store.AddToPayoutHold(ctx, event.UserID, event.ID, amount.Neg(), holdUntil); err != nil {
		s.log.Errorw("failed to deduct refund from payout hold",
			"ticket_id", ticket.ID, "event_id", event.ID, "error", err)
	}

	monitoring.TrackPayout("refund_deducted")
	s.log.Infow("ticket refunded",
		"ticket_id", ticket.ID,
		"amount", amount,
		"fraction", fraction,
	)
	return amount, nil
}
