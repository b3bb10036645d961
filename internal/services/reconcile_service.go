package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/aldenputra/tixgate/internal/models"
	"github.com/aldenputra/tixgate/internal/store"
	"github.com/aldenputra/tixgate/monitoring"
)

const (
	NotificationSuccess = "payment.success"
	NotificationFailure = "payment.failure"
)

// Notification is the payment processor's outcome message, already past
// signature verification. Delivery is at-least-once and unordered relative
// to the reservation write.
type Notification struct {
	ID         string          `json:"notification_id"`
	Type       string          `json:"event_type"`
	SessionRef string          `json:"checkout_session_reference"`
	BuyerRef   string          `json:"buyer_reference"`
	EventRef   string          `json:"event_reference"`
	PaymentRef string          `json:"payment_reference"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency"`
}

type ReconcileOutcome string

const (
	OutcomeConfirmed        ReconcileOutcome = "confirmed"
	OutcomeFailed           ReconcileOutcome = "failed"
	OutcomeAlreadyProcessed ReconcileOutcome = "already_processed"
	OutcomeOrphaned         ReconcileOutcome = "orphaned"
	OutcomeStale            ReconcileOutcome = "stale"
	OutcomeIgnored          ReconcileOutcome = "ignored"
)

// ReconcileService advances provisional tickets when the processor reports
// a payment outcome. Matching is by checkout session reference with a
// deliberate buyer+event fallback for the race where the notification beats
// the reservation write. Every transition is a conditional update, so
// redelivered notifications collapse into no-ops.
type ReconcileService struct {
	store       store.TicketStore
	codes       *CodeGenerator
	notifier    Notifier
	redis       *redis.Client
	payoutGrace time.Duration
	log         *zap.SugaredLogger
}

func NewReconcileService(
	st store.TicketStore,
	codes *CodeGenerator,
	notifier Notifier,
	redisClient *redis.Client,
	payoutGrace time.Duration,
	log *zap.SugaredLogger,
) *ReconcileService {
	return &ReconcileService{
		store:       st,
		codes:       codes,
		notifier:    notifier,
		redis:       redisClient,
		payoutGrace: payoutGrace,
		log:         log,
	}
}

// Reconcile applies one verified notification. A non-nil error means the
// store misbehaved and the caller should leave the notification
// unacknowledged so the processor retries; every business outcome,
// including orphans, is acknowledged.
func (s *ReconcileService) Reconcile(ctx context.Context, n Notification) (ReconcileOutcome, error) {
	if s.alreadySeen(ctx, n.ID) {
		monitoring.TrackReconciliation(string(OutcomeAlreadyProcessed))
		return OutcomeAlreadyProcessed, nil
	}

	ticket, err := s.locate(ctx, n)
	if err != nil {
		return "", err
	}
	if ticket == nil {
		s.log.Errorw("reconciliation orphan: no ticket matched notification",
			"notification_id", n.ID,
			"session_ref", n.SessionRef,
			"buyer_ref", n.BuyerRef,
			"event_ref", n.EventRef,
		)
		monitoring.TrackReconciliation(string(OutcomeOrphaned))
		return OutcomeOrphaned, nil
	}

	// Only the two known outcome types may transition a ticket. Anything
	// else is acknowledged untouched; a paid transition must never ride on
	// a type this code has not seen before.
	var outcome ReconcileOutcome
	switch n.Type {
	case NotificationSuccess:
		outcome, err = s.applySuccess(ctx, ticket, n)
	case NotificationFailure:
		outcome, err = s.applyFailure(ctx, ticket)
	default:
		s.log.Warnw("ignoring notification with unrecognized type",
			"notification_id", n.ID,
			"event_type", n.Type,
			"ticket_id", ticket.ID,
		)
		outcome = OutcomeIgnored
	}
	if err != nil {
		return "", err
	}

	s.markSeen(ctx, n.ID)
	monitoring.TrackReconciliation(string(outcome))
	return outcome, nil
}

func (s *ReconcileService) locate(ctx context.Context, n Notification) (*models.Ticket, error) {
	ticket, err := s.store.GetTicketBySession(ctx, n.SessionRef)
	if err == nil {
		return ticket, nil
	}
	if err != store.ErrNotFound {
		return nil, err
	}

	// Session didn't match: the notification may have outrun the
	// reservation write, or the reference got mangled upstream. Fall back
	// to the buyer's single pending reservation for the event; the store's
	// uniqueness constraint guarantees there is at most one.
	buyerID, buyerErr := uuid.Parse(n.BuyerRef)
	eventID, eventErr := uuid.Parse(n.EventRef)
	if buyerErr != nil || eventErr != nil {
		return nil, nil
	}
	ticket, err = s.store.GetPendingTicketForBuyer(ctx, buyerID, eventID)
	if err == store.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.log.Warnw("reconciliation used buyer+event fallback match",
		"notification_id", n.ID,
		"session_ref", n.SessionRef,
		"ticket_id", ticket.ID,
	)
	monitoring.TrackFallbackMatch()
	return ticket, nil
}

func (s *ReconcileService) applySuccess(ctx context.Context, ticket *models.Ticket, n Notification) (ReconcileOutcome, error) {
	if ticket.PaymentStatus == models.PaymentPaid {
		return OutcomeAlreadyProcessed, nil
	}
	if ticket.PaymentStatus == models.PaymentFailed {
		s.log.Warnw("success notification for a settled ticket",
			"ticket_id", ticket.ID, "status", ticket.Status)
		return OutcomeStale, nil
	}

	if !n.Amount.IsZero() && !n.Amount.Equal(ticket.PricePaid) {
		s.log.Warnw("notification amount differs from reserved price",
			"ticket_id", ticket.ID,
			"notified", n.Amount,
			"reserved", ticket.PricePaid,
		)
	}

	event, err := s.store.GetEvent(ctx, ticket.EventID)
	if err != nil {
		return "", err
	}

	// The whole settlement commits in one transaction. If any write fails,
	// the ticket stays pending and the processor's retry runs the full
	// settlement again instead of short-circuiting on a half-applied state.
	code := s.codes.Generate(ticket.ID, ticket.EventID, ticket.BuyerAccountID)
	won, err := s.store.ConfirmPayment(ctx, store.PaymentConfirmation{
		TicketID:    ticket.ID,
		TemplateID:  ticket.TemplateID,
		EventID:     ticket.EventID,
		OrganizerID: event.UserID,
		Code:        code,
		PaymentRef:  n.PaymentRef,
		PaidAt:      time.Now(),
		Amount:      ticket.PricePaid,
		HoldUntil:   event.EndTime.Add(s.payoutGrace),
	})
	if err != nil {
		return "", err
	}
	if !won {
		current, err := s.store.GetTicket(ctx, ticket.ID)
		if err != nil {
			return "", err
		}
		if current.PaymentStatus == models.PaymentPaid {
			return OutcomeAlreadyProcessed, nil
		}
		return OutcomeStale, nil
	}

	confirmed, err := s.store.GetTicket(ctx, ticket.ID)
	if err != nil {
		return "", err
	}
	if err := s.notifier.TicketConfirmed(ctx, confirmed, event); err != nil {
		s.log.Errorw("holder notification failed", "ticket_id", ticket.ID, "error", err)
	}

	s.log.Infow("payment reconciled",
		"ticket_id", ticket.ID,
		"event_id", ticket.EventID,
		"payment_ref", n.PaymentRef,
	)
	return OutcomeConfirmed, nil
}

func (s *ReconcileService) applyFailure(ctx context.Context, ticket *models.Ticket) (ReconcileOutcome, error) {
	won, err := s.store.MarkFailed(ctx, ticket.ID)
	if err != nil {
		return "", err
	}
	if !won {
		current, err := s.store.GetTicket(ctx, ticket.ID)
		if err != nil {
			return "", err
		}
		if current.PaymentStatus == models.PaymentFailed {
			return OutcomeAlreadyProcessed, nil
		}
		// Failure after a success was already applied. Transitions are
		// one-directional; refunds are an explicit operation, not this.
		s.log.Warnw("failure notification for a paid ticket ignored", "ticket_id", ticket.ID)
		return OutcomeStale, nil
	}

	if err := s.store.ReleaseInventory(ctx, ticket.TemplateID); err != nil {
		return "", err
	}
	s.log.Infow("payment failure reconciled", "ticket_id", ticket.ID)
	return OutcomeFailed, nil
}

// alreadySeen is a fast path only: correctness always rests on the
// conditional updates above, so a cold or absent cache just means more
// no-op transitions.
func (s *ReconcileService) alreadySeen(ctx context.Context, notificationID string) bool {
	if s.redis == nil || notificationID == "" {
		return false
	}
	n, err := s.redis.Exists(ctx, "webhook:seen:"+notificationID).Result()
	return err == nil && n > 0
}

func (s *ReconcileService) markSeen(ctx context.Context, notificationID string) {
	if s.redis == nil || notificationID == "" {
		return
	}
	s.redis.Set(ctx, "webhook:seen:"+notificationID, 1, 24*time.Hour)
}
