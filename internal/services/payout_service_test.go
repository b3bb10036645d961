package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aldenputra/tixgate/internal/logging"
	"github.com/aldenputra/tixgate/internal/models"
)

func TestRefundPolicy(t *testing.T) {
	now := time.Now()
	cases := []struct {
		name       string
		eventStart time.Time
		want       decimal.Decimal
	}{
		{"ten days out", now.Add(10 * 24 * time.Hour), decimal.NewFromInt(1)},
		{"exactly seven days", now.Add(7 * 24 * time.Hour), decimal.NewFromInt(1)},
		{"five days out", now.Add(5 * 24 * time.Hour), decimal.NewFromFloat(0.5)},
		{"exactly three days", now.Add(3 * 24 * time.Hour), decimal.NewFromFloat(0.5)},
		{"two days out", now.Add(2 * 24 * time.Hour), decimal.Zero},
		{"event started", now.Add(-time.Hour), decimal.Zero},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := RefundPolicy(tc.eventStart, now)
			assert.True(t, got.Equal(tc.want), "want %s, got %s", tc.want, got)
		})
	}
}

// paidTicket reserves and settles one ticket, leaving a pending payout hold
// whose HoldUntil is derived from the event end plus the given grace.
func paidTicket(t *testing.T, startIn time.Duration, grace time.Duration) (*stubStore, models.Event, models.TicketTemplate, *models.Ticket) {
	t.Helper()
	st, event, template := fixtureStore(startIn, 5)
	log := logging.NewTestLogger()
	codes := NewCodeGenerator("test-secret")

	reservations := NewReservationService(st, 15*time.Minute, log)
	ticket, err := reservations.Reserve(context.Background(), reserveInput(template.ID))
	require.NoError(t, err)

	reconciler := NewReconcileService(st, codes, &recordingNotifier{}, nil, grace, log)
	outcome, err := reconciler.Reconcile(context.Background(), Notification{
		ID:         "NOTIF-1",
		Type:       NotificationSuccess,
		SessionRef: ticket.SessionRef,
		PaymentRef: "PAY-1",
		Amount:     ticket.PricePaid,
	})
	require.NoError(t, err)
	require.Equal(t, OutcomeConfirmed, outcome)

	return st, event, template, ticket
}

func TestSweep_ReleasesElapsedHold(t *testing.T) {
	// Event already over and the grace window is zero, so the hold is due.
	st, event, _, _ := paidTicket(t, -48*time.Hour, 0)
	svc := NewPayoutService(st, 0, 0.25, logging.NewTestLogger())

	released, err := svc.Sweep(context.Background())
	require.NoError(t, err)
	require.Len(t, released, 1)

	payout := released[0]
	assert.Equal(t, models.PayoutReleased, payout.Status)
	assert.Equal(t, event.UserID, payout.OrganizerID)
	assert.True(t, strings.HasPrefix(payout.ReleaseRef, "PAYOUT-"))

	stored, ok := st.payoutCopyForEvent(event.ID)
	require.True(t, ok)
	assert.Equal(t, models.PayoutReleased, stored.Status)
	assert.Equal(t, payout.ReleaseRef, stored.ReleaseRef)
}

func TestSweep_FutureHoldStaysPending(t *testing.T) {
	st, event, _, _ := paidTicket(t, 10*24*time.Hour, 7*24*time.Hour)
	svc := NewPayoutService(st, 7*24*time.Hour, 0.25, logging.NewTestLogger())

	released, err := svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Empty(t, released)

	stored, ok := st.payoutCopyForEvent(event.ID)
	require.True(t, ok)
	assert.Equal(t, models.PayoutPending, stored.Status)
}

func TestSweep_Rerunnable(t *testing.T) {
	st, _, _, _ := paidTicket(t, -48*time.Hour, 0)
	svc := NewPayoutService(st, 0, 0.25, logging.NewTestLogger())

	first, err := svc.Sweep(context.Background())
	require.NoError(t, err)
	second, err := svc.Sweep(context.Background())
	require.NoError(t, err)

	assert.Len(t, first, 1)
	assert.Empty(t, second)
}

func TestSweep_DisputedEventHeldForReview(t *testing.T) {
	st, event, _, _ := paidTicket(t, -48*time.Hour, 0)
	event.Disputed = true
	st.addEvent(event)
	svc := NewPayoutService(st, 0, 0.25, logging.NewTestLogger())

	released, err := svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Empty(t, released)

	stored, _ := st.payoutCopyForEvent(event.ID)
	assert.Equal(t, models.PayoutPending, stored.Status)
}

func TestSweep_HighRefundRateHeldForReview(t *testing.T) {
	st, event, _, ticket := paidTicket(t, -48*time.Hour, 0)

	won, err := st.MarkRefunded(context.Background(), ticket.ID)
	require.NoError(t, err)
	require.True(t, won)

	svc := NewPayoutService(st, 0, 0.25, logging.NewTestLogger())
	released, err := svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Empty(t, released)

	stored, _ := st.payoutCopyForEvent(event.ID)
	assert.Equal(t, models.PayoutPending, stored.Status)
}

func TestRefundTicket_FullRefund(t *testing.T) {
	st, event, template, ticket := paidTicket(t, 10*24*time.Hour, 7*24*time.Hour)
	svc := NewPayoutService(st, 7*24*time.Hour, 0.25, logging.NewTestLogger())

	amount, err := svc.RefundTicket(context.Background(), ticket.ID, time.Now())
	require.NoError(t, err)
	assert.True(t, amount.Equal(ticket.PricePaid), "want %s, got %s", ticket.PricePaid, amount)

	refunded := st.ticketCopy(ticket.ID)
	assert.Equal(t, models.TicketRefunded, refunded.Status)

	after := st.templateCopy(template.ID)
	assert.Equal(t, 0, after.QuantitySold)
	assert.Equal(t, 5, after.QuantityAvailable)

	payout, _ := st.payoutCopyForEvent(event.ID)
	assert.True(t, payout.Amount.IsZero(), "held amount should net to zero, got %s", payout.Amount)
}

func TestRefundTicket_PartialInsideSevenDays(t *testing.T) {
	st, event, _, ticket := paidTicket(t, 5*24*time.Hour, 7*24*time.Hour)
	svc := NewPayoutService(st, 7*24*time.Hour, 0.25, logging.NewTestLogger())

	amount, err := svc.RefundTicket(context.Background(), ticket.ID, time.Now())
	require.NoError(t, err)

	half := ticket.PricePaid.Mul(decimal.NewFromFloat(0.5)).Round(2)
	assert.True(t, amount.Equal(half), "want %s, got %s", half, amount)

	payout, _ := st.payoutCopyForEvent(event.ID)
	remaining := ticket.PricePaid.Sub(half)
	assert.True(t, payout.Amount.Equal(remaining), "want %s, got %s", remaining, payout.Amount)
}

func TestRefundTicket_WindowClosed(t *testing.T) {
	st, _, _, ticket := paidTicket(t, 24*time.Hour, 7*24*time.Hour)
	svc := NewPayoutService(st, 7*24*time.Hour, 0.25, logging.NewTestLogger())

	_, err := svc.RefundTicket(context.Background(), ticket.ID, time.Now())
	assert.ErrorIs(t, err, ErrRefundWindowClosed)
	assert.Equal(t, models.TicketValid, st.ticketCopy(ticket.ID).Status)
}

func TestRefundTicket_AlreadyUsedNotRefundable(t *testing.T) {
	st, _, _, ticket := paidTicket(t, 10*24*time.Hour, 7*24*time.Hour)

	won, err := st.MarkUsed(context.Background(), ticket.ID, time.Now())
	require.NoError(t, err)
	require.True(t, won)

	svc := NewPayoutService(st, 7*24*time.Hour, 0.25, logging.NewTestLogger())
	_, err = svc.RefundTicket(context.Background(), ticket.ID, time.Now())
	assert.ErrorIs(t, err, ErrTicketNotRefundable)
}

func TestRefundTicket_RefundTwiceRejected(t *testing.T) {
	st, _, _, ticket := paidTicket(t, 10*24*time.Hour, 7*24*time.Hour)
	svc := NewPayoutService(st, 7*24*time.Hour, 0.25, logging.NewTestLogger())

	_, err := svc.RefundTicket(context.Background(), ticket.ID, time.Now())
	require.NoError(t, err)

	_, err = svc.RefundTicket(context.Background(), ticket.ID, time.Now())
	assert.ErrorIs(t, err, ErrTicketNotRefundable)
}
