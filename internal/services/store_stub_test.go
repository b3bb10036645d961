package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aldenputra/tixgate/internal/models"
	"github.com/aldenputra/tixgate/internal/store"
)

// stubStore implements store.TicketStore in memory with the same
// conditional-update semantics the real store provides, so service tests
// can exercise concurrent transitions without a database.
type stubStore struct {
	mu        sync.Mutex
	templates map[uuid.UUID]*models.TicketTemplate
	tickets   map[uuid.UUID]*models.Ticket
	events    map[uuid.UUID]*models.Event
	payouts   map[uuid.UUID]*models.Payout
}

func newStubStore() *stubStore {
	return &stubStore{
		templates: make(map[uuid.UUID]*models.TicketTemplate),
		tickets:   make(map[uuid.UUID]*models.Ticket),
		events:    make(map[uuid.UUID]*models.Event),
		payouts:   make(map[uuid.UUID]*models.Payout),
	}
}

func (s *stubStore) addEvent(event models.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.ID] = &event
}

func (s *stubStore) addTemplate(template models.TicketTemplate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates[template.ID] = &template
}

func (s *stubStore) ticketCopy(id uuid.UUID) models.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := *s.tickets[id]
	return t
}

func (s *stubStore) templateCopy(id uuid.UUID) models.TicketTemplate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.templates[id]
}

func (s *stubStore) payoutCopyForEvent(eventID uuid.UUID) (models.Payout, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.payouts {
		if p.EventID == eventID {
			return *p, true
		}
	}
	return models.Payout{}, false
}

func (s *stubStore) GetTemplate(ctx context.Context, id uuid.UUID) (*models.TicketTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	template, ok := s.templates[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *template
	return &copied, nil
}

func (s *stubStore) HoldInventory(ctx context.Context, templateID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	template, ok := s.templates[templateID]
	if !ok {
		return store.ErrNotFound
	}
	if template.QuantityAvailable <= 0 {
		return store.ErrInventoryExhausted
	}
	template.QuantityAvailable--
	return nil
}

func (s *stubStore) ReleaseInventory(ctx context.Context, templateID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	template, ok := s.templates[templateID]
	if !ok {
		return store.ErrNotFound
	}
	if template.QuantityAvailable < template.QuantityTotal {
		template.QuantityAvailable++
	}
	return nil
}

func (s *stubStore) RestockSold(ctx context.Context, templateID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	template, ok := s.templates[templateID]
	if !ok {
		return store.ErrNotFound
	}
	if template.QuantitySold > 0 {
		template.QuantitySold--
		template.QuantityAvailable++
	}
	return nil
}

func (s *stubStore) CreateTicket(ctx context.Context, ticket *models.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.tickets {
		if existing.SessionRef == ticket.SessionRef {
			return fmt.Errorf("duplicate session reference")
		}
		if existing.BuyerAccountID == ticket.BuyerAccountID &&
			existing.EventID == ticket.EventID &&
			existing.PaymentStatus == models.PaymentPending {
			return store.ErrPendingReservationExists
		}
	}
	now := time.Now()
	copied := *ticket
	copied.CreatedAt = now
	s.tickets[ticket.ID] = &copied
	ticket.CreatedAt = now
	return nil
}

func (s *stubStore) GetTicket(ctx context.Context, id uuid.UUID) (*models.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ticket, ok := s.tickets[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return s.withTemplate(ticket), nil
}

func (s *stubStore) GetTicketByCode(ctx context.Context, code string) (*models.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ticket := range s.tickets {
		if ticket.Code != nil && *ticket.Code == code {
			return s.withTemplate(ticket), nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *stubStore) GetTicketBySession(ctx context.Context, sessionRef string) (*models.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ticket := range s.tickets {
		if ticket.SessionRef == sessionRef {
			return s.withTemplate(ticket), nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *stubStore) GetPendingTicketForBuyer(ctx context.Context, buyerID, eventID uuid.UUID) (*models.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ticket := range s.tickets {
		if ticket.BuyerAccountID == buyerID &&
			ticket.EventID == eventID &&
			ticket.PaymentStatus == models.PaymentPending {
			return s.withTemplate(ticket), nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *stubStore) ListTicketsForBuyer(ctx context.Context, buyerID uuid.UUID) ([]models.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Ticket
	for _, ticket := range s.tickets {
		if ticket.BuyerAccountID == buyerID {
			out = append(out, *s.withTemplate(ticket))
		}
	}
	return out, nil
}

// ConfirmPayment mirrors the real store's transactional settlement: under
// one lock, either everything lands or nothing does.
func (s *stubStore) ConfirmPayment(ctx context.Context, conf store.PaymentConfirmation) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ticket, ok := s.tickets[conf.TicketID]
	if !ok || ticket.PaymentStatus != models.PaymentPending {
		return false, nil
	}

	code := conf.Code
	paidAt := conf.PaidAt
	ticket.PaymentStatus = models.PaymentPaid
	ticket.Code = &code
	ticket.PaymentRef = conf.PaymentRef
	ticket.PaidAt = &paidAt

	if template, ok := s.templates[conf.TemplateID]; ok {
		template.QuantitySold++
	}

	if event, ok := s.events[conf.EventID]; ok {
		var attendees int
		for _, t := range s.tickets {
			if t.EventID == conf.EventID && t.PaymentStatus == models.PaymentPaid {
				attendees++
			}
		}
		event.AttendeeCount = attendees
	}

	for _, payout := range s.payouts {
		if payout.EventID == conf.EventID {
			payout.Amount = payout.Amount.Add(conf.Amount)
			return true, nil
		}
	}
	id := uuid.New()
	s.payouts[id] = &models.Payout{
		ID:          id,
		OrganizerID: conf.OrganizerID,
		EventID:     conf.EventID,
		Amount:      conf.Amount,
		Status:      models.PayoutPending,
		HoldUntil:   conf.HoldUntil,
	}
	return true, nil
}

func (s *stubStore) MarkFailed(ctx context.Context, ticketID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ticket, ok := s.tickets[ticketID]
	if !ok || ticket.PaymentStatus != models.PaymentPending {
		return false, nil
	}
	ticket.PaymentStatus = models.PaymentFailed
	ticket.Status = models.TicketCancelled
	return true, nil
}

func (s *stubStore) MarkUsed(ctx context.Context, ticketID uuid.UUID, usedAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ticket, ok := s.tickets[ticketID]
	if !ok || ticket.Status != models.TicketValid || ticket.PaymentStatus != models.PaymentPaid {
		return false, nil
	}
	ticket.Status = models.TicketUsed
	ticket.UsedAt = &usedAt
	return true, nil
}

func (s *stubStore) MarkRefunded(ctx context.Context, ticketID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ticket, ok := s.tickets[ticketID]
	if !ok || ticket.Status != models.TicketValid || ticket.PaymentStatus != models.PaymentPaid {
		return false, nil
	}
	ticket.Status = models.TicketRefunded
	return true, nil
}

func (s *stubStore) ListExpiredPending(ctx context.Context, cutoff time.Time) ([]models.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Ticket
	for _, ticket := range s.tickets {
		if ticket.PaymentStatus == models.PaymentPending && ticket.CreatedAt.Before(cutoff) {
			out = append(out, *ticket)
		}
	}
	return out, nil
}

func (s *stubStore) ExpireTicket(ctx context.Context, ticketID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ticket, ok := s.tickets[ticketID]
	if !ok || ticket.PaymentStatus != models.PaymentPending {
		return false, nil
	}
	ticket.PaymentStatus = models.PaymentFailed
	ticket.Status = models.TicketExpired
	return true, nil
}

func (s *stubStore) GetEvent(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	event, ok := s.events[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *event
	return &copied, nil
}

func (s *stubStore) RefundRate(ctx context.Context, eventID uuid.UUID) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var paid, refunded float64
	for _, ticket := range s.tickets {
		if ticket.EventID != eventID {
			continue
		}
		if ticket.PaymentStatus == models.PaymentPaid {
			paid++
		}
		if ticket.Status == models.TicketRefunded {
			refunded++
		}
	}
	if paid == 0 {
		return 0, nil
	}
	return refunded / paid, nil
}

func (s *stubStore) AddToPayoutHold(ctx context.Context, organizerID, eventID uuid.UUID, amount decimal.Decimal, holdUntil time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, payout := range s.payouts {
		if payout.EventID == eventID {
			payout.Amount = payout.Amount.Add(amount)
			return nil
		}
	}
	id := uuid.New()
	s.payouts[id] = &models.Payout{
		ID:          id,
		OrganizerID: organizerID,
		EventID:     eventID,
		Amount:      amount,
		Status:      models.PayoutPending,
		HoldUntil:   holdUntil,
	}
	return nil
}

func (s *stubStore) DuePayouts(ctx context.Context, now time.Time) ([]models.Payout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Payout
	for _, payout := range s.payouts {
		if payout.Status == models.PayoutPending && !payout.HoldUntil.After(now) {
			out = append(out, *payout)
		}
	}
	return out, nil
}

func (s *stubStore) ReleasePayout(ctx context.Context, payoutID uuid.UUID, releaseRef string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	payout, ok := s.payouts[payoutID]
	if !ok || payout.Status != models.PayoutPending {
		return false, nil
	}
	payout.Status = models.PayoutReleased
	payout.ReleaseRef = releaseRef
	return true, nil
}

func (s *stubStore) withTemplate(ticket *models.Ticket) *models.Ticket {
	copied := *ticket
	if template, ok := s.templates[ticket.TemplateID]; ok {
		copied.Template = *template
	}
	return &copied
}
