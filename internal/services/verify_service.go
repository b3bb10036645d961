package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aldenputra/tixgate/internal/models"
	"github.com/aldenputra/tixgate/internal/store"
	"github.com/aldenputra/tixgate/monitoring"
)

const (
	ResultGranted   = "granted"
	ResultDuplicate = "duplicate"
	ResultInvalid   = "invalid"
)

// reasonNotValid is the single reason surfaced for every invalid outcome.
// Wrong event, unpaid, unknown and terminal tickets all look the same to
// the verifier so codes cannot be enumerated from the door.
const reasonNotValid = "not_valid_for_entry"

type VerifyRequest struct {
	Code       string
	ManualID   string
	EventID    uuid.UUID
	VerifierID uuid.UUID
}

type VerifyResult struct {
	Result         string     `json:"result"`
	HolderName     string     `json:"holder_name,omitempty"`
	TicketTypeName string     `json:"ticket_type_name,omitempty"`
	UsedAt         *time.Time `json:"used_at,omitempty"`
	Reason         string     `json:"reason,omitempty"`
}

// VerifyService admits ticket holders at the door. Scanned codes and
// manually typed ids converge on the same lookup, and consumption is a
// conditional valid->used update so two concurrent scans of one ticket
// produce exactly one grant.
type VerifyService struct {
	store store.TicketStore
	codes *CodeGenerator
	log   *zap.SugaredLogger
}

func NewVerifyService(st store.TicketStore, codes *CodeGenerator, log *zap.SugaredLogger) *VerifyService {
	return &VerifyService{store: st, codes: codes, log: log}
}

func (s *VerifyService) Verify(ctx context.Context, req VerifyRequest) (VerifyResult, error) {
	ticket, err := s.resolve(ctx, req)
	if err == store.ErrNotFound {
		return s.invalid(), nil
	}
	if err != nil {
		return VerifyResult{}, err
	}

	if ticket.EventID != req.EventID {
		s.log.Warnw("cross-event verification attempt",
			"ticket_id", ticket.ID,
			"ticket_event", ticket.EventID,
			"scanned_event", req.EventID,
			"verifier", req.VerifierID,
		)
		return s.invalid(), nil
	}

	if ticket.PaymentStatus != models.PaymentPaid {
		return s.invalid(), nil
	}
	if ticket.Status == models.TicketUsed {
		return s.duplicate(ticket), nil
	}
	if ticket.Status != models.TicketValid {
		return s.invalid(), nil
	}

	won, err := s.store.MarkUsed(ctx, ticket.ID, time.Now())
	if err != nil {
		return VerifyResult{}, err
	}
	if !won {
		// Lost to a concurrent scan or a just-landed refund.
		current, err := s.store.GetTicket(ctx, ticket.ID)
		if err != nil {
			return VerifyResult{}, err
		}
		if current.Status == models.TicketUsed {
			return s.duplicate(current), nil
		}
		return s.invalid(), nil
	}

	monitoring.TrackVerification(ResultGranted)
	s.log.Infow("entry granted",
		"ticket_id", ticket.ID,
		"event_id", req.EventID,
		"verifier", req.VerifierID,
	)
	return VerifyResult{
		Result:         ResultGranted,
		HolderName:     ticket.HolderName,
		TicketTypeName: ticket.Template.Name,
	}, nil
}

func (s *VerifyService) resolve(ctx context.Context, req VerifyRequest) (*models.Ticket, error) {
	if req.Code != "" {
		ticket, err := s.store.GetTicketByCode(ctx, req.Code)
		if err == store.ErrNotFound {
			// A mangled scan still carries the ticket id in the code body;
			// the suffix recheck below decides whether it gets in.
			ticket, err = s.resolveByEmbeddedID(ctx, req.Code)
		}
		if err != nil {
			return nil, err
		}
		if !s.codes.Verify(req.Code, ticket.ID, ticket.EventID, ticket.BuyerAccountID) {
			return nil, store.ErrNotFound
		}
		return ticket, nil
	}

	ticketID, err := uuid.Parse(req.ManualID)
	if err != nil {
		return nil, store.ErrNotFound
	}
	return s.store.GetTicket(ctx, ticketID)
}

func (s *VerifyService) resolveByEmbeddedID(ctx context.Context, code string) (*models.Ticket, error) {
	ticketID, err := TicketIDFromCode(code)
	if err != nil {
		return nil, store.ErrNotFound
	}
	return s.store.GetTicket(ctx, ticketID)
}

func (s *VerifyService) duplicate(ticket *models.Ticket) VerifyResult {
	monitoring.TrackVerification(ResultDuplicate)
	return VerifyResult{
		Result:         ResultDuplicate,
		HolderName:     ticket.HolderName,
		TicketTypeName: ticket.Template.Name,
		UsedAt:         ticket.UsedAt,
	}
}

func (s *VerifyService) invalid() VerifyResult {
	monitoring.TrackVerification(ResultInvalid)
	return VerifyResult{
		Result: ResultInvalid,
		Reason: reasonNotValid,
	}
}
