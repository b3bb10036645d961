package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/aldenputra/tixgate/internal/models"
)

// Notifier is the side channel that tells a holder their ticket is
// confirmed. The reconciler calls it only after winning the paid
// transition, so a redelivered notification never produces a second send.
type Notifier interface {
	TicketConfirmed(ctx context.Context, ticket *models.Ticket, event *models.Event) error
}

// LogNotifier stands in for the external email/in-app collaborator.
type LogNotifier struct {
	log *zap.SugaredLogger
}

func NewLogNotifier(log *zap.SugaredLogger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) TicketConfirmed(ctx context.Context, ticket *models.Ticket, event *models.Event) error {
	code := ""
	if ticket.Code != nil {
		code = *ticket.Code
	}
	n.log.Infow("ticket confirmation notification",
		"ticket_id", ticket.ID,
		"holder_email", ticket.HolderEmail,
		"event", event.Title,
		"code", code,
	)
	return nil
}
