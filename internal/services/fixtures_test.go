package services

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aldenputra/tixgate/internal/models"
)

func fixtureEvent(startIn time.Duration) models.Event {
	start := time.Now().Add(startIn)
	return models.Event{
		ID:        uuid.New(),
		Title:     "Jakarta Jazz Night",
		StartTime: start,
		EndTime:   start.Add(4 * time.Hour),
		UserID:    uuid.New(),
	}
}

func fixtureTemplate(eventID uuid.UUID, quantity int) models.TicketTemplate {
	return models.TicketTemplate{
		ID:                uuid.New(),
		Name:              "General Admission",
		Type:              models.TemplateTypeGeneral,
		Price:             decimal.NewFromInt(150000),
		QuantityTotal:     quantity,
		QuantityAvailable: quantity,
		EventID:           eventID,
	}
}

func fixtureStore(startIn time.Duration, quantity int) (*stubStore, models.Event, models.TicketTemplate) {
	st := newStubStore()
	event := fixtureEvent(startIn)
	template := fixtureTemplate(event.ID, quantity)
	st.addEvent(event)
	st.addTemplate(template)
	return st, event, template
}
