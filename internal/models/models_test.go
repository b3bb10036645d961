package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTerminalStatus(t *testing.T) {
	assert.False(t, TerminalStatus(TicketValid))
	assert.True(t, TerminalStatus(TicketUsed))
	assert.True(t, TerminalStatus(TicketCancelled))
	assert.True(t, TerminalStatus(TicketRefunded))
	assert.True(t, TerminalStatus(TicketExpired))
	assert.False(t, TerminalStatus("unknown"))
}

func TestValidTemplateType(t *testing.T) {
	valid := []string{
		TemplateTypeGeneral, TemplateTypeVIP, TemplateTypeEarlyBird,
		TemplateTypeDayPass, TemplateTypeMultiDay, TemplateTypeBackstage,
		TemplateTypeStudent, TemplateTypeGroup,
	}
	for _, templateType := range valid {
		assert.True(t, ValidTemplateType(templateType), templateType)
	}
	assert.False(t, ValidTemplateType("platinum"))
	assert.False(t, ValidTemplateType(""))
}
