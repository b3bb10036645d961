package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const (
	codePrefix  = "TIX"
	codeHashLen = 12
)

// CodeGenerator derives admission codes from ticket identity and a
// server-side secret. The same inputs always yield the same code, so a
// retried reconciliation can never mint a second code for a ticket, and
// nobody without the secret can forge one. The ticket id is visible in the
// code on purpose; validity rests on the hash suffix and the store lookup.
type CodeGenerator struct {
	secret []byte
}

func NewCodeGenerator(secret string) *CodeGenerator {
	return &CodeGenerator{secret: []byte(secret)}
}

// Generate returns a code of the form "TIX-<ticketID>-<hash12>".
func (g *CodeGenerator) Generate(ticketID, eventID, buyerID uuid.UUID) string {
	return fmt.Sprintf("%s-%s-%s", codePrefix, ticketID, g.suffix(ticketID, eventID, buyerID))
}

// Verify recomputes the suffix for the given identity and compares it in
// constant time against the presented code.
func (g *CodeGenerator) Verify(code string, ticketID, eventID, buyerID uuid.UUID) bool {
	expected := g.Generate(ticketID, eventID, buyerID)
	return hmac.Equal([]byte(expected), []byte(code))
}

// TicketIDFromCode extracts the embedded ticket id without validating the
// suffix; callers must still verify against the store.
func TicketIDFromCode(code string) (uuid.UUID, error) {
	if !strings.HasPrefix(code, codePrefix+"-") {
		return uuid.Nil, fmt.Errorf("malformed code")
	}
	rest := strings.TrimPrefix(code, codePrefix+"-")
	idx := strings.LastIndex(rest, "-")
	if idx < 0 {
		return uuid.Nil, fmt.Errorf("malformed code")
	}
	return uuid.Parse(rest[:idx])
}

func (g *CodeGenerator) suffix(ticketID, eventID, buyerID uuid.UUID) string {
	mac := hmac.New(sha256.New, g.secret)
	fmt.Fprintf(mac, "%s:%s:%s", ticketID, eventID, buyerID)
	return hex.EncodeToString(mac.Sum(nil))[:codeHashLen]
}
