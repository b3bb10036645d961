package helpers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"time"

	"github.com/google/uuid"
)

// DokuHeaderGenerator signs outbound checkout requests the way the
// processor's API expects: a SHA-256 digest of the body folded into an
// HMAC-SHA256 over the canonical header components.
type DokuHeaderGenerator struct {
	ClientID    string
	SecretKey   string
	RequestID   string
	RequestPath string
}

func NewDokuHeaderGenerator(clientID, secretKey, requestPath string) *DokuHeaderGenerator {
	return &DokuHeaderGenerator{
		ClientID:    clientID,
		SecretKey:   secretKey,
		RequestID:   uuid.New().String(),
		RequestPath: requestPath,
	}
}

func (d *DokuHeaderGenerator) GenerateDigest(jsonBody string) string {
	hash := sha256.Sum256([]byte(jsonBody))
	return base64.StdEncoding.EncodeToString(hash[:])
}

func (d *DokuHeaderGenerator) GenerateSignature(digest, requestTimestamp string) string {
	componentSignature := "Client-Id:" + d.ClientID + "\n" +
		"Request-Id:" + d.RequestID + "\n" +
		"Request-Timestamp:" + requestTimestamp + "\n" +
		"Request-Target:" + d.RequestPath + "\n" +
		"Digest:" + digest

	mac := hmac.New(sha256.New, []byte(d.SecretKey))
	mac.Write([]byte(componentSignature))
	signature := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return "HMACSHA256=" + signature
}

func (d *DokuHeaderGenerator) GetHeaders(jsonBody string) map[string]string {
	requestTimestamp := time.Now().UTC().Format("2006-01-02T15:04:05Z")
	digest := d.GenerateDigest(jsonBody)
	signature := d.GenerateSignature(digest, requestTimestamp)

	return map[string]string{
		"Client-Id":         d.ClientID,
		"Request-Id":        d.RequestID,
		"Request-Timestamp": requestTimestamp,
		"Signature":         signature,
		"Content-Type":      "application/json",
		"Digest":            digest,
	}
}

// NotificationSignatureInput carries the headers and body of an inbound
// payment notification.
type NotificationSignatureInput struct {
	ClientID         string
	RequestID        string
	RequestTimestamp string
	RequestTarget    string
	Signature        string
	Body             []byte
}

// VerifyNotificationSignature checks an inbound webhook against our shared
// secret using the same canonical string the outbound generator builds.
// Comparison is constant time; any mismatch fails closed.
func VerifyNotificationSignature(secretKey string, in NotificationSignatureInput) bool {
	if in.Signature == "" {
		return false
	}

	hash := sha256.Sum256(in.Body)
	digest := base64.StdEncoding.EncodeToString(hash[:])

	componentSignature := "Client-Id:" + in.ClientID + "\n" +
		"Request-Id:" + in.RequestID + "\n" +
		"Request-Timestamp:" + in.RequestTimestamp + "\n" +
		"Request-Target:" + in.RequestTarget + "\n" +
		"Digest:" + digest

	mac := hmac.New(sha256.New, []byte(secretKey))
	mac.Write([]byte(componentSignature))
	expected := "HMACSHA256=" + base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(in.Signature))
}
