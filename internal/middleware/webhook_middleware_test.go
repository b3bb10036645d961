package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/aldenputra/tixgate/internal/helpers"
)

const webhookSecret = "doku-secret-key"

func webhookRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/v1/payments/notifications", WebhookSignatureMiddleware(webhookSecret), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "received"})
	})
	return router
}

func signedNotification(t *testing.T, secret, body string) *http.Request {
	t.Helper()
	gen := helpers.NewDokuHeaderGenerator("CLIENT-1", secret, "/v1/payments/notifications")
	timestamp := time.Now().UTC().Format("2006-01-02T15:04:05Z")
	signature := gen.GenerateSignature(gen.GenerateDigest(body), timestamp)

	req := httptest.NewRequest(http.MethodPost, "/v1/payments/notifications", bytes.NewBufferString(body))
	req.Header.Set("Client-Id", "CLIENT-1")
	req.Header.Set("Request-Id", gen.RequestID)
	req.Header.Set("Request-Timestamp", timestamp)
	req.Header.Set("Signature", signature)
	return req
}

func TestWebhookSignatureMiddleware_ValidSignature(t *testing.T) {
	router := webhookRouter()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, signedNotification(t, webhookSecret, `{"notification_id":"NOTIF-1"}`))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWebhookSignatureMiddleware_WrongSecret(t *testing.T) {
	router := webhookRouter()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, signedNotification(t, "attacker-secret", `{"notification_id":"NOTIF-1"}`))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWebhookSignatureMiddleware_TamperedBody(t *testing.T) {
	gen := helpers.NewDokuHeaderGenerator("CLIENT-1", webhookSecret, "/v1/payments/notifications")
	timestamp := time.Now().UTC().Format("2006-01-02T15:04:05Z")
	signature := gen.GenerateSignature(gen.GenerateDigest(`{"notification_id":"NOTIF-1"}`), timestamp)

	req := httptest.NewRequest(http.MethodPost, "/v1/payments/notifications",
		bytes.NewBufferString(`{"notification_id":"NOTIF-2"}`))
	req.Header.Set("Client-Id", "CLIENT-1")
	req.Header.Set("Request-Id", gen.RequestID)
	req.Header.Set("Request-Timestamp", timestamp)
	req.Header.Set("Signature", signature)

	router := webhookRouter()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWebhookSignatureMiddleware_MissingHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/v1/payments/notifications",
		bytes.NewBufferString(`{"notification_id":"NOTIF-1"}`))

	router := webhookRouter()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
