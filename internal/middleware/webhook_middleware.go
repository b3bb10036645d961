package middleware

import (
	"bytes"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aldenputra/tixgate/internal/helpers"
)

// WebhookSignatureMiddleware authenticates payment notifications before any
// processing happens. Anything that fails verification is rejected with 401
// and never reaches the reconciler; authenticity failures are not retried.
func WebhookSignatureMiddleware(secretKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			helpers.RespondWithError(c, http.StatusBadRequest, "Unable to read notification body.")
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewBuffer(body))

		ok := helpers.VerifyNotificationSignature(secretKey, helpers.NotificationSignatureInput{
			ClientID:         c.GetHeader("Client-Id"),
			RequestID:        c.GetHeader("Request-Id"),
			RequestTimestamp: c.GetHeader("Request-Timestamp"),
			RequestTarget:    c.Request.URL.Path,
			Signature:        c.GetHeader("Signature"),
			Body:             body,
		})
		if !ok {
			helpers.RespondWithError(c, http.StatusUnauthorized, "Notification signature verification failed.")
			c.Abort()
			return
		}
		c.Next()
	}
}
