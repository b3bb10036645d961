package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aldenputra/tixgate/internal/helpers"
	"github.com/aldenputra/tixgate/internal/services"
)

type WebhookHandler struct {
	reconciler *services.ReconcileService
	log        *zap.SugaredLogger
}

func NewWebhookHandler(reconciler *services.ReconcileService, log *zap.SugaredLogger) *WebhookHandler {
	return &WebhookHandler{reconciler: reconciler, log: log}
}

// HandlePaymentNotification receives processor outcome notifications. The
// signature middleware has already authenticated the request. Business
// outcomes, orphans included, answer 200 so the processor stops
// redelivering; only store failures answer 5xx to trigger a retry.
func (h *WebhookHandler) HandlePaymentNotification(c *gin.Context) {
	var notification services.Notification
	if err := c.ShouldBindJSON(&notification); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Malformed notification payload.")
		return
	}

	outcome, err := h.reconciler.Reconcile(c.Request.Context(), notification)
	if err != nil {
		h.log.Errorw("reconciliation failed, leaving notification unacknowledged",
			"notification_id", notification.ID, "error", err)
		helpers.RespondWithError(c, http.StatusInternalServerError, "Temporary failure. Please retry.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "received",
		"outcome": outcome,
	})
}
