package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"
	"gorm.io/gorm"

	"github.com/aldenputra/tixgate/internal/helpers"
	"github.com/aldenputra/tixgate/internal/models"
	"github.com/aldenputra/tixgate/internal/services"
)

type TicketHandler struct {
	db      *gorm.DB
	payouts *services.PayoutService
}

func NewTicketHandler(db *gorm.DB, payouts *services.PayoutService) *TicketHandler {
	return &TicketHandler{db: db, payouts: payouts}
}

func (h *TicketHandler) ListMyTickets(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		helpers.RespondWithError(c, http.StatusUnauthorized, "User not authenticated.")
		return
	}

	var tickets []models.Ticket
	if err := h.db.Preload("Template").
		Where("buyer_account_id = ?", userID).
		Order("created_at DESC").
		Find(&tickets).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving tickets.")
		return
	}

	c.JSON(http.StatusOK, tickets)
}

// TicketQR renders the ticket's admission code as a PNG barcode. The code
// itself is the payload; nothing else is encoded.
func (h *TicketHandler) TicketQR(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		helpers.RespondWithError(c, http.StatusUnauthorized, "User not authenticated.")
		return
	}

	ticketID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid ticket ID.")
		return
	}

	var ticket models.Ticket
	if err := h.db.First(&ticket, "id = ?", ticketID).Error; err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "Ticket not found.")
		return
	}
	if ticket.BuyerAccountID != userID {
		helpers.RespondWithError(c, http.StatusForbidden, "You don't have permission to view this ticket.")
		return
	}
	if ticket.Code == nil {
		helpers.RespondWithError(c, http.StatusConflict, "Ticket is not paid yet.")
		return
	}
	if ticket.Status != models.TicketValid {
		helpers.RespondWithError(c, http.StatusConflict, "Ticket is no longer valid for entry.")
		return
	}

	qrImage, err := qrcode.Encode(*ticket.Code, qrcode.Medium, 256)
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to generate QR code.")
		return
	}

	c.Data(http.StatusOK, "image/png", qrImage)
}

// RefundTicket is the explicit refund entry point; the refundable fraction
// depends on how far before the event it is requested.
func (h *TicketHandler) RefundTicket(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		helpers.RespondWithError(c, http.StatusUnauthorized, "User not authenticated.")
		return
	}

	ticketID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid ticket ID.")
		return
	}

	var ticket models.Ticket
	if err := h.db.First(&ticket, "id = ?", ticketID).Error; err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "Ticket not found.")
		return
	}
	if ticket.BuyerAccountID != userID {
		helpers.RespondWithError(c, http.StatusForbidden, "You don't have permission to refund this ticket.")
		return
	}

	amount, err := h.payouts.RefundTicket(c.Request.Context(), ticketID, time.Now())
	if err != nil {
		switch err {
		case services.ErrRefundWindowClosed:
			helpers.RespondWithError(c, http.StatusConflict, "The refund window for this event has closed.")
		case services.ErrTicketNotRefundable:
			helpers.RespondWithError(c, http.StatusConflict, "This ticket cannot be refunded.")
		default:
			helpers.RespondWithError(c, http.StatusInternalServerError, "Refund failed. Please retry.")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       "Ticket refunded.",
		"refund_amount": amount,
	})
}
