package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/aldenputra/tixgate/internal/helpers"
	"github.com/aldenputra/tixgate/internal/models"
	"github.com/aldenputra/tixgate/internal/services"
	"github.com/aldenputra/tixgate/internal/store"
)

type CheckoutHandler struct {
	db           *gorm.DB
	reservations *services.ReservationService
	clientID     string
	secretKey    string
	baseURL      string
	log          *zap.SugaredLogger
}

func NewCheckoutHandler(db *gorm.DB, reservations *services.ReservationService, clientID, secretKey, baseURL string, log *zap.SugaredLogger) *CheckoutHandler {
	return &CheckoutHandler{
		db:           db,
		reservations: reservations,
		clientID:     clientID,
		secretKey:    secretKey,
		baseURL:      baseURL,
		log:          log,
	}
}

type CheckoutRequest struct {
	TemplateID  uuid.UUID `json:"template_id" binding:"required"`
	HolderName  string    `json:"holder_name" binding:"required"`
	HolderEmail string    `json:"holder_email" binding:"required,email"`
	CouponCode  string    `json:"coupon_code"`
}

// StartCheckout reserves a ticket and hands the buyer a hosted payment
// page. If the processor call fails after the hold is taken, the pending
// reservation stands and the expiry sweep reclaims it.
func (h *CheckoutHandler) StartCheckout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	userID, exists := c.Get("user_id")
	if !exists {
		helpers.RespondWithError(c, http.StatusUnauthorized, "User ID not found in token.")
		return
	}
	buyerID := userID.(uuid.UUID)

	discount := 0
	var userCoupon *models.UserCoupon
	if req.CouponCode != "" {
		var coupon models.Coupon
		if err := h.db.Where("code = ?", req.CouponCode).First(&coupon).Error; err != nil {
			helpers.RespondWithError(c, http.StatusBadRequest, "Invalid coupon code.")
			return
		}
		var uc models.UserCoupon
		if err := h.db.Where("user_id = ? AND coupon_id = ? AND is_used = false", buyerID, coupon.ID).
			First(&uc).Error; err != nil {
			helpers.RespondWithError(c, http.StatusBadRequest, "Coupon not claimed or already used.")
			return
		}
		discount = coupon.Discount
		userCoupon = &uc
	}

	sessionRef := fmt.Sprintf("CHK-%s", uuid.New())
	ticket, err := h.reservations.Reserve(c.Request.Context(), services.ReserveInput{
		TemplateID:      req.TemplateID,
		BuyerID:         buyerID,
		HolderName:      req.HolderName,
		HolderEmail:     req.HolderEmail,
		SessionRef:      sessionRef,
		DiscountPercent: discount,
	})
	if err != nil {
		switch err {
		case store.ErrNotFound:
			helpers.RespondWithError(c, http.StatusNotFound, "Ticket template not found.")
		case store.ErrInventoryExhausted:
			helpers.RespondWithError(c, http.StatusConflict, "No tickets left for this template. Try another one.")
		case store.ErrPendingReservationExists:
			helpers.RespondWithError(c, http.StatusConflict, "You already have a checkout in progress for this event.")
		default:
			helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to reserve ticket.")
		}
		return
	}

	if userCoupon != nil {
		if err := h.db.Model(&models.UserCoupon{}).
			Where("user_id = ? AND coupon_id = ?", userCoupon.UserID, userCoupon.CouponID).
			Update("is_used", true).Error; err != nil {
			h.log.Errorw("failed to mark coupon used", "user_id", buyerID, "error", err)
		}
	}

	paymentURL, err := h.createPaymentLink(ticket, sessionRef)
	if err != nil {
		h.log.Errorw("payment link generation failed",
			"ticket_id", ticket.ID, "session_ref", sessionRef, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{
			"error":                      helpers.HTTPStatusText(http.StatusBadGateway),
			"message":                    "Payment provider unavailable. Your reservation will expire shortly; please retry.",
			"ticket_id":                  ticket.ID,
			"checkout_session_reference": sessionRef,
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"ticket_id":                  ticket.ID,
		"checkout_session_reference": sessionRef,
		"status":                     models.PaymentPending,
		"payment_url":                paymentURL,
	})
}

func (h *CheckoutHandler) createPaymentLink(ticket *models.Ticket, sessionRef string) (string, error) {
	amount := ticket.PricePaid.Round(0).IntPart()
	paymentBody := map[string]interface{}{
		"order": map[string]interface{}{
			"amount":         amount,
			"invoice_number": sessionRef,
			"currency":       "IDR",
			"language":       "EN",
			"auto_redirect":  false,
			"line_items": []map[string]interface{}{
				{
					"id":       ticket.TemplateID.String(),
					"name":     ticket.HolderName,
					"quantity": 1,
					"price":    amount,
				},
			},
		},
		"payment": map[string]interface{}{
			"payment_due_date": 10,
		},
		"customer": map[string]interface{}{
			"id":    ticket.BuyerAccountID.String(),
			"name":  ticket.HolderName,
			"email": ticket.HolderEmail,
		},
		"additional_info": map[string]interface{}{
			"buyer_reference": ticket.BuyerAccountID.String(),
			"event_reference": ticket.EventID.String(),
		},
	}

	jsonBody, err := json.Marshal(paymentBody)
	if err != nil {
		return "", err
	}

	headerGenerator := helpers.NewDokuHeaderGenerator(h.clientID, h.secretKey, "/checkout/v1/payment")
	headers := headerGenerator.GetHeaders(string(jsonBody))

	httpReq, err := http.NewRequest("POST", h.baseURL+"/checkout/v1/payment", bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", err
	}
	for key, value := range headers {
		httpReq.Header.Set(key, value)
	}

	client := &http.Client{}
	resp, err := client.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("payment provider returned %d", resp.StatusCode)
	}

	var responseBody map[string]interface{}
	if err := json.Unmarshal(body, &responseBody); err != nil {
		return "", err
	}

	response, _ := responseBody["response"].(map[string]interface{})
	payment, _ := response["payment"].(map[string]interface{})
	paymentURL, ok := payment["url"].(string)
	if !ok {
		return "", fmt.Errorf("payment URL missing from provider response")
	}
	return paymentURL, nil
}
