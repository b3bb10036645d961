package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aldenputra/tixgate/internal/helpers"
	"github.com/aldenputra/tixgate/internal/models"
	"github.com/aldenputra/tixgate/internal/services"
)

type VerifyHandler struct {
	db     *gorm.DB
	verify *services.VerifyService
}

func NewVerifyHandler(db *gorm.DB, verify *services.VerifyService) *VerifyHandler {
	return &VerifyHandler{db: db, verify: verify}
}

type CheckInRequest struct {
	Code     string `json:"code"`
	ManualID string `json:"manual_id"`
}

// CheckIn validates a presented code or manually typed ticket id at the
// door of the event in the path. Only the event's organizer may verify.
func (h *VerifyHandler) CheckIn(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid event ID.")
		return
	}

	var req CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil || (req.Code == "" && req.ManualID == "") {
		helpers.RespondWithError(c, http.StatusBadRequest, "Provide a code or a ticket ID.")
		return
	}

	userID, exists := c.Get("user_id")
	if !exists {
		helpers.RespondWithError(c, http.StatusUnauthorized, "User not authenticated.")
		return
	}
	verifierID := userID.(uuid.UUID)

	var event models.Event
	if err := h.db.Where("id = ? AND user_id = ?", eventID, verifierID).First(&event).Error; err != nil {
		helpers.RespondWithError(c, http.StatusForbidden, "You don't have permission to validate tickets for this event.")
		return
	}

	result, err := h.verify.Verify(c.Request.Context(), services.VerifyRequest{
		Code:       req.Code,
		ManualID:   req.ManualID,
		EventID:    eventID,
		VerifierID: verifierID,
	})
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Verification failed. Please retry.")
		return
	}

	c.JSON(http.StatusOK, result)
}
