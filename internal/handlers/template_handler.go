package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/aldenputra/tixgate/internal/helpers"
	"github.com/aldenputra/tixgate/internal/models"
)

type TemplateHandler struct {
	db *gorm.DB
}

func NewTemplateHandler(db *gorm.DB) *TemplateHandler {
	return &TemplateHandler{db: db}
}

type TemplateRequest struct {
	Name          string          `json:"name" binding:"required"`
	Type          string          `json:"type" binding:"required"`
	Price         decimal.Decimal `json:"price" binding:"required"`
	QuantityTotal int             `json:"quantity_total" binding:"required,min=1"`
	EventID       uuid.UUID       `json:"event_id" binding:"required"`
}

func (h *TemplateHandler) CreateTemplate(c *gin.Context) {
	var req TemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}
	if !models.ValidTemplateType(req.Type) {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid ticket type.")
		return
	}

	userID, exists := c.Get("user_id")
	if !exists {
		helpers.RespondWithError(c, http.StatusUnauthorized, "User ID not found in token.")
		return
	}

	var event models.Event
	if err := h.db.Where("id = ? AND user_id = ?", req.EventID, userID).First(&event).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			helpers.RespondWithError(c, http.StatusForbidden, "Event not found or you don't have permission to modify it.")
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error verifying event ownership.")
		return
	}

	template := models.TicketTemplate{
		ID:                uuid.New(),
		Name:              req.Name,
		Type:              req.Type,
		Price:             req.Price,
		QuantityTotal:     req.QuantityTotal,
		QuantityAvailable: req.QuantityTotal,
		EventID:           req.EventID,
	}

	if err := h.db.Create(&template).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to create ticket template.")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":     "Ticket template created successfully.",
		"template_id": template.ID,
	})
}

func (h *TemplateHandler) GetTemplate(c *gin.Context) {
	templateID := c.Param("id")

	var template models.TicketTemplate
	if err := h.db.Where("id = ?", templateID).First(&template).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			helpers.RespondWithError(c, http.StatusNotFound, "Ticket template not found.")
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving ticket template.")
		return
	}

	c.JSON(http.StatusOK, template)
}

func (h *TemplateHandler) ListTemplatesForEvent(c *gin.Context) {
	eventID := c.Param("id")

	var templates []models.TicketTemplate
	if err := h.db.Where("event_id = ?", eventID).Find(&templates).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving ticket templates.")
		return
	}

	c.JSON(http.StatusOK, templates)
}
