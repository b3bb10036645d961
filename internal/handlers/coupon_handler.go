package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aldenputra/tixgate/internal/helpers"
	"github.com/aldenputra/tixgate/internal/models"
)

type CouponHandler struct {
	db *gorm.DB
}

func NewCouponHandler(db *gorm.DB) *CouponHandler {
	return &CouponHandler{db: db}
}

type CouponRequest struct {
	Code     string `json:"code" binding:"required"`
	Discount int    `json:"discount" binding:"required,min=1,max=100"`
}

func (h *CouponHandler) CreateCoupon(c *gin.Context) {
	var req CouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	coupon := models.Coupon{
		Code:     req.Code,
		Discount: req.Discount,
	}
	if err := h.db.Create(&coupon).Error; err != nil {
		helpers.RespondWithError(c, http.StatusConflict, "Coupon code already exists.")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":   "Coupon created successfully.",
		"coupon_id": coupon.ID,
	})
}

type ClaimCouponRequest struct {
	Code string `json:"code" binding:"required"`
}

func (h *CouponHandler) ClaimCoupon(c *gin.Context) {
	var req ClaimCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	userID, exists := c.Get("user_id")
	if !exists {
		helpers.RespondWithError(c, http.StatusUnauthorized, "User not authenticated.")
		return
	}

	var coupon models.Coupon
	if err := h.db.Where("code = ?", req.Code).First(&coupon).Error; err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "Coupon not found.")
		return
	}

	var existing models.UserCoupon
	if err := h.db.Where("user_id = ? AND coupon_id = ?", userID, coupon.ID).
		First(&existing).Error; err == nil {
		helpers.RespondWithError(c, http.StatusConflict, "Coupon already claimed.")
		return
	}

	userCoupon := models.UserCoupon{
		UserID:   userID.(uuid.UUID),
		CouponID: coupon.ID,
	}
	if err := h.db.Create(&userCoupon).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to claim coupon.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Coupon claimed successfully."})
}
