package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/tijara/internal/models"
	"github.com/example/tijara/internal/services"
	"github.com/example/tijara/internal/utils"
)

// CouponHandler manages admin coupon CRUD.
type CouponHandler struct {
	db *gorm.DB
}

// NewCouponHandler constructs CouponHandler.
func NewCouponHandler(db *gorm.DB) *CouponHandler {
	return &CouponHandler{db: db}
}

// ListCoupons returns all coupons for the back office.
func (h *CouponHandler) ListCoupons(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)

	var total int64
	if err := h.db.Model(&models.Coupon{}).Count(&total).Error; err != nil {
		return err
	}

	var coupons []models.Coupon
	if err := h.db.Order("created_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&coupons).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    coupons,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

type couponRequest struct {
	Code        string     `json:"code"`
	Type        string     `json:"type"`
	Value       float64    `json:"value"`
	MinPurchase float64    `json:"min_purchase"`
	UseLimit    *int       `json:"use_limit"`
	StartsAt    *time.Time `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at"`
}

func (r *couponRequest) validate() error {
	r.Code = strings.ToUpper(strings.TrimSpace(r.Code))
	if r.Code == "" {
		return &services.ValidationError{Field: "code", Reason: "code is required"}
	}
	if r.Type != models.CouponTypePercent && r.Type != models.CouponTypeFixed {
		return &services.ValidationError{Field: "type", Reason: "type must be percent or fixed"}
	}
	if r.Value <= 0 {
		return &services.ValidationError{Field: "value", Reason: "value must be positive"}
	}
	if r.Type == models.CouponTypePercent && r.Value > 100 {
		return &services.ValidationError{Field: "value", Reason: "percent discount cannot exceed 100"}
	}
	if r.UseLimit != nil && *r.UseLimit < 1 {
		return &services.ValidationError{Field: "use_limit", Reason: "use limit must be at least 1"}
	}
	if r.StartsAt != nil && r.EndsAt != nil && r.EndsAt.Before(*r.StartsAt) {
		return &services.ValidationError{Field: "ends_at", Reason: "ends_at must be after starts_at"}
	}
	return nil
}

// CreateCoupon creates a coupon. Codes are stored uppercase.
func (h *CouponHandler) CreateCoupon(c *fiber.Ctx) error {
	var req couponRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := req.validate(); err != nil {
		return err
	}

	var existing models.Coupon
	err := h.db.Where("code = ?", req.Code).First(&existing).Error
	if err == nil {
		return fiber.NewError(fiber.StatusConflict, "coupon code already exists")
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}

	coupon := models.Coupon{
		Code:        req.Code,
		Type:        req.Type,
		Value:       req.Value,
		MinPurchase: req.MinPurchase,
		UseLimit:    req.UseLimit,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
	}
	if err := h.db.Create(&coupon).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": coupon})
}

// UpdateCoupon replaces a coupon's terms; the usage counter is preserved.
func (h *CouponHandler) UpdateCoupon(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var req couponRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := req.validate(); err != nil {
		return err
	}

	var coupon models.Coupon
	if err := h.db.First(&coupon, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "coupon not found")
		}
		return err
	}

	if err := h.db.Model(&coupon).Updates(map[string]interface{}{
		"code":         req.Code,
		"type":         req.Type,
		"value":        req.Value,
		"min_purchase": req.MinPurchase,
		"use_limit":    req.UseLimit,
		"starts_at":    req.StartsAt,
		"ends_at":      req.EndsAt,
	}).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "message": "coupon updated"})
}

// DeleteCoupon removes a coupon. Existing orders keep their recorded discount.
func (h *CouponHandler) DeleteCoupon(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	if err := h.db.Model(&models.Order{}).Where("coupon_id = ?", id).
		Update("coupon_id", nil).Error; err != nil {
		return err
	}
	if err := h.db.Delete(&models.Coupon{}, "id = ?", id).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "message": "coupon deleted"})
}
