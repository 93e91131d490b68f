package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/tijara/internal/models"
	"github.com/example/tijara/internal/services"
)

// OfferHandler manages per-product discount offers.
type OfferHandler struct {
	db *gorm.DB
}

// NewOfferHandler constructs OfferHandler.
func NewOfferHandler(db *gorm.DB) *OfferHandler {
	return &OfferHandler{db: db}
}

// ListOffers returns all offers with their products.
func (h *OfferHandler) ListOffers(c *fiber.Ctx) error {
	var offers []models.Offer
	if err := h.db.Order("created_at desc").Find(&offers).Error; err != nil {
		return err
	}

	now := time.Now()
	data := make([]fiber.Map, 0, len(offers))
	for i := range offers {
		data = append(data, fiber.Map{
			"id":               offers[i].ID,
			"product_id":       offers[i].ProductID,
			"discount_percent": offers[i].DiscountPercent,
			"starts_at":        offers[i].StartsAt,
			"ends_at":          offers[i].EndsAt,
			"active":           offers[i].ActiveAt(now),
		})
	}

	return c.JSON(fiber.Map{"success": true, "data": data})
}

type offerRequest struct {
	ProductID       string     `json:"product_id"`
	DiscountPercent float64    `json:"discount_percent"`
	StartsAt        *time.Time `json:"starts_at"`
	EndsAt          *time.Time `json:"ends_at"`
}

func (r *offerRequest) validate() error {
	if r.DiscountPercent <= 0 || r.DiscountPercent >= 100 {
		return &services.ValidationError{Field: "discount_percent", Reason: "discount must be between 0 and 100"}
	}
	if r.StartsAt != nil && r.EndsAt != nil && r.EndsAt.Before(*r.StartsAt) {
		return &services.ValidationError{Field: "ends_at", Reason: "ends_at must be after starts_at"}
	}
	return nil
}

// CreateOffer attaches an offer to a product. One offer per product; creating
// another replaces the existing one.
func (h *OfferHandler) CreateOffer(c *fiber.Ctx) error {
	var req offerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := req.validate(); err != nil {
		return err
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid product_id")
	}

	var product models.Product
	if err := h.db.First(&product, "id = ?", productID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}
		return err
	}

	if err := h.db.Where("product_id = ?", productID).Delete(&models.Offer{}).Error; err != nil {
		return err
	}

	offer := models.Offer{
		ProductID:       productID,
		DiscountPercent: req.DiscountPercent,
		StartsAt:        req.StartsAt,
		EndsAt:          req.EndsAt,
	}
	if err := h.db.Create(&offer).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": offer})
}

// UpdateOffer changes an offer's discount or window.
func (h *OfferHandler) UpdateOffer(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var req offerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := req.validate(); err != nil {
		return err
	}

	var offer models.Offer
	if err := h.db.First(&offer, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "offer not found")
		}
		return err
	}

	if err := h.db.Model(&offer).Updates(map[string]interface{}{
		"discount_percent": req.DiscountPercent,
		"starts_at":        req.StartsAt,
		"ends_at":          req.EndsAt,
	}).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "message": "offer updated"})
}

// DeleteOffer removes an offer; the product returns to its base price.
func (h *OfferHandler) DeleteOffer(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	if err := h.db.Delete(&models.Offer{}, "id = ?", id).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "message": "offer deleted"})
}
