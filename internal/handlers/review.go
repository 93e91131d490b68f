package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/tijara/internal/middleware"
	"github.com/example/tijara/internal/models"
	"github.com/example/tijara/internal/services"
)

// ReviewHandler manages product reviews and reactions.
type ReviewHandler struct {
	db *gorm.DB
}

// NewReviewHandler constructs ReviewHandler.
func NewReviewHandler(db *gorm.DB) *ReviewHandler {
	return &ReviewHandler{db: db}
}

// ListReviews returns reviews for a product with reaction tallies.
func (h *ReviewHandler) ListReviews(c *fiber.Ctx) error {
	productID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid product id")
	}

	var reviews []models.Review
	if err := h.db.Preload("User").
		Where("product_id = ?", productID).
		Order("created_at desc").
		Find(&reviews).Error; err != nil {
		return err
	}

	data := make([]fiber.Map, 0, len(reviews))
	for i := range reviews {
		entry := fiber.Map{
			"id":         reviews[i].ID,
			"rating":     reviews[i].Rating,
			"comment":    reviews[i].Comment,
			"created_at": reviews[i].CreatedAt,
		}
		if reviews[i].User != nil {
			entry["author"] = reviews[i].User.FirstName
		}

		var helpful, notHelpful int64
		h.db.Model(&models.ReviewReaction{}).
			Where("review_id = ? AND reaction_type = ?", reviews[i].ID, models.ReactionHelpful).
			Count(&helpful)
		h.db.Model(&models.ReviewReaction{}).
			Where("review_id = ? AND reaction_type = ?", reviews[i].ID, models.ReactionNotHelpful).
			Count(&notHelpful)
		entry["helpful"] = helpful
		entry["not_helpful"] = notHelpful

		data = append(data, entry)
	}

	var avg struct {
		Average float64
		Count   int64
	}
	h.db.Model(&models.Review{}).
		Select("COALESCE(AVG(rating), 0) as average, COUNT(*) as count").
		Where("product_id = ?", productID).
		Scan(&avg)

	return c.JSON(fiber.Map{
		"success":        true,
		"data":           data,
		"average_rating": avg.Average,
		"review_count":   avg.Count,
	})
}

type reviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// CreateReview posts a review. Only customers whose order containing the
// product was delivered may review it, and only once per product.
func (h *ReviewHandler) CreateReview(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	productID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid product id")
	}

	var req reviewRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Rating < 1 || req.Rating > 5 {
		return &services.ValidationError{Field: "rating", Reason: "rating must be between 1 and 5"}
	}
	if len([]rune(req.Comment)) > 1000 {
		return &services.ValidationError{Field: "comment", Reason: "comment is limited to 1000 characters"}
	}

	var purchased int64
	if err := h.db.Model(&models.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.user_id = ? AND orders.status = ? AND order_items.product_id = ?",
			userID, models.OrderStatusDelivered, productID).
		Count(&purchased).Error; err != nil {
		return err
	}
	if purchased == 0 {
		return &services.AuthorizationError{Reason: "review without delivered purchase"}
	}

	var existing models.Review
	err = h.db.Where("product_id = ? AND user_id = ?", productID, userID).First(&existing).Error
	if err == nil {
		return fiber.NewError(fiber.StatusConflict, "you already reviewed this product")
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}

	review := models.Review{
		ProductID: productID,
		UserID:    userID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	}
	if err := h.db.Create(&review).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": review})
}

type reactionRequest struct {
	Reaction string `json:"reaction"`
}

// ReactToReview records a helpful/not-helpful vote. Voting again with the same
// reaction removes it; a different reaction replaces the old one.
func (h *ReviewHandler) ReactToReview(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	reviewID, err := uuid.Parse(c.Params("reviewId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid review id")
	}

	var req reactionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Reaction != models.ReactionHelpful && req.Reaction != models.ReactionNotHelpful {
		return &services.ValidationError{Field: "reaction", Reason: "reaction must be helpful or not_helpful"}
	}

	var review models.Review
	if err := h.db.First(&review, "id = ?", reviewID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "review not found")
		}
		return err
	}

	var existing models.ReviewReaction
	err = h.db.Where("review_id = ? AND user_id = ?", reviewID, userID).First(&existing).Error
	switch {
	case err == nil && existing.ReactionType == req.Reaction:
		if err := h.db.Delete(&existing).Error; err != nil {
			return err
		}
		return c.JSON(fiber.Map{"success": true, "reaction": nil})
	case err == nil:
		if err := h.db.Model(&existing).Update("reaction_type", req.Reaction).Error; err != nil {
			return err
		}
		return c.JSON(fiber.Map{"success": true, "reaction": req.Reaction})
	case err != gorm.ErrRecordNotFound:
		return err
	}

	reaction := models.ReviewReaction{
		ReviewID:     reviewID,
		UserID:       userID,
		ReactionType: req.Reaction,
	}
	if err := h.db.Create(&reaction).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "reaction": req.Reaction})
}
