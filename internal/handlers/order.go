package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/tijara/internal/middleware"
	"github.com/example/tijara/internal/models"
	"github.com/example/tijara/internal/services"
	"github.com/example/tijara/internal/utils"
)

// OrderHandler manages checkout and order endpoints.
type OrderHandler struct {
	db       *gorm.DB
	orders   *services.OrderService
	payments *services.PaymentService
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(db *gorm.DB, orders *services.OrderService, payments *services.PaymentService) *OrderHandler {
	return &OrderHandler{db: db, orders: orders, payments: payments}
}

// CheckoutSummary prices the cart and reports cash-on-delivery eligibility for
// the city the caller would ship to. The same checks run again at submission.
func (h *OrderHandler) CheckoutSummary(c *fiber.Ctx) error {
	user, err := h.currentUser(c)
	if err != nil {
		return err
	}

	items, err := h.orders.CartLines(user.ID)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return &services.ValidationError{Field: "cart", Reason: "cart is empty"}
	}

	quote, err := h.orders.QuoteCart(items, c.Query("coupon"), time.Now())
	if err != nil {
		return err
	}

	city := c.Query("city")
	if city == "" {
		city = user.City
	}
	cod := services.CODEligibility(city, quote.Total, h.orders.CODMaxTotal())
	if cod.Available && !user.PhoneVerified() {
		cod = services.CODDecision{Reason: "phone must be verified for cash on delivery"}
	}

	summary := fiber.Map{
		"success":  true,
		"items":    items,
		"subtotal": quote.Subtotal,
		"discount": quote.Discount,
		"total":    quote.Total,
		"cod":      cod,
	}

	// Same check runs again at submission; surfacing it here lets the page
	// name the short lines before the customer commits.
	if err := h.orders.CheckStock(items); err != nil {
		var conflict *services.ConflictError
		if !errors.As(err, &conflict) {
			return err
		}
		summary["stock_error"] = conflict.Reason
	}

	return c.JSON(summary)
}

// CreateOrder places an order from the cart. Bank-transfer submissions carry a
// transaction ID and optionally a receipt image as multipart form data.
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	user, err := h.currentUser(c)
	if err != nil {
		return err
	}

	in := services.OrderInput{
		PaymentMethod: c.FormValue("payment_method"),
		CouponCode:    c.FormValue("coupon_code"),
		TransactionID: c.FormValue("transaction_id"),
		Address: services.ShippingAddress{
			Country:  c.FormValue("country", user.Country),
			Street:   c.FormValue("street", user.Street),
			Building: c.FormValue("building", user.Building),
			Floor:    c.FormValue("floor", user.Floor),
			Landmark: c.FormValue("landmark", user.Landmark),
			City:     c.FormValue("city", user.City),
		},
	}

	if in.PaymentMethod != models.PaymentMethodBankak && in.PaymentMethod != models.PaymentMethodCOD {
		return &services.ValidationError{Field: "payment_method", Reason: "unknown payment method"}
	}

	if file, err := c.FormFile("receipt"); err == nil {
		data, err := readMultipartFile(file)
		if err != nil {
			return &services.ValidationError{Field: "receipt", Reason: "unreadable receipt file"}
		}
		in.Receipt = data
		in.ReceiptName = file.Filename
	}

	order, err := h.orders.Create(user, in)
	if err != nil {
		if errors.Is(err, services.ErrDuplicateOwnTransaction) && order != nil {
			// The user already submitted this transaction; point them at it.
			return c.JSON(fiber.Map{
				"success":  true,
				"message":  "transaction already submitted",
				"order_id": order.ID,
			})
		}
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"id":             order.ID,
			"status":         order.Status,
			"payment_method": order.PaymentMethod,
			"payment_status": order.PaymentStatus,
			"subtotal":       order.Subtotal,
			"discount":       order.Discount,
			"total":          order.Total,
		},
	})
}

// ListOrders returns orders for the authenticated user.
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	pg := utils.ParsePagination(c)
	query := h.db.Where("user_id = ?", userID).Model(&models.Order{})

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var orders []models.Order
	if err := query.Preload("Items").
		Order("created_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&orders).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    orders,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// GetOrder returns a single order for the authenticated user.
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var order models.Order
	if err := h.db.Preload("Items").Preload("Coupon").
		First(&order, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "order not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": order})
}

// GetPaymentEdit resolves a signed edit link to the order it covers. The
// signature alone authorizes the guest; no login is involved.
func (h *OrderHandler) GetPaymentEdit(c *fiber.Ctx) error {
	token := c.Query("token")
	if token == "" {
		return fiber.NewError(fiber.StatusBadRequest, "token is required")
	}

	order, err := h.payments.OrderForEditToken(token)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"id":               order.ID,
			"payment_status":   order.PaymentStatus,
			"rejection_reason": order.RejectionReason,
			"total":            order.Total,
		},
	})
}

// UpdatePaymentEdit resubmits transaction details on a rejected payment.
func (h *OrderHandler) UpdatePaymentEdit(c *fiber.Ctx) error {
	token := c.FormValue("token")
	if token == "" {
		token = c.Query("token")
	}
	if token == "" {
		return fiber.NewError(fiber.StatusBadRequest, "token is required")
	}

	var receipt []byte
	var receiptName string
	if file, err := c.FormFile("receipt"); err == nil {
		data, err := readMultipartFile(file)
		if err != nil {
			return &services.ValidationError{Field: "receipt", Reason: "unreadable receipt file"}
		}
		receipt = data
		receiptName = file.Filename
	}

	order, err := h.payments.Resubmit(token, c.FormValue("transaction_id"), receipt, receiptName)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"id":             order.ID,
			"payment_status": order.PaymentStatus,
		},
	})
}

func (h *OrderHandler) currentUser(c *fiber.Ctx) (*models.User, error) {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	return &user, nil
}
