package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/example/tijara/internal/models"
	"github.com/example/tijara/internal/services"
	"github.com/example/tijara/internal/utils"
)

// AdminHandler covers back-office order review and user administration.
type AdminHandler struct {
	db       *gorm.DB
	orders   *services.OrderService
	payments *services.PaymentService
	storage  services.Storage
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(db *gorm.DB, orders *services.OrderService, payments *services.PaymentService, storage services.Storage) *AdminHandler {
	return &AdminHandler{db: db, orders: orders, payments: payments, storage: storage}
}

// ListAllOrders returns orders across all users, filterable by status and
// payment state. Bank transfers awaiting review sort first.
func (h *AdminHandler) ListAllOrders(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Order{})

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if ps := c.Query("payment_status"); ps != "" {
		query = query.Where("payment_status = ?", ps)
	}
	if method := c.Query("payment_method"); method != "" {
		query = query.Where("payment_method = ?", method)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var orders []models.Order
	if err := query.Preload("Items").Preload("User").
		Order("payment_status = 'awaiting_admin_approval' desc, created_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&orders).Error; err != nil {
		return err
	}

	data := make([]fiber.Map, 0, len(orders))
	for i := range orders {
		data = append(data, h.orderSummary(&orders[i]))
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    data,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// GetOrderAdmin returns a single order with full details for review.
func (h *AdminHandler) GetOrderAdmin(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var order models.Order
	if err := h.db.Preload("Items").Preload("User").Preload("Coupon").
		First(&order, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "order not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": h.orderSummary(&order)})
}

type updateStatusRequest struct {
	Status         string   `json:"status"`
	ReceivedAmount *float64 `json:"received_amount"`
}

// UpdateOrderStatus moves an order through fulfillment.
func (h *AdminHandler) UpdateOrderStatus(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var req updateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	order, err := h.orders.UpdateStatus(id, req.Status, req.ReceivedAmount)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": fiber.Map{
		"id":             order.ID,
		"status":         order.Status,
		"payment_status": order.PaymentStatus,
	}})
}

// ApprovePayment verifies a pending bank transfer.
func (h *AdminHandler) ApprovePayment(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	order, err := h.payments.Approve(id)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": fiber.Map{
		"id":             order.ID,
		"status":         order.Status,
		"payment_status": order.PaymentStatus,
	}})
}

type rejectPaymentRequest struct {
	Reason string `json:"reason"`
}

// RejectPayment fails a pending bank transfer and mails the customer a signed
// link to fix the payment details.
func (h *AdminHandler) RejectPayment(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var req rejectPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	order, err := h.payments.Reject(id, strings.TrimSpace(req.Reason))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": fiber.Map{
		"id":               order.ID,
		"status":           order.Status,
		"payment_status":   order.PaymentStatus,
		"rejection_reason": order.RejectionReason,
	}})
}

// ListAllUsers returns users for the back office, searchable by name or phone.
func (h *AdminHandler) ListAllUsers(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.User{})

	if search := strings.TrimSpace(c.Query("search")); search != "" {
		q := "%" + search + "%"
		query = query.Where("first_name ILIKE ? OR last_name ILIKE ? OR phone ILIKE ?", q, q, q)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var users []models.User
	if err := query.Order("created_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&users).Error; err != nil {
		return err
	}

	data := make([]fiber.Map, 0, len(users))
	for i := range users {
		data = append(data, fiber.Map{
			"id":             users[i].ID,
			"first_name":     users[i].FirstName,
			"last_name":      users[i].LastName,
			"phone":          users[i].Phone,
			"email":          users[i].Email,
			"phone_verified": users[i].PhoneVerified(),
			"is_admin":       users[i].IsAdmin,
			"admin_scopes":   users[i].AdminScopes,
			"created_at":     users[i].CreatedAt,
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    data,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

type updateScopesRequest struct {
	IsAdmin bool     `json:"is_admin"`
	Scopes  []string `json:"scopes"`
}

// UpdateUserScopes grants or revokes admin capabilities. Master-only; the
// master flag itself is never changed here.
func (h *AdminHandler) UpdateUserScopes(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var req updateScopesRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	known := map[string]bool{
		models.ScopeProducts: true,
		models.ScopeOffers:   true,
		models.ScopeCoupons:  true,
		models.ScopeOrders:   true,
		models.ScopeUsers:    true,
	}
	scopes := make(pq.StringArray, 0, len(req.Scopes))
	for _, s := range req.Scopes {
		if !known[s] {
			return &services.ValidationError{Field: "scopes", Reason: "unknown scope: " + s}
		}
		scopes = append(scopes, s)
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "user not found")
		}
		return err
	}
	if user.IsMasterAdmin {
		return fiber.NewError(fiber.StatusConflict, "master admin scopes cannot be changed")
	}

	if err := h.db.Model(&user).Updates(map[string]interface{}{
		"is_admin":     req.IsAdmin,
		"admin_scopes": scopes,
	}).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "message": "user updated"})
}

func (h *AdminHandler) orderSummary(o *models.Order) fiber.Map {
	summary := fiber.Map{
		"id":               o.ID,
		"status":           o.Status,
		"payment_method":   o.PaymentMethod,
		"payment_status":   o.PaymentStatus,
		"subtotal":         o.Subtotal,
		"discount":         o.Discount,
		"total":            o.Total,
		"transaction_id":   o.TransactionID,
		"rejection_reason": o.RejectionReason,
		"delivery_city":    o.DeliveryCity,
		"items":            o.Items,
		"created_at":       o.CreatedAt,
	}
	if o.ReceiptPath != "" {
		summary["receipt_url"] = h.storage.URL(o.ReceiptPath)
	}
	if o.PaymentReceivedAmount != nil {
		summary["payment_received_amount"] = *o.PaymentReceivedAmount
	}
	if o.User != nil {
		summary["customer"] = fiber.Map{
			"id":         o.User.ID,
			"first_name": o.User.FirstName,
			"last_name":  o.User.LastName,
			"phone":      o.User.Phone,
		}
	}
	return summary
}
