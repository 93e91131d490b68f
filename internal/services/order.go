package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/tijara/internal/models"
)

// ErrDuplicateOwnTransaction signals that the submitted transaction ID already
// belongs to an order of the same user. Handlers redirect to that order
// instead of failing.
var ErrDuplicateOwnTransaction = errors.New("transaction already submitted by this user")

// ShippingAddress carries the address fields submitted at checkout.
type ShippingAddress struct {
	Country  string `json:"country"`
	Street   string `json:"street"`
	Building string `json:"building"`
	Floor    string `json:"floor"`
	Landmark string `json:"landmark"`
	City     string `json:"city"`
}

// Empty reports whether every address field is blank.
func (a ShippingAddress) Empty() bool {
	for _, p := range []string{a.Country, a.Street, a.Building, a.Floor, a.Landmark, a.City} {
		if strings.TrimSpace(p) != "" {
			return false
		}
	}
	return true
}

// OrderInput is everything a checkout submission carries.
type OrderInput struct {
	PaymentMethod string
	CouponCode    string
	TransactionID string
	Address       ShippingAddress
	Receipt       []byte
	ReceiptName   string
}

// Quote is the computed pricing for a cart, shown at checkout render and fixed
// into the order at submission.
type Quote struct {
	Subtotal float64        `json:"subtotal"`
	Discount float64        `json:"discount"`
	Total    float64        `json:"total"`
	Coupon   *models.Coupon `json:"coupon,omitempty"`
}

// OrderService creates orders and moves them through fulfillment.
type OrderService struct {
	db          *gorm.DB
	storage     Storage
	mail        *MailQueue
	codMaxTotal float64
}

// NewOrderService constructs an OrderService.
func NewOrderService(db *gorm.DB, storage Storage, mail *MailQueue, codMaxTotal float64) *OrderService {
	return &OrderService{db: db, storage: storage, mail: mail, codMaxTotal: codMaxTotal}
}

// CODMaxTotal exposes the configured cash-on-delivery ceiling.
func (s *OrderService) CODMaxTotal() float64 {
	return s.codMaxTotal
}

// CartLines loads the user's cart with products preloaded.
func (s *OrderService) CartLines(userID uuid.UUID) ([]models.CartItem, error) {
	var items []models.CartItem
	err := s.db.Preload("Product").Preload("Product.Offer").
		Where("user_id = ?", userID).
		Find(&items).Error
	return items, err
}

// ResolveCoupon looks a coupon up by its case-insensitive code and checks its
// validity for the subtotal. Missing or invalid coupons yield nil without an
// error; checkout silently proceeds undiscounted.
func (s *OrderService) ResolveCoupon(code string, subtotal float64, now time.Time) (*models.Coupon, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, nil
	}

	var coupon models.Coupon
	if err := s.db.Where("code = ?", code).First(&coupon).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	if !coupon.ValidFor(subtotal, now) {
		return nil, nil
	}
	return &coupon, nil
}

// QuoteCart prices the cart at current product prices and applies the coupon
// if one resolves.
func (s *OrderService) QuoteCart(items []models.CartItem, couponCode string, now time.Time) (Quote, error) {
	var subtotal float64
	for _, line := range items {
		if line.Product == nil {
			continue
		}
		subtotal += line.Product.EffectivePrice(now) * float64(line.Quantity)
	}

	coupon, err := s.ResolveCoupon(couponCode, subtotal, now)
	if err != nil {
		return Quote{}, err
	}

	var discount float64
	if coupon != nil {
		discount = coupon.DiscountFor(subtotal)
	}

	total := subtotal - discount
	if total < 0 {
		total = 0
	}

	return Quote{Subtotal: subtotal, Discount: discount, Total: total, Coupon: coupon}, nil
}

// Create places an order from the user's cart. Order, items, stock decrements,
// coupon count, and cart clearing commit as one transaction; receipt upload
// and the confirmation mail run best-effort afterwards.
func (s *OrderService) Create(user *models.User, in OrderInput) (*models.Order, error) {
	now := time.Now()

	items, err := s.CartLines(user.ID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, &ValidationError{Field: "cart", Reason: "cart is empty"}
	}

	if in.Address.Empty() {
		return nil, &ValidationError{Field: "address", Reason: "shipping address is required"}
	}

	if err := s.CheckStock(items); err != nil {
		return nil, err
	}

	transactionID := strings.TrimSpace(in.TransactionID)

	switch in.PaymentMethod {
	case models.PaymentMethodBankak:
		if transactionID == "" {
			return nil, &ValidationError{Field: "transaction_id", Reason: "transaction id is required for bank transfer"}
		}
		var existing models.Order
		err := s.db.Where("transaction_id = ?", transactionID).First(&existing).Error
		if err == nil {
			if existing.UserID == user.ID {
				return &existing, ErrDuplicateOwnTransaction
			}
			return nil, &ConflictError{Reason: "transaction id already used"}
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	case models.PaymentMethodCOD:
		if !user.PhoneVerified() {
			return nil, &ValidationError{Field: "phone", Reason: "phone must be verified for cash on delivery"}
		}
		if decision := CODEligibility(in.Address.City, s.orderTotalEstimate(items, in.CouponCode, now), s.codMaxTotal); !decision.Available {
			return nil, &ValidationError{Field: "payment_method", Reason: decision.Reason}
		}
	}

	quote, err := s.QuoteCart(items, in.CouponCode, now)
	if err != nil {
		return nil, err
	}

	order := models.Order{
		UserID:           user.ID,
		Status:           models.OrderStatusPending,
		PaymentMethod:    in.PaymentMethod,
		PaymentStatus:    initialPaymentStatus(in.PaymentMethod),
		Subtotal:         quote.Subtotal,
		Discount:         quote.Discount,
		Total:            quote.Total,
		DeliveryCountry:  in.Address.Country,
		DeliveryStreet:   in.Address.Street,
		DeliveryBuilding: in.Address.Building,
		DeliveryFloor:    in.Address.Floor,
		DeliveryLandmark: in.Address.Landmark,
		DeliveryCity:     in.Address.City,
	}
	if transactionID != "" {
		order.TransactionID = &transactionID
	}
	if quote.Coupon != nil {
		order.CouponID = &quote.Coupon.ID
	}

	for _, line := range items {
		if line.Product == nil {
			continue
		}
		price := line.Product.EffectivePrice(now)
		productID := line.ProductID
		order.Items = append(order.Items, models.OrderItem{
			ProductID:   &productID,
			ProductName: line.Product.Name,
			UnitPrice:   price,
			Quantity:    line.Quantity,
			Subtotal:    price * float64(line.Quantity),
		})
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		// Conditional decrement closes the race between the stock pre-check
		// and the commit: zero rows affected aborts the whole transaction.
		for _, line := range items {
			res := tx.Model(&models.Product{}).
				Where("id = ? AND stock >= ?", line.ProductID, line.Quantity).
				UpdateColumn("stock", gorm.Expr("stock - ?", line.Quantity))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				name := ""
				if line.Product != nil {
					name = line.Product.Name
				}
				return &ConflictError{Reason: fmt.Sprintf("insufficient stock for %s", name)}
			}
		}

		if quote.Coupon != nil {
			res := tx.Model(&models.Coupon{}).
				Where("id = ? AND (use_limit IS NULL OR used_count < use_limit)", quote.Coupon.ID).
				UpdateColumn("used_count", gorm.Expr("used_count + 1"))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return &ConflictError{Reason: "coupon is no longer valid"}
			}
		}

		if err := tx.Where("user_id = ?", user.ID).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if in.PaymentMethod == models.PaymentMethodBankak && len(in.Receipt) > 0 {
		s.attachReceipt(&order, in.Receipt, in.ReceiptName)
	}

	if user.Email != "" {
		s.mail.Enqueue(MailMessage{
			To:      user.Email,
			Subject: "Order received",
			Body: fmt.Sprintf("Thank you for your order. Order %s for %.2f is being processed.",
				order.ID, order.Total),
		})
	}

	return &order, nil
}

// UpdateStatus moves an order's fulfillment status. Terminal states cannot be
// left. Delivery records the amount received and settles COD payment; shipping
// queues a notification.
func (s *OrderService) UpdateStatus(orderID uuid.UUID, status string, receivedAmount *float64) (*models.Order, error) {
	if !models.ValidOrderStatus(status) {
		return nil, &ValidationError{Field: "status", Reason: "unknown status"}
	}

	var order models.Order
	if err := s.db.Preload("User").First(&order, "id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if models.TerminalOrderStatus(order.Status) && status != order.Status {
		return nil, &ConflictError{Reason: fmt.Sprintf("order is already %s", order.Status)}
	}

	updates := map[string]interface{}{"status": status}
	if status == models.OrderStatusDelivered {
		if receivedAmount != nil {
			updates["payment_received_amount"] = *receivedAmount
		} else {
			updates["payment_received_amount"] = order.Total
		}
		if order.PaymentMethod == models.PaymentMethodCOD {
			updates["payment_status"] = models.PaymentStatusPaid
		}
	}

	if err := s.db.Model(&order).Updates(updates).Error; err != nil {
		return nil, err
	}

	if status == models.OrderStatusShipped && order.User != nil && order.User.Email != "" {
		s.mail.Enqueue(MailMessage{
			To:      order.User.Email,
			Subject: "Order shipped",
			Body:    fmt.Sprintf("Order %s is on its way.", order.ID),
		})
	}

	if err := s.db.First(&order, "id = ?", orderID).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// CheckStock verifies every requested quantity against current stock and
// reports all short lines at once. It runs at checkout render and again at
// submission; the conditional decrement inside the transaction is what closes
// the race between the two.
func (s *OrderService) CheckStock(items []models.CartItem) error {
	var short []string
	for _, line := range items {
		if line.Product == nil {
			continue
		}
		if line.Quantity > line.Product.Stock {
			short = append(short, fmt.Sprintf("%s (requested %d, available %d)",
				line.Product.Name, line.Quantity, line.Product.Stock))
		}
	}
	if len(short) > 0 {
		return &ConflictError{Reason: "insufficient stock: " + strings.Join(short, "; ")}
	}
	return nil
}

// orderTotalEstimate prices the cart for the COD ceiling check without
// touching coupon counters.
func (s *OrderService) orderTotalEstimate(items []models.CartItem, couponCode string, now time.Time) float64 {
	quote, err := s.QuoteCart(items, couponCode, now)
	if err != nil {
		log.Printf("[Order] quote for COD check failed: %v", err)
		return 0
	}
	return quote.Total
}

// attachReceipt uploads the receipt and persists its path. Best effort: the
// order stands even when the upload fails entirely.
func (s *OrderService) attachReceipt(order *models.Order, data []byte, filename string) {
	path, err := s.storage.Put("receipts", filename, data)
	if err != nil {
		log.Printf("[Order] receipt upload failed for order %s: %v", order.ID, err)
		return
	}
	if err := s.db.Model(order).UpdateColumn("receipt_path", path).Error; err != nil {
		log.Printf("[Order] failed to persist receipt path for order %s: %v", order.ID, err)
		return
	}
	order.ReceiptPath = path
}

func initialPaymentStatus(method string) string {
	switch method {
	case models.PaymentMethodBankak:
		return models.PaymentStatusAwaitingApproval
	case models.PaymentMethodCOD:
		return models.PaymentStatusPendingDelivery
	}
	return models.PaymentStatusPending
}
