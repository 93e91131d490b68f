package models

import (
	"github.com/google/uuid"
)

// Fulfillment statuses. Delivered and cancelled are terminal.
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// Payment methods.
const (
	PaymentMethodBankak = "bankak"
	PaymentMethodCOD    = "cod"
)

// Payment statuses, tracked independently from fulfillment.
const (
	PaymentStatusPending          = "pending"
	PaymentStatusAwaitingApproval = "awaiting_admin_approval"
	PaymentStatusVerified         = "verified"
	PaymentStatusFailed           = "failed"
	PaymentStatusPendingDelivery  = "pending_delivery"
	PaymentStatusPaid             = "paid"
)

// ValidOrderStatus reports whether s is a known fulfillment status.
func ValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// TerminalOrderStatus reports whether s admits no further transitions.
func TerminalOrderStatus(s string) bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// Order records a checkout. Subtotal, discount and total are fixed at creation
// time and never recomputed.
type Order struct {
	BaseModel
	UserID                uuid.UUID   `gorm:"type:uuid;index" json:"user_id"`
	User                  *User       `json:"user,omitempty"`
	Status                string      `json:"status"`
	PaymentMethod         string      `json:"payment_method"`
	PaymentStatus         string      `json:"payment_status"`
	TransactionID         *string     `gorm:"uniqueIndex" json:"transaction_id"`
	ReceiptPath           string      `json:"receipt_path"`
	Subtotal              float64     `json:"subtotal"`
	Discount              float64     `json:"discount"`
	Total                 float64     `json:"total"`
	CouponID              *uuid.UUID  `gorm:"type:uuid" json:"coupon_id"`
	Coupon                *Coupon     `json:"coupon,omitempty"`
	RejectionReason       string      `json:"rejection_reason"`
	PaymentReceivedAmount *float64    `json:"payment_received_amount"`
	DeliveryCountry       string      `json:"delivery_country"`
	DeliveryStreet        string      `json:"delivery_street"`
	DeliveryBuilding      string      `json:"delivery_building"`
	DeliveryFloor         string      `json:"delivery_floor"`
	DeliveryLandmark      string      `json:"delivery_landmark"`
	DeliveryCity          string      `json:"delivery_city"`
	Items                 []OrderItem `json:"items,omitempty"`
}

// OrderItem snapshots one cart line at order time. It does not track later
// product changes.
type OrderItem struct {
	BaseModel
	OrderID     uuid.UUID  `gorm:"type:uuid;index" json:"order_id"`
	ProductID   *uuid.UUID `gorm:"type:uuid" json:"product_id"`
	ProductName string     `json:"product_name"`
	UnitPrice   float64    `json:"unit_price"`
	Quantity    int        `json:"quantity"`
	Subtotal    float64    `json:"subtotal"`
}
