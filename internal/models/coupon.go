package models

import "time"

// Coupon discount types.
const (
	CouponTypePercent = "percent"
	CouponTypeFixed   = "fixed"
)

// Coupon codes are stored uppercase and matched case-insensitively.
type Coupon struct {
	BaseModel
	Code        string     `gorm:"uniqueIndex" json:"code"`
	Type        string     `json:"type"`
	Value       float64    `json:"value"`
	MinPurchase float64    `json:"min_purchase"`
	UseLimit    *int       `json:"use_limit"`
	StartsAt    *time.Time `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at"`
	UsedCount   int        `json:"used_count"`
}

// ValidFor reports whether the coupon applies to a purchase of the given
// subtotal at the given time. Either validity bound may be open.
func (c *Coupon) ValidFor(subtotal float64, now time.Time) bool {
	if subtotal < c.MinPurchase {
		return false
	}
	if c.StartsAt != nil && now.Before(*c.StartsAt) {
		return false
	}
	if c.EndsAt != nil && now.After(*c.EndsAt) {
		return false
	}
	if c.UseLimit != nil && c.UsedCount >= *c.UseLimit {
		return false
	}
	return true
}

// DiscountFor computes the discount amount. A fixed discount never exceeds the
// subtotal, so totals cannot go negative.
func (c *Coupon) DiscountFor(subtotal float64) float64 {
	switch c.Type {
	case CouponTypePercent:
		return subtotal * c.Value / 100
	case CouponTypeFixed:
		if c.Value > subtotal {
			return subtotal
		}
		return c.Value
	}
	return 0
}
