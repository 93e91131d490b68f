package models

import (
	"strings"
	"time"

	"github.com/lib/pq"
)

// Admin capability scopes.
const (
	ScopeProducts = "products"
	ScopeOffers   = "offers"
	ScopeCoupons  = "coupons"
	ScopeOrders   = "orders"
	ScopeUsers    = "users"
)

// User represents an authenticated customer, optionally with back-office access.
type User struct {
	BaseModel
	FirstName         string         `json:"first_name"`
	LastName          string         `json:"last_name"`
	Phone             string         `gorm:"uniqueIndex" json:"phone"`
	Email             string         `json:"email"`
	PasswordHash      string         `json:"-"`
	PhoneVerifiedAt   *time.Time     `json:"phone_verified_at"`
	PreferredCurrency string         `json:"preferred_currency"`
	Country           string         `json:"country"`
	Street            string         `json:"street"`
	Building          string         `json:"building"`
	Floor             string         `json:"floor"`
	Landmark          string         `json:"landmark"`
	City              string         `json:"city"`
	IsAdmin           bool           `json:"is_admin"`
	IsMasterAdmin     bool           `json:"is_master_admin"`
	AdminScopes       pq.StringArray `gorm:"type:text[]" json:"admin_scopes"`
	Orders            []Order        `json:"orders,omitempty"`
}

// HasScope reports whether the user may perform admin actions under the given
// scope. A master admin holds every scope; scopes on non-admins are ignored.
func (u *User) HasScope(scope string) bool {
	if !u.IsAdmin {
		return false
	}
	if u.IsMasterAdmin {
		return true
	}
	for _, s := range u.AdminScopes {
		if s == scope {
			return true
		}
	}
	return false
}

// PhoneVerified reports whether the user completed phone verification.
func (u *User) PhoneVerified() bool {
	return u.PhoneVerifiedAt != nil
}

// ShippingAddress joins the non-empty address fields into a single line.
func (u *User) ShippingAddress() string {
	parts := make([]string, 0, 6)
	for _, p := range []string{u.Country, u.City, u.Street, u.Building, u.Floor, u.Landmark} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, strings.TrimSpace(p))
		}
	}
	return strings.Join(parts, ", ")
}
