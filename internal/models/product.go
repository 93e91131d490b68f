package models

import (
	"time"

	"github.com/google/uuid"
)

type Category struct {
	BaseModel
	Name     string    `json:"name"`
	Slug     string    `gorm:"uniqueIndex" json:"slug"`
	Products []Product `json:"products,omitempty"`
}

// Product prices are denominated in the stored currency.
type Product struct {
	BaseModel
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Price       float64        `json:"price"`
	Stock       int            `json:"stock"`
	CategoryID  *uuid.UUID     `gorm:"type:uuid" json:"category_id"`
	Category    *Category      `json:"category,omitempty"`
	Images      []ProductImage `json:"images,omitempty"`
	Offer       *Offer         `json:"offer,omitempty"`
}

// EffectivePrice returns the price after any offer active at the given time.
func (p *Product) EffectivePrice(now time.Time) float64 {
	if p.Offer != nil && p.Offer.ActiveAt(now) {
		return p.Price * (1 - p.Offer.DiscountPercent/100)
	}
	return p.Price
}

type ProductImage struct {
	BaseModel
	ProductID    uuid.UUID `gorm:"type:uuid;index" json:"product_id"`
	Path         string    `json:"path"`
	DisplayOrder int       `json:"display_order"`
}

// Offer is a time-bounded percentage discount attached to a single product.
type Offer struct {
	BaseModel
	ProductID       uuid.UUID  `gorm:"type:uuid;uniqueIndex" json:"product_id"`
	DiscountPercent float64    `json:"discount_percent"`
	StartsAt        *time.Time `json:"starts_at"`
	EndsAt          *time.Time `json:"ends_at"`
}

// ActiveAt reports whether the offer applies at the given time. Open bounds
// are treated as unbounded.
func (o *Offer) ActiveAt(now time.Time) bool {
	if o.StartsAt != nil && now.Before(*o.StartsAt) {
		return false
	}
	if o.EndsAt != nil && now.After(*o.EndsAt) {
		return false
	}
	return true
}
