package models

import "github.com/google/uuid"

// CartItem holds one product line in a user's cart. Quantity is clamped to the
// product's stock whenever the cart is read.
type CartItem struct {
	BaseModel
	UserID    uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_cart_user_product" json:"user_id"`
	ProductID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_cart_user_product" json:"product_id"`
	Product   *Product  `json:"product,omitempty"`
	Quantity  int       `json:"quantity"`
}

// Favorite marks a product as saved by a user. Toggled on and off.
type Favorite struct {
	BaseModel
	UserID    uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_fav_user_product" json:"user_id"`
	ProductID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_fav_user_product" json:"product_id"`
	Product   *Product  `json:"product,omitempty"`
}
