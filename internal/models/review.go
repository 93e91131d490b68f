package models

import "github.com/google/uuid"

// Review reaction types.
const (
	ReactionHelpful    = "helpful"
	ReactionNotHelpful = "not_helpful"
)

// Review is a verified-purchase product review, one per (product, user).
type Review struct {
	BaseModel
	ProductID uuid.UUID        `gorm:"type:uuid;uniqueIndex:idx_review_product_user" json:"product_id"`
	UserID    uuid.UUID        `gorm:"type:uuid;uniqueIndex:idx_review_product_user" json:"user_id"`
	User      *User            `json:"user,omitempty"`
	Rating    int              `json:"rating"`
	Comment   string           `json:"comment"`
	Reactions []ReviewReaction `json:"reactions,omitempty"`
}

// ReviewReaction records one user's vote on a review. Reacting again with the
// same type removes the vote; a different type replaces it.
type ReviewReaction struct {
	BaseModel
	ReviewID     uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_reaction_review_user" json:"review_id"`
	UserID       uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_reaction_review_user" json:"user_id"`
	ReactionType string    `json:"reaction_type"`
}
