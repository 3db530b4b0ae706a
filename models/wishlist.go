package models

import "time"

const (
	PriorityHigh   = 1
	PriorityMedium = 2
	PriorityLow    = 3

	DefaultItemEmoji = "🎁"
)

type WishlistItem struct {
	ID              string     `json:"id" db:"id"`
	UserID          string     `json:"user_id" db:"user_id"`
	OccasionID      string     `json:"occasion_id" db:"occasion_id"`
	ProductName     string     `json:"product_name" db:"product_name"`
	ProductURL      string     `json:"product_url" db:"product_url"`
	ProductImageKey *string    `json:"-" db:"product_image_key"`
	ProductImage    *string    `json:"product_image,omitempty" db:"product_image"`
	Price           string     `json:"price,omitempty" db:"price"`
	ASIN            *string    `json:"asin,omitempty" db:"asin"`
	Notes           string     `json:"notes,omitempty" db:"notes"`
	Emoji           string     `json:"emoji" db:"emoji"`
	Priority        int        `json:"priority" db:"priority"`
	IsPurchased     bool       `json:"is_purchased" db:"is_purchased"`
	PurchasedBy     *string    `json:"purchased_by,omitempty" db:"purchased_by"`
	PurchasedByName *string    `json:"purchased_by_name,omitempty" db:"purchased_by_name"`
	PurchasedAt     *time.Time `json:"purchased_at,omitempty" db:"purchased_at"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
}

// HidePurchase clears purchase details so the owner is not spoiled.
func (i *WishlistItem) HidePurchase() {
	i.IsPurchased = false
	i.PurchasedBy = nil
	i.PurchasedByName = nil
	i.PurchasedAt = nil
}
