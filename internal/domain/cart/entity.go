// internal/domain/cart/entity.go
package cart

import (
	"errors"
	"strconv"
	"time"

	"gorm.io/datatypes"
)

var (
	ErrItemNotFound    = errors.New("cart item not found")
	ErrInvalidProduct  = errors.New("product_id is required")
	ErrInvalidQuantity = errors.New("qty must be at least 1")
	ErrInvalidPrice    = errors.New("price_usd cannot be negative")
	ErrNoOwner         = errors.New("cart owner required: sign in or send X-Guest-Token")
)

// Owner identifies whose cart is addressed: a signed-in user or a guest token
type Owner struct {
	UserID     uint
	GuestToken string
}

// IsUser reports whether the owner is a signed-in user
func (o Owner) IsUser() bool { return o.UserID != 0 }

// Valid reports whether the owner identifies anyone
func (o Owner) Valid() bool { return o.UserID != 0 || o.GuestToken != "" }

// Key is a printable owner key, "user:<id>" or "guest:<token>"
func (o Owner) Key() string {
	if o.IsUser() {
		return "user:" + strconv.FormatUint(uint64(o.UserID), 10)
	}
	return "guest:" + o.GuestToken
}

// CartItem is one product line of a cart. User carts live in PostgreSQL,
// guest carts in Redis; both use this shape.
type CartItem struct {
	ID        uint           `gorm:"primaryKey" json:"-"`
	UserID    uint           `gorm:"not null;uniqueIndex:idx_cart_items_user_product" json:"-"`
	ProductID string         `gorm:"size:64;not null;uniqueIndex:idx_cart_items_user_product" json:"product_id"`
	Name      string         `gorm:"size:255" json:"name"`
	PriceUSD  float64        `gorm:"type:numeric(12,2);not null" json:"price_usd"`
	Quantity  int            `gorm:"not null" json:"qty"`
	Selected  bool           `gorm:"not null" json:"selected"`
	Wish      bool           `gorm:"not null" json:"wish"`
	Image     string         `gorm:"size:500" json:"image,omitempty"`
	Weight    string         `gorm:"size:50" json:"weight,omitempty"`
	Units     datatypes.JSON `gorm:"type:jsonb" json:"units,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// TableName overrides the table name
func (CartItem) TableName() string {
	return "cart_items"
}

// GuestCart is the Redis document holding a guest's cart
type GuestCart struct {
	Token     string     `json:"token"`
	Items     []CartItem `json:"items"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Totals summarizes a cart
type Totals struct {
	Lines            int     `json:"lines"`
	Quantity         int     `json:"quantity"`
	SelectedQuantity int     `json:"selected_quantity"`
	SubtotalUSD      float64 `json:"subtotal_usd"`
}

// CalculateTotals sums a cart; the subtotal covers selected lines only
func CalculateTotals(items []CartItem) Totals {
	var t Totals
	for _, it := range items {
		t.Lines++
		t.Quantity += it.Quantity
		if it.Selected {
			t.SelectedQuantity += it.Quantity
			t.SubtotalUSD += it.PriceUSD * float64(it.Quantity)
		}
	}
	return t
}
