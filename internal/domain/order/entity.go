// internal/domain/order/entity.go
package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderStatus represents the order status
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Customer is the delivery contact embedded in an order
type Customer struct {
	FullName string `gorm:"size:255;not null" json:"full_name"`
	Phone    string `gorm:"size:32;not null" json:"phone"`
	Email    string `gorm:"size:255" json:"email,omitempty"`
	Address  string `gorm:"size:500;not null" json:"address"`
	Province string `gorm:"size:100" json:"province,omitempty"`
	District string `gorm:"size:100" json:"district,omitempty"`
	Commune  string `gorm:"size:100" json:"commune,omitempty"`
	Village  string `gorm:"size:100" json:"village,omitempty"`
}

// Order represents a placed order
type Order struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	OrderNumber   string      `gorm:"uniqueIndex;not null;size:50" json:"order_number"`
	OwnerKey      string      `gorm:"index;not null;size:100" json:"-"`
	UserID        *uint       `gorm:"index" json:"user_id,omitempty"` // Nullable for guest orders
	Status        OrderStatus `gorm:"not null;size:20" json:"status"`
	PaymentMethod string      `gorm:"not null;size:20" json:"payment_method"`
	DeliverySlot  string      `gorm:"size:100" json:"delivery_slot,omitempty"`
	Note          string      `gorm:"type:text" json:"note,omitempty"`
	Customer      Customer    `gorm:"embedded;embeddedPrefix:customer_" json:"customer"`

	// Financial Information
	SubtotalUSD          float64 `gorm:"type:numeric(12,2);not null" json:"subtotal_usd"`
	ExchangeRate         float64 `gorm:"not null" json:"exchange_rate"`
	PaymentAdjustmentKHR float64 `gorm:"not null" json:"payment_adjustment_khr"`
	TotalKHR             float64 `gorm:"not null" json:"total_khr"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items"`
}

// OrderItem is one ordered product, snapshotted at order time
type OrderItem struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	OrderID   uint      `gorm:"not null;index" json:"-"`
	ProductID string    `gorm:"not null;size:64;index" json:"product_id"`
	Name      string    `gorm:"not null;size:255" json:"name"`
	PriceUSD  float64   `gorm:"type:numeric(12,2);not null" json:"price_usd"` // Price per unit
	Quantity  int       `gorm:"not null" json:"qty"`
	CreatedAt time.Time `json:"-"`
}

// TableName overrides
func (Order) TableName() string     { return "orders" }
func (OrderItem) TableName() string { return "order_items" }

// LineTotalUSD is quantity times unit price
func (i OrderItem) LineTotalUSD() float64 {
	return i.PriceUSD * float64(i.Quantity)
}

// GenerateOrderNumber generates a unique order number
func GenerateOrderNumber(now time.Time) string {
	// Format: ORD-YYYYMMDD-XXXXXXXX
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), strings.ToUpper(uuid.NewString()[:8]))
}

// CanBeCancelled checks if order can be cancelled
func (o *Order) CanBeCancelled() bool {
	return o.Status == OrderStatusPending || o.Status == OrderStatusConfirmed
}
