// internal/domain/product/entity.go
package product

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Product is a medicine sold by the pharmacy
type Product struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CategoryID  *uint          `gorm:"index" json:"category_id"`
	Name        string         `gorm:"not null;size:255" json:"name"`
	Slug        string         `gorm:"uniqueIndex;not null;size:255" json:"slug"`
	Description string         `gorm:"type:text" json:"description"`
	PriceUSD    float64        `gorm:"type:numeric(12,2);not null" json:"price_usd"`
	Image       string         `gorm:"size:500" json:"image"`
	Weight      string         `gorm:"size:50" json:"weight"`
	Units       datatypes.JSON `gorm:"type:jsonb" json:"units"`
	IsActive    bool           `gorm:"not null" json:"is_active"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Category *Category `gorm:"foreignKey:CategoryID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"category,omitempty"`
}

// Category represents product categories
type Category struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"not null;size:255" json:"name"`
	Slug        string         `gorm:"uniqueIndex;not null;size:255" json:"slug"`
	Description string         `gorm:"size:500" json:"description,omitempty"`
	Image       string         `gorm:"size:500" json:"image,omitempty"`
	SortOrder   int            `gorm:"not null" json:"sort_order"`
	IsActive    bool           `gorm:"not null" json:"is_active"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides
func (Product) TableName() string  { return "products" }
func (Category) TableName() string { return "categories" }

// Medicine is the nested medicine block of the public product payload
type Medicine struct {
	ID           uint           `json:"id"`
	MedicineName string         `json:"medicine_name"`
	Price        float64        `json:"price"`
	Image        string         `json:"image,omitempty"`
	Weight       string         `json:"weight,omitempty"`
	Units        datatypes.JSON `json:"units,omitempty"`
}

// Payload is the product shape served to storefront clients
type Payload struct {
	ID          uint     `json:"id"`
	Name        string   `json:"name"`
	CategoryID  *uint    `json:"category_id,omitempty"`
	Description string   `json:"description,omitempty"`
	Medicine    Medicine `json:"medicine"`
}

// Payload renders the product for clients
func (p Product) Payload() Payload {
	return Payload{
		ID:          p.ID,
		Name:        p.Name,
		CategoryID:  p.CategoryID,
		Description: p.Description,
		Medicine: Medicine{
			ID:           p.ID,
			MedicineName: p.Name,
			Price:        p.PriceUSD,
			Image:        p.Image,
			Weight:       p.Weight,
			Units:        p.Units,
		},
	}
}
