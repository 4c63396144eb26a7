// Package item defines the canonical storefront product and cart line shapes and
// the normalizer that maps heterogeneous API payloads onto them.
package item

import "errors"

// ErrInvalidProduct is returned when a payload has no resolvable identity
var ErrInvalidProduct = errors.New("invalid product: no resolvable identity")

// Unknown is the display name used when no name field is present
const Unknown = "Unknown"

// Unit is one sellable unit of a product (box, strip, bottle)
type Unit struct {
	UnitName string `json:"unit_name"`
}

// Product is the canonical product snapshot shared by cart lines and wishlist entries
type Product struct {
	ID           string  `json:"product_id"`
	Name         string  `json:"name"`
	UnitPriceUSD float64 `json:"price_usd"`
	Image        string  `json:"image,omitempty"`
	Weight       string  `json:"weight,omitempty"`
	Units        []Unit  `json:"units,omitempty"`
}

// CartLine is one product's presence in the cart
type CartLine struct {
	Product
	Quantity int  `json:"qty"`
	Selected bool `json:"selected"`
	Wish     bool `json:"wish"`
}

// Payload is a decoded JSON object of unknown shape
type Payload map[string]any

// Valid reports whether the product carries an identity
func (p Product) Valid() bool {
	return p.ID != ""
}

// Payload renders the product in canonical field names
func (p Product) Payload() Payload {
	out := Payload{
		"product_id": p.ID,
		"name":       p.Name,
		"price_usd":  p.UnitPriceUSD,
	}
	if p.Image != "" {
		out["image"] = p.Image
	}
	if p.Weight != "" {
		out["weight"] = p.Weight
	}
	if len(p.Units) > 0 {
		units := make([]any, len(p.Units))
		for i, u := range p.Units {
			units[i] = map[string]any{"unit_name": u.UnitName}
		}
		out["units"] = units
	}
	return out
}

// Payload renders the line in canonical field names
func (l CartLine) Payload() Payload {
	out := l.Product.Payload()
	out["qty"] = l.Quantity
	out["selected"] = l.Selected
	out["wish"] = l.Wish
	return out
}

// LineTotalUSD is unit price times quantity
func (l CartLine) LineTotalUSD() float64 {
	return l.UnitPriceUSD * float64(l.Quantity)
}

// Clone returns a deep copy so callers cannot alias the units slice
func (l CartLine) Clone() CartLine {
	if l.Units != nil {
		l.Units = append([]Unit(nil), l.Units...)
	}
	return l
}

// Clone returns a deep copy so callers cannot alias the units slice
func (p Product) Clone() Product {
	if p.Units != nil {
		p.Units = append([]Unit(nil), p.Units...)
	}
	return p
}

// Patch is a partial cart line update; nil fields are left unchanged
type Patch struct {
	Qty      *int  `json:"qty,omitempty"`
	Selected *bool `json:"selected,omitempty"`
	Wish     *bool `json:"wish,omitempty"`
}
