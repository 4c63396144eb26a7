package wishlist

import (
	"strings"

	"github.com/your-org/pharmacy-storefront/internal/storefront/item"
)

// Origin tags where a wishlist view entry comes from
type Origin string

const (
	OriginCart  Origin = "cart"
	OriginLocal Origin = "local"
)

// View is one row of the wishlist page. Quantity is the live cart quantity
// for cart entries and zero for local ones.
type View struct {
	item.Product
	Origin   Origin `json:"origin"`
	Quantity int    `json:"qty"`
}

// InCart reports whether the entry is backed by a cart line
func (v View) InCart() bool { return v.Origin == OriginCart }

// Merge lists wished cart lines first, then local entries not already wished
// in the cart, filtered by a case-insensitive name substring when query is set.
func Merge(lines []item.CartLine, local []item.Product, query string) []View {
	out := make([]View, 0, len(lines)+len(local))
	seen := make(map[string]bool, len(lines)+len(local))

	for _, l := range lines {
		if !l.Wish || seen[l.ID] {
			continue
		}
		seen[l.ID] = true
		out = append(out, View{Product: l.Product.Clone(), Origin: OriginCart, Quantity: l.Quantity})
	}
	for _, e := range local {
		if seen[e.ID] {
			continue
		}
		seen[e.ID] = true
		out = append(out, View{Product: e.Clone(), Origin: OriginLocal})
	}

	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return out
	}
	filtered := out[:0]
	for _, v := range out {
		if strings.Contains(strings.ToLower(v.Name), q) {
			filtered = append(filtered, v)
		}
	}
	return filtered
}
