package item

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Field resolution chains, first present value wins.
var (
	idPaths = [][]string{
		{"product_id"},
		{"id"},
		{"medicine_id"},
		{"medicine", "id"},
		{"product", "id"},
		{"product", "medicine", "id"},
	}
	// Products shown or added by the caller name themselves first.
	productNamePaths = [][]string{
		{"name"},
		{"product", "name"},
		{"medicine", "medicine_name"},
		{"product", "medicine", "medicine_name"},
		{"medicine_name"},
	}
	// Server cart items carry the catalog name on the nested medicine.
	lineNamePaths = [][]string{
		{"product", "medicine", "medicine_name"},
		{"medicine", "medicine_name"},
		{"product", "name"},
		{"medicine_name"},
		{"name"},
	}
	pricePaths = [][]string{
		{"medicine", "price"},
		{"product", "medicine", "price"},
		{"price_usd"},
		{"price"},
		{"product", "price"},
	}
	imagePaths = [][]string{
		{"product", "medicine", "image"},
		{"medicine", "image"},
		{"product", "image"},
		{"image"},
	}
	weightPaths = [][]string{
		{"product", "medicine", "weight"},
		{"medicine", "weight"},
		{"weight"},
	}
	unitPaths = [][]string{
		{"product", "medicine", "units"},
		{"medicine", "units"},
		{"units"},
	}
	qtyPaths = [][]string{
		{"qty"},
		{"quantity"},
	}
)

// ResolveID returns the payload's identity as a string, or "" when none is
// present. "." and ".." are not identities: they cannot name a path segment.
func ResolveID(p Payload) string {
	for _, path := range idPaths {
		if s, ok := asIdentity(lookup(p, path)); ok && s != "." && s != ".." {
			return s
		}
	}
	return ""
}

// NormalizeProduct maps any product-like payload onto the canonical Product.
// It is pure and idempotent: NormalizeProduct(NormalizeProduct(p).Payload())
// equals NormalizeProduct(p).
func NormalizeProduct(p Payload) Product {
	return normalizeProduct(p, productNamePaths)
}

func normalizeProduct(p Payload, names [][]string) Product {
	out := Product{
		ID:           ResolveID(p),
		Name:         Unknown,
		UnitPriceUSD: resolvePrice(p),
	}
	for _, path := range names {
		if s, ok := asText(lookup(p, path)); ok {
			out.Name = s
			break
		}
	}
	for _, path := range imagePaths {
		if s, ok := asText(lookup(p, path)); ok {
			out.Image = s
			break
		}
	}
	for _, path := range weightPaths {
		if s, ok := asIdentity(lookup(p, path)); ok {
			out.Weight = s
			break
		}
	}
	for _, path := range unitPaths {
		if units, ok := asUnits(lookup(p, path)); ok {
			out.Units = units
			break
		}
	}
	return out
}

// NormalizeLine maps a server cart item or optimistic input onto a CartLine.
// Missing quantity defaults to 1, missing selection to true, missing wish to false.
func NormalizeLine(p Payload) CartLine {
	line := CartLine{
		Product:  normalizeProduct(p, lineNamePaths),
		Quantity: 1,
		Selected: true,
	}
	for _, path := range qtyPaths {
		if n, ok := asNumber(lookup(p, path)); ok {
			line.Quantity = int(math.Round(n))
			break
		}
	}
	if b, ok := asBool(p["selected"]); ok {
		line.Selected = b
	}
	if b, ok := asBool(p["wish"]); ok {
		line.Wish = b
	}
	return line
}

func resolvePrice(p Payload) float64 {
	for _, path := range pricePaths {
		if n, ok := asNumber(lookup(p, path)); ok {
			if n < 0 {
				return 0
			}
			return n
		}
	}
	return 0
}

func lookup(p Payload, path []string) any {
	var cur any = map[string]any(p)
	for _, key := range path {
		switch m := cur.(type) {
		case map[string]any:
			cur = m[key]
		case Payload:
			cur = m[key]
		default:
			return nil
		}
		if cur == nil {
			return nil
		}
	}
	return cur
}

func asIdentity(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		s := strings.TrimSpace(x)
		return s, s != ""
	case json.Number:
		return asIdentity(x.String())
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return "", false
		}
		if x == math.Trunc(x) && math.Abs(x) < 1e15 {
			return strconv.FormatInt(int64(x), 10), true
		}
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case float32:
		return asIdentity(float64(x))
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case int32:
		return strconv.FormatInt(int64(x), 10), true
	case uint:
		return strconv.FormatUint(uint64(x), 10), true
	case uint64:
		return strconv.FormatUint(x, 10), true
	case uint32:
		return strconv.FormatUint(uint64(x), 10), true
	}
	return "", false
}

func asText(v any) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

// asNumber coerces JSON numbers and numeric strings ("12.99", "$12.99").
// Anything else, including NaN and infinities, is not a number.
func asNumber(v any) (float64, bool) {
	var n float64
	switch x := v.(type) {
	case float64:
		n = x
	case float32:
		n = float64(x)
	case int:
		n = float64(x)
	case int64:
		n = float64(x)
	case int32:
		n = float64(x)
	case uint:
		n = float64(x)
	case uint64:
		n = float64(x)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, false
		}
		n = f
	case string:
		s := strings.TrimPrefix(strings.TrimSpace(x), "$")
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, false
		}
		n = f
	default:
		return 0, false
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

func asBool(v any) (bool, bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(x)); err == nil {
			return b, true
		}
		return false, false
	}
	if n, ok := asNumber(v); ok {
		return n != 0, true
	}
	return false, false
}

func asUnits(v any) ([]Unit, bool) {
	switch x := v.(type) {
	case []Unit:
		return append([]Unit(nil), x...), true
	case []map[string]any:
		items := make([]any, len(x))
		for i := range x {
			items[i] = x[i]
		}
		return asUnits(items)
	case []any:
		units := make([]Unit, 0, len(x))
		for _, raw := range x {
			switch u := raw.(type) {
			case string:
				if s := strings.TrimSpace(u); s != "" {
					units = append(units, Unit{UnitName: s})
				}
			case map[string]any:
				if s, ok := asText(u["unit_name"]); ok {
					units = append(units, Unit{UnitName: s})
				} else if s, ok := asText(u["name"]); ok {
					units = append(units, Unit{UnitName: s})
				}
			case Unit:
				units = append(units, u)
			}
		}
		if len(units) == 0 {
			return nil, true
		}
		return units, true
	}
	return nil, false
}
