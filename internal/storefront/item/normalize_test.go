package item

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveID_Order(t *testing.T) {
	tests := []struct {
		name    string
		payload Payload
		want    string
	}{
		{"product_id wins", Payload{"product_id": "7", "id": 99}, "7"},
		{"generic id", Payload{"id": float64(7)}, "7"},
		{"medicine_id", Payload{"medicine_id": 12}, "12"},
		{"nested medicine", Payload{"medicine": map[string]any{"id": "m-3"}}, "m-3"},
		{"nested product", Payload{"product": map[string]any{"id": json.Number("44")}}, "44"},
		{"blank product_id falls through", Payload{"product_id": "  ", "id": "8"}, "8"},
		{"fractional id", Payload{"id": 1.5}, "1.5"},
		{"none", Payload{"name": "Vitamins"}, ""},
		{"bool is not an id", Payload{"id": true}, ""},
		{"nan is not an id", Payload{"id": math.NaN()}, ""},
		{"dot segments are not ids", Payload{"product_id": "..", "id": "."}, ""},
		{"dot product_id falls through", Payload{"product_id": " .. ", "id": 8}, "8"},
		{"slash is kept", Payload{"id": "a/b"}, "a/b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveID(tt.payload))
		})
	}
}

func TestNormalizeProduct_Fields(t *testing.T) {
	p := NormalizeProduct(Payload{
		"id":   7,
		"name": "Vitamins",
		"medicine": map[string]any{
			"id":            7,
			"medicine_name": "Vitamin C 500mg",
			"price":         "12.99",
			"image":         "https://cdn.example.com/vc.png",
			"weight":        500,
			"units": []any{
				map[string]any{"unit_name": "Box"},
				map[string]any{"name": "Strip"},
				"Tablet",
				42,
			},
		},
	})

	assert.Equal(t, "7", p.ID)
	assert.Equal(t, "Vitamins", p.Name)
	assert.Equal(t, 12.99, p.UnitPriceUSD)
	assert.Equal(t, "https://cdn.example.com/vc.png", p.Image)
	assert.Equal(t, "500", p.Weight)
	assert.Equal(t, []Unit{{"Box"}, {"Strip"}, {"Tablet"}}, p.Units)
}

func TestNormalize_NameOrder(t *testing.T) {
	both := Payload{
		"id":      7,
		"name":    "Vitamins",
		"product": map[string]any{"medicine": map[string]any{"medicine_name": "Vitamin C 500mg"}},
	}
	assert.Equal(t, "Vitamins", NormalizeProduct(both).Name, "a product names itself first")
	assert.Equal(t, "Vitamin C 500mg", NormalizeLine(both).Name, "a cart item prefers the catalog medicine name")

	assert.Equal(t, "Zinc", NormalizeProduct(Payload{"id": 1, "medicine": map[string]any{"medicine_name": "Zinc"}}).Name)
	assert.Equal(t, "Zinc", NormalizeLine(Payload{"id": 1, "medicine_name": "Zinc", "name": "generic"}).Name)
	assert.Equal(t, Unknown, NormalizeLine(Payload{"id": 1}).Name)

	assert.False(t, NormalizeProduct(Payload{"id": "..", "name": "x"}).Valid())
}

func TestNormalizeProduct_Defaults(t *testing.T) {
	p := NormalizeProduct(Payload{"id": "1", "price": "n/a", "price_usd": nil})

	assert.Equal(t, Unknown, p.Name)
	assert.Zero(t, p.UnitPriceUSD)
	assert.Empty(t, p.Image)
	assert.Empty(t, p.Units)
}

func TestNormalizeProduct_PriceChain(t *testing.T) {
	tests := []struct {
		name    string
		payload Payload
		want    float64
	}{
		{"dollar string", Payload{"price": "$12.99"}, 12.99},
		{"price_usd before price", Payload{"price_usd": 3, "price": 9}, 3},
		{"skips non numeric", Payload{"price_usd": "abc", "price": 4.5}, 4.5},
		{"skips nan", Payload{"price_usd": math.NaN(), "price": 2}, 2},
		{"nested product price", Payload{"product": map[string]any{"price": 8}}, 8},
		{"negative clamps", Payload{"price": -1}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeProduct(tt.payload).UnitPriceUSD)
		})
	}
}

func TestNormalizeProduct_ImageChain(t *testing.T) {
	p := NormalizeProduct(Payload{
		"image":   "top.png",
		"product": map[string]any{"image": "product.png", "medicine": map[string]any{"image": "deep.png"}},
	})
	assert.Equal(t, "deep.png", p.Image)

	p = NormalizeProduct(Payload{"image": "top.png", "product": map[string]any{"image": ""}})
	assert.Equal(t, "top.png", p.Image)
}

func TestNormalizeLine_Defaults(t *testing.T) {
	line := NormalizeLine(Payload{"id": "7", "name": "Vitamins", "price": 12.99})

	assert.Equal(t, "7", line.ID)
	assert.Equal(t, 1, line.Quantity)
	assert.True(t, line.Selected)
	assert.False(t, line.Wish)
}

func TestNormalizeLine_ServerFlags(t *testing.T) {
	line := NormalizeLine(Payload{
		"product_id": 7,
		"quantity":   "3",
		"selected":   0,
		"wish":       "true",
	})

	assert.Equal(t, 3, line.Quantity)
	assert.False(t, line.Selected)
	assert.True(t, line.Wish)
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []Payload{
		{"id": "7", "name": "Vitamins", "price": 12.99},
		{"product_id": 3, "medicine": map[string]any{"medicine_name": "Paracetamol", "price": "$1.20", "units": []any{"Box"}}, "qty": 4, "wish": true},
		{"id": 5},
		{"medicine_id": "x", "weight": 2.5, "selected": false},
	}
	for _, in := range inputs {
		once := NormalizeLine(in)
		twice := NormalizeLine(once.Payload())
		assert.Equal(t, once, twice)

		p := NormalizeProduct(in)
		assert.Equal(t, p, NormalizeProduct(p.Payload()))
	}
}

func TestPayload_JSONRoundTrip(t *testing.T) {
	line := CartLine{
		Product:  Product{ID: "7", Name: "Vitamins", UnitPriceUSD: 12.99, Units: []Unit{{"Box"}}},
		Quantity: 2,
		Selected: true,
	}

	raw, err := json.Marshal(line)
	require.NoError(t, err)

	var decoded Payload
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, line, NormalizeLine(decoded))
}

func TestCartLine_CloneDoesNotAlias(t *testing.T) {
	line := CartLine{Product: Product{ID: "1", Units: []Unit{{"Box"}}}}
	clone := line.Clone()
	clone.Units[0].UnitName = "Strip"

	assert.Equal(t, "Box", line.Units[0].UnitName)
	assert.Equal(t, 25.98, CartLine{Product: Product{UnitPriceUSD: 12.99}, Quantity: 2}.LineTotalUSD())
}
