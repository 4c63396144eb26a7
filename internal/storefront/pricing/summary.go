package pricing

import (
	"math"

	"github.com/your-org/pharmacy-storefront/internal/storefront/item"
)

// Input is everything the summary depends on. Unselected lines are ignored.
type Input struct {
	Lines         []item.CartLine
	PaymentMethod string
	ShippingKHR   float64
	CouponKHR     float64
}

// Summary is the checkout breakdown in riel, with dollar equivalents
type Summary struct {
	ItemCount            int     `json:"item_count"`
	SubtotalKHR          float64 `json:"subtotal_khr"`
	ShippingKHR          float64 `json:"shipping_khr"`
	CouponKHR            float64 `json:"coupon_khr"`
	PaymentMethod        string  `json:"payment_method"`
	PaymentAdjustmentKHR float64 `json:"payment_adjustment_khr"`
	TotalKHR             float64 `json:"total_khr"`
	SubtotalUSD          float64 `json:"subtotal_usd"`
	TotalUSD             float64 `json:"total_usd"`
	ExchangeRate         float64 `json:"exchange_rate"`
	MinOrderKHR          float64 `json:"min_order_khr"`
	BelowMinimum         bool    `json:"below_minimum"`
	CanCheckout          bool    `json:"can_checkout"`
}

// Round100 rounds to the nearest 100 riel, halves toward positive infinity
func Round100(n float64) float64 {
	return math.Floor(n/100+0.5) * 100
}

// Calculate builds the summary. The coupon always counts as a discount
// whatever its sign, and the total never drops below zero.
func (r Rules) Calculate(in Input) Summary {
	s := Summary{
		PaymentMethod: in.PaymentMethod,
		ExchangeRate:  r.ExchangeRate,
		MinOrderKHR:   r.MinOrderKHR,
	}
	for _, l := range in.Lines {
		if !l.Selected {
			continue
		}
		s.ItemCount += l.Quantity
		s.SubtotalKHR += l.UnitPriceUSD * r.ExchangeRate * float64(l.Quantity)
	}

	s.ShippingKHR = Round100(in.ShippingKHR)
	s.CouponKHR = Round100(-math.Abs(in.CouponKHR))
	s.PaymentAdjustmentKHR = Round100(s.SubtotalKHR * r.Rate(in.PaymentMethod))
	s.TotalKHR = math.Max(0, s.SubtotalKHR+s.ShippingKHR+s.CouponKHR+s.PaymentAdjustmentKHR)

	if r.ExchangeRate > 0 {
		s.SubtotalUSD = s.SubtotalKHR / r.ExchangeRate
		s.TotalUSD = s.TotalKHR / r.ExchangeRate
	}

	s.BelowMinimum = s.TotalKHR > 0 && s.TotalKHR < r.MinOrderKHR
	s.CanCheckout = s.TotalKHR > 0 && !s.BelowMinimum
	return s
}
