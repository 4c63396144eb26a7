// Package pricing derives the checkout summary from the selected cart lines.
package pricing

import (
	"errors"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/sirupsen/logrus"
)

// Payment method identifiers accepted at checkout
const (
	MethodCOD   = "cod"
	MethodABAQR = "aba_qr"
	MethodKHQR  = "khqr"
)

// Rules are the currency and payment parameters of the summary
type Rules struct {
	ExchangeRate float64            `toml:"exchange_rate"`
	MinOrderKHR  float64            `toml:"min_order_khr"`
	PaymentRates map[string]float64 `toml:"payment_rates"`
}

// DefaultRules: 4100 riel per dollar, a 1000 riel floor, and a 0.5% discount
// for QR payments.
func DefaultRules() Rules {
	return Rules{
		ExchangeRate: 4100,
		MinOrderKHR:  1000,
		PaymentRates: map[string]float64{
			MethodCOD:   0,
			MethodABAQR: -0.005,
			MethodKHQR:  -0.005,
		},
	}
}

// LoadRules reads rules from a TOML file, filling anything the file leaves out
// from DefaultRules. An empty path, a missing file or a malformed file all
// yield the defaults.
func LoadRules(path string, log logrus.FieldLogger) Rules {
	rules := DefaultRules()
	if path == "" {
		return rules
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.WithError(err).WithField("path", path).Warn("pricing rules unreadable, using defaults")
		}
		return rules
	}

	var file Rules
	if err := toml.Unmarshal(raw, &file); err != nil {
		log.WithError(err).WithField("path", path).Warn("pricing rules malformed, using defaults")
		return rules
	}

	if file.ExchangeRate > 0 {
		rules.ExchangeRate = file.ExchangeRate
	}
	if file.MinOrderKHR > 0 {
		rules.MinOrderKHR = file.MinOrderKHR
	}
	for method, rate := range file.PaymentRates {
		rules.PaymentRates[method] = rate
	}
	return rules
}

// Rate returns the adjustment rate of a payment method, zero when unknown
func (r Rules) Rate(method string) float64 {
	return r.PaymentRates[method]
}

// Known reports whether method has a configured rate
func (r Rules) Known(method string) bool {
	_, ok := r.PaymentRates[method]
	return ok
}
