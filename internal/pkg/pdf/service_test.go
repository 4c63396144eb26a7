package pdf

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/pharmacy-storefront/internal/config"
	"github.com/your-org/pharmacy-storefront/internal/domain/order"
)

func sampleOrder() *order.Order {
	return &order.Order{
		OrderNumber:   "ORD-20260101-ABCDEF12",
		PaymentMethod: "aba_qr",
		Customer:      order.Customer{FullName: "Dara <script>", Phone: "012345678", Address: "St 271"},
		SubtotalUSD:   6,
		ExchangeRate:  4100,
		TotalKHR:      24500,
		CreatedAt:     time.Date(2026, 1, 1, 9, 30, 0, 0, time.UTC),
		Items: []order.OrderItem{
			{ProductID: "a", Name: "Paracetamol", PriceUSD: 2, Quantity: 3},
		},
		PaymentAdjustmentKHR: -100,
	}
}

func TestRenderHTML(t *testing.T) {
	s := NewServiceWithConverter(config.CompanyConfig{Name: "Pharmacy Storefront", Phone: "023 000 000"}, nil)

	html, err := s.RenderHTML(sampleOrder())
	require.NoError(t, err)

	body := string(html)
	assert.Contains(t, body, "RCPT-ORD-20260101-ABCDEF12")
	assert.Contains(t, body, "January 1, 2026 09:30 UTC")
	assert.Contains(t, body, "$6.00")
	assert.Contains(t, body, "24500 ៛")
	assert.Contains(t, body, "-100 ៛")
	assert.Contains(t, body, "Dara &lt;script&gt;")
	assert.NotContains(t, body, "<script>")
}

func TestGenerateReceipt_UsesConverter(t *testing.T) {
	var seen []byte
	s := NewServiceWithConverter(config.CompanyConfig{Name: "P"}, func(html []byte) ([]byte, error) {
		seen = html
		return []byte("%PDF-1.4"), nil
	})

	pdf, err := s.GenerateReceipt(sampleOrder())
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4"), pdf)
	assert.Contains(t, string(seen), "Paracetamol")

	failing := NewServiceWithConverter(config.CompanyConfig{}, func([]byte) ([]byte, error) {
		return nil, errors.New("wkhtmltopdf not found")
	})
	_, err = failing.GenerateReceipt(sampleOrder())
	assert.ErrorContains(t, err, "wkhtmltopdf not found")
}
