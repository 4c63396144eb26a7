// internal/pkg/pdf/service.go
package pdf

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/SebastiaanKlippert/go-wkhtmltopdf"
	"github.com/your-org/pharmacy-storefront/internal/config"
	"github.com/your-org/pharmacy-storefront/internal/domain/order"
)

// Converter turns an HTML document into PDF bytes
type Converter func(html []byte) ([]byte, error)

// Service renders order receipts
type Service struct {
	company config.CompanyConfig
	convert Converter
	tmpl    *template.Template
}

// NewService creates a receipt renderer backed by wkhtmltopdf
func NewService(company config.CompanyConfig) *Service {
	return NewServiceWithConverter(company, Wkhtmltopdf)
}

// NewServiceWithConverter creates a receipt renderer with a custom HTML to PDF step
func NewServiceWithConverter(company config.CompanyConfig, convert Converter) *Service {
	return &Service{
		company: company,
		convert: convert,
		tmpl: template.Must(template.New("receipt").Funcs(template.FuncMap{
			"usd": func(v float64) string { return fmt.Sprintf("$%.2f", v) },
			"khr": func(v float64) string { return fmt.Sprintf("%.0f ៛", v) },
		}).Parse(receiptTemplate)),
	}
}

// ReceiptData represents the data passed to the receipt template
type ReceiptData struct {
	ReceiptNumber string
	IssuedAt      string
	Order         *order.Order
	Company       config.CompanyConfig
}

// GenerateReceipt renders the receipt of an order as PDF
func (s *Service) GenerateReceipt(o *order.Order) ([]byte, error) {
	html, err := s.RenderHTML(o)
	if err != nil {
		return nil, err
	}
	pdf, err := s.convert(html)
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF: %w", err)
	}
	return pdf, nil
}

// RenderHTML renders the receipt document
func (s *Service) RenderHTML(o *order.Order) ([]byte, error) {
	data := ReceiptData{
		ReceiptNumber: "RCPT-" + o.OrderNumber,
		IssuedAt:      o.CreatedAt.In(time.UTC).Format("January 2, 2006 15:04 UTC"),
		Order:         o,
		Company:       s.company,
	}

	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.Bytes(), nil
}

// Wkhtmltopdf converts HTML with the wkhtmltopdf binary
func Wkhtmltopdf(html []byte) ([]byte, error) {
	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF generator: %w", err)
	}

	pdfg.Dpi.Set(300)
	pdfg.Orientation.Set(wkhtmltopdf.OrientationPortrait)
	pdfg.PageSize.Set(wkhtmltopdf.PageSizeA5)

	page := wkhtmltopdf.NewPageReader(bytes.NewReader(html))
	page.FooterRight.Set("[page]")
	page.FooterFontSize.Set(8)
	pdfg.AddPage(page)

	if err := pdfg.Create(); err != nil {
		return nil, err
	}
	return pdfg.Bytes(), nil
}

const receiptTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>Receipt {{.ReceiptNumber}}</title>
<style>
  body { font-family: Arial, sans-serif; margin: 0; padding: 16px; color: #222; font-size: 12px; }
  h1 { font-size: 18px; margin: 0 0 4px; }
  .muted { color: #666; }
  table { width: 100%; border-collapse: collapse; margin-top: 12px; }
  th, td { padding: 6px 4px; border-bottom: 1px solid #ddd; text-align: left; }
  td.num, th.num { text-align: right; }
  .totals td { border: none; }
</style>
</head>
<body>
  <h1>{{.Company.Name}}</h1>
  <div class="muted">{{.Company.Address}}{{if .Company.Phone}} · {{.Company.Phone}}{{end}}{{if .Company.Email}} · {{.Company.Email}}{{end}}</div>

  <p>
    <strong>Receipt:</strong> {{.ReceiptNumber}}<br>
    <strong>Order:</strong> {{.Order.OrderNumber}}<br>
    <strong>Date:</strong> {{.IssuedAt}}<br>
    <strong>Payment:</strong> {{.Order.PaymentMethod}}{{if .Order.DeliverySlot}}<br>
    <strong>Delivery:</strong> {{.Order.DeliverySlot}}{{end}}
  </p>

  <p>
    <strong>{{.Order.Customer.FullName}}</strong><br>
    {{.Order.Customer.Phone}}<br>
    {{.Order.Customer.Address}}
  </p>

  <table>
    <thead>
      <tr><th>Item</th><th class="num">Qty</th><th class="num">Price</th><th class="num">Total</th></tr>
    </thead>
    <tbody>
    {{range .Order.Items}}
      <tr><td>{{.Name}}</td><td class="num">{{.Quantity}}</td><td class="num">{{usd .PriceUSD}}</td><td class="num">{{usd .LineTotalUSD}}</td></tr>
    {{end}}
    </tbody>
  </table>

  <table class="totals">
    <tr><td>Subtotal</td><td class="num">{{usd .Order.SubtotalUSD}}</td></tr>
    {{if .Order.PaymentAdjustmentKHR}}<tr><td>Payment adjustment</td><td class="num">{{khr .Order.PaymentAdjustmentKHR}}</td></tr>{{end}}
    <tr><td><strong>Total</strong></td><td class="num"><strong>{{khr .Order.TotalKHR}}</strong></td></tr>
    <tr><td class="muted">Exchange rate</td><td class="num muted">1 USD = {{khr .Order.ExchangeRate}}</td></tr>
  </table>

  {{if .Order.Note}}<p class="muted">Note: {{.Order.Note}}</p>{{end}}
</body>
</html>
`
