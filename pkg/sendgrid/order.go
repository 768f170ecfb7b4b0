package sendgrid

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"github.com/aaravmahajanofficial/textile-storefront/internal/models"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var brPrinter = message.NewPrinter(language.BrazilianPortuguese)

var paymentLabels = map[models.PaymentMethod]string{
	models.PaymentMethodPix:        "Pix",
	models.PaymentMethodCreditCard: "Cartão de crédito",
	models.PaymentMethodBoleto:     "Boleto",
}

const orderText = `Olá {{.Name}},

Recebemos seu pedido {{.OrderID}}.

{{range .Lines}}- {{.Description}}: {{.Amount}}
{{end}}
Subtotal: {{.Subtotal}}
Frete: {{.Shipping}}
Total: {{.Total}}
Pagamento: {{.Payment}}
Entrega: {{.ShippingLabel}} ({{.DeliveryTime}})
Previsão: {{.EstimatedDelivery}}
`

const orderHTML = `<p>Olá {{.Name}},</p>
<p>Recebemos seu pedido <strong>{{.OrderID}}</strong>.</p>
<table>
{{range .Lines}}<tr><td>{{.Description}}</td><td>{{.Amount}}</td></tr>
{{end}}<tr><td>Subtotal</td><td>{{.Subtotal}}</td></tr>
<tr><td>Frete</td><td>{{.Shipping}}</td></tr>
<tr><td><strong>Total</strong></td><td><strong>{{.Total}}</strong></td></tr>
</table>
<p>Pagamento: {{.Payment}}<br>Entrega: {{.ShippingLabel}} ({{.DeliveryTime}})<br>Previsão: {{.EstimatedDelivery}}</p>
`

var (
	orderTextTmpl = texttemplate.Must(texttemplate.New("order.txt").Parse(orderText))
	orderHTMLTmpl = htmltemplate.Must(htmltemplate.New("order.html").Parse(orderHTML))
)

type receiptLine struct {
	Description string
	Amount      string
}

type receipt struct {
	Name              string
	OrderID           string
	Lines             []receiptLine
	Subtotal          string
	Shipping          string
	Total             string
	Payment           string
	ShippingLabel     string
	DeliveryTime      string
	EstimatedDelivery string
}

// OrderConfirmation builds the receipt mail for order, addressed to user.
func OrderConfirmation(user *models.UserProfile, order *models.Order) (*models.EmailNotificationRequest, error) {
	r := receipt{
		Name:              user.Name,
		OrderID:           order.ID,
		Subtotal:          FormatBRL(order.Subtotal),
		Shipping:          FormatBRL(order.ShippingCost),
		Total:             FormatBRL(order.Total),
		Payment:           paymentLabel(order.PaymentMethod),
		ShippingLabel:     order.Shipping.Label,
		DeliveryTime:      order.Shipping.DeliveryTime,
		EstimatedDelivery: order.EstimatedDelivery.Format("02/01/2006"),
	}

	if order.ShippingCost == 0 {
		r.Shipping = "Grátis"
	}

	for _, line := range order.Items {
		r.Lines = append(r.Lines, receiptLine{Description: describeLine(line), Amount: FormatBRL(line.Subtotal())})
	}

	var text, html bytes.Buffer

	if err := orderTextTmpl.Execute(&text, r); err != nil {
		return nil, fmt.Errorf("failed to render order confirmation: %w", err)
	}
	if err := orderHTMLTmpl.Execute(&html, r); err != nil {
		return nil, fmt.Errorf("failed to render order confirmation: %w", err)
	}

	return &models.EmailNotificationRequest{
		To:          user.Email,
		ToName:      user.Name,
		Subject:     fmt.Sprintf("Pedido %s confirmado", shortOrderID(order.ID)),
		Content:     text.String(),
		HTMLContent: html.String(),
	}, nil
}

// FormatBRL renders 1234.5 as "R$ 1.234,50".
func FormatBRL(v float64) string {
	return "R$ " + brPrinter.Sprintf("%.2f", v)
}

func describeLine(line models.CartLine) string {
	if line.Product.IsLengthSold() && line.Meters != nil {
		return brPrinter.Sprintf("%s (%.2f m)", line.Product.Name, *line.Meters)
	}

	return fmt.Sprintf("%dx %s", line.Quantity, line.Product.Name)
}

func paymentLabel(m models.PaymentMethod) string {
	if label, ok := paymentLabels[m]; ok {
		return label
	}
	return string(m)
}

func shortOrderID(id string) string {
	if len(id) > 8 {
		id = id[:8]
	}
	return strings.ToUpper(id)
}
