package mailer

import (
	"html/template"
	"strings"
)

// OrderLine is one purchased line rendered in an email
type OrderLine struct {
	Name     string
	Quantity int
	Price    int
}

type orderEmailData struct {
	CustomerName string
	OrderID      uint
	Lines        []OrderLine
	ItemsTotal   int
	ShippingFee  int
	Total        int
	Status       string
	Note         string
}

var confirmationTmpl = template.Must(template.New("confirmation").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #333;">Thank you for your order, {{.CustomerName}}!</h2>
  <p>Your order <strong>#{{.OrderID}}</strong> has been placed and is now pending.</p>
  <table style="width: 100%; border-collapse: collapse;">
    <tr style="background: #f5f5f5;">
      <th style="text-align: left; padding: 8px;">Item</th>
      <th style="text-align: right; padding: 8px;">Qty</th>
      <th style="text-align: right; padding: 8px;">Price</th>
    </tr>
    {{range .Lines}}
    <tr>
      <td style="padding: 8px; border-top: 1px solid #eee;">{{.Name}}</td>
      <td style="text-align: right; padding: 8px; border-top: 1px solid #eee;">{{.Quantity}}</td>
      <td style="text-align: right; padding: 8px; border-top: 1px solid #eee;">${{.Price}}</td>
    </tr>
    {{end}}
  </table>
  <p style="text-align: right;">
    Items: ${{.ItemsTotal}}<br/>
    Shipping: ${{.ShippingFee}}<br/>
    <strong>Total: ${{.Total}}</strong>
  </p>
  <p style="color: #777;">We will email you again when your order ships.</p>
</div>`))

var statusUpdateTmpl = template.Must(template.New("status").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #333;">Order update</h2>
  <p>Hi {{.CustomerName}},</p>
  <p>Your order <strong>#{{.OrderID}}</strong> is now <strong>{{.Status}}</strong>.</p>
  {{if .Note}}<p>Note: {{.Note}}</p>{{end}}
  <p style="color: #777;">Thank you for shopping with us.</p>
</div>`))

type resetEmailData struct {
	CustomerName  string
	Token         string
	ExpiryMinutes int
}

var passwordResetTmpl = template.Must(template.New("reset").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #333;">Password reset</h2>
  <p>Hi {{.CustomerName}},</p>
  <p>Use the code below to set a new password. It expires in {{.ExpiryMinutes}} minutes
  and works exactly once.</p>
  <p style="font-family: monospace; font-size: 16px; background: #f5f5f5; padding: 12px;">{{.Token}}</p>
  <p style="color: #777;">If you did not ask for this, you can ignore this email.</p>
</div>`))

// OrderConfirmationBody renders the HTML body for a new order email
func OrderConfirmationBody(customerName string, orderID uint, lines []OrderLine, itemsTotal, shippingFee, total int) string {
	var b strings.Builder
	data := orderEmailData{
		CustomerName: customerName,
		OrderID:      orderID,
		Lines:        lines,
		ItemsTotal:   itemsTotal,
		ShippingFee:  shippingFee,
		Total:        total,
	}
	if err := confirmationTmpl.Execute(&b, data); err != nil {
		return ""
	}
	return b.String()
}

// PasswordResetBody renders the HTML body for a password reset email
func PasswordResetBody(customerName, token string, expiryMinutes int) string {
	var b strings.Builder
	data := resetEmailData{
		CustomerName:  customerName,
		Token:         token,
		ExpiryMinutes: expiryMinutes,
	}
	if err := passwordResetTmpl.Execute(&b, data); err != nil {
		return ""
	}
	return b.String()
}

// StatusUpdateBody renders the HTML body for an order status change email
func StatusUpdateBody(customerName string, orderID uint, status, note string) string {
	var b strings.Builder
	data := orderEmailData{
		CustomerName: customerName,
		OrderID:      orderID,
		Status:       status,
		Note:         note,
	}
	if err := statusUpdateTmpl.Execute(&b, data); err != nil {
		return ""
	}
	return b.String()
}
