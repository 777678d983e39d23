package application

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/Apurer/go-gin-commerce/internal/domains/notifications/domain"
	"github.com/Apurer/go-gin-commerce/internal/domains/notifications/ports"
)

// DefaultFrom is used when no sender address is configured.
const DefaultFrom = "no-reply@ecommerce.local"

var templates = template.Must(template.New("emails").Funcs(template.FuncMap{
	"money": func(v float64) string { return fmt.Sprintf("R$ %.2f", v) },
}).Parse(`
{{define "payment_confirmation"}}<p>Olá,</p>
<p>Seu pagamento do pedido <strong>{{.OrderID}}</strong> foi confirmado com sucesso.</p>
<p>Total: <strong>{{money .Amount}}</strong></p>
{{- if .Payments}}
<p>Detalhes:</p>
<p>{{range $i, $p := .Payments}}{{if $i}}<br>{{end}}• {{$p.Method}} - {{money $p.Amount}}{{end}}</p>
{{- end}}
<p>Obrigado por comprar conosco!</p>{{end}}
{{define "low_stock"}}<p>Olá,</p>
<p>O produto <strong>{{.ProductName}}</strong> (#{{.ProductID}}) está com estoque baixo.</p>
<p>Estoque atual: <strong>{{.CurrentStock}}</strong> (limite: {{.Threshold}})</p>
<p>Por favor, providencie a reposição.</p>{{end}}
`))

// Service renders notification templates and hands them to a Sender.
type Service struct {
	sender ports.Sender
	from   string
}

func NewService(sender ports.Sender, from string) *Service {
	if strings.TrimSpace(from) == "" {
		from = DefaultFrom
	}
	return &Service{sender: sender, from: from}
}

func (s *Service) SendPaymentConfirmation(ctx context.Context, req domain.PaymentConfirmation) error {
	if err := req.Validate(); err != nil {
		return mapError(err)
	}
	subject := fmt.Sprintf("Pagamento confirmado - Pedido %s", req.OrderID)
	return s.send(ctx, req.To, subject, "payment_confirmation", req)
}

func (s *Service) SendLowStock(ctx context.Context, req domain.LowStock) error {
	if err := req.Validate(); err != nil {
		return mapError(err)
	}
	subject := fmt.Sprintf("Estoque baixo - %s", req.ProductName)
	return s.send(ctx, req.To, subject, "low_stock", req)
}

func (s *Service) send(ctx context.Context, to, subject, name string, data any) error {
	var body bytes.Buffer
	if err := templates.ExecuteTemplate(&body, name, data); err != nil {
		return fmt.Errorf("render %s email: %w", name, err)
	}
	return s.sender.Send(ctx, domain.Email{
		From:    s.from,
		To:      to,
		Subject: subject,
		HTML:    strings.TrimSpace(body.String()),
	})
}

var _ ports.Service = (*Service)(nil)
