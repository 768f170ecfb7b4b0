// Package sendgrid delivers storefront notifications through the SendGrid v3
// mail API.
package sendgrid

import (
	"context"
	"fmt"

	"github.com/aaravmahajanofficial/textile-storefront/internal/models"
	"github.com/go-playground/validator/v10"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type EmailService interface {
	Send(ctx context.Context, req *models.EmailNotificationRequest) error
	// SendOrderConfirmation renders the order receipt and mails it to the
	// profile's address.
	SendOrderConfirmation(ctx context.Context, user *models.UserProfile, order *models.Order) error
}

type Option func(*emailService)

// WithBaseURL points the client at another mail/send endpoint.
func WithBaseURL(url string) Option {
	return func(e *emailService) {
		e.client.Request.BaseURL = url
	}
}

type emailService struct {
	client    *sendgrid.Client
	validator *validator.Validate
	from      *mail.Email
}

func NewEmailService(apiKey string, fromEmail string, fromName string, opts ...Option) EmailService {
	e := &emailService{
		client:    sendgrid.NewSendClient(apiKey),
		validator: validator.New(),
		from:      mail.NewEmail(fromName, fromEmail),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Send rejects requests failing their validate tags before calling SendGrid.
func (e *emailService) Send(ctx context.Context, req *models.EmailNotificationRequest) error {
	if err := e.validator.Struct(req); err != nil {
		return fmt.Errorf("invalid email request: %w", err)
	}

	response, err := e.client.SendWithContext(ctx, e.message(req))
	if err != nil {
		return err
	}

	if response.StatusCode >= 400 {
		return fmt.Errorf("failed to send email, status code: %d", response.StatusCode)
	}

	return nil
}

func (e *emailService) SendOrderConfirmation(ctx context.Context, user *models.UserProfile, order *models.Order) error {
	req, err := OrderConfirmation(user, order)
	if err != nil {
		return err
	}

	return e.Send(ctx, req)
}

func (e *emailService) message(req *models.EmailNotificationRequest) *mail.SGMailV3 {
	p := mail.NewPersonalization()
	p.AddTos(mail.NewEmail(req.ToName, req.To))
	p.Subject = req.Subject

	for _, cc := range req.CC {
		p.AddCCs(mail.NewEmail("", cc))
	}
	for _, bcc := range req.BCC {
		p.AddBCCs(mail.NewEmail("", bcc))
	}

	m := mail.NewV3Mail()
	m.SetFrom(e.from)
	m.AddPersonalizations(p)

	// SendGrid requires text/plain before text/html.
	m.AddContent(mail.NewContent("text/plain", req.Content))
	if req.HTMLContent != "" {
		m.AddContent(mail.NewContent("text/html", req.HTMLContent))
	}

	return m
}
