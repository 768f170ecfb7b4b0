package service_test

import (
	"context"

	"github.com/aaravmahajanofficial/textile-storefront/internal/models"
	"github.com/aaravmahajanofficial/textile-storefront/pkg/correios"
	"github.com/stretchr/testify/mock"
	stripego "github.com/stripe/stripe-go/v81"
)

type MockQuoteProvider struct {
	mock.Mock
}

func (m *MockQuoteProvider) Quotes(ctx context.Context, in correios.Input) []correios.Quote {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]correios.Quote)
}

type MockPaymentClient struct {
	mock.Mock
}

func (m *MockPaymentClient) CreatePaymentIntent(ctx context.Context, amount int64, currency string, description string, metadata map[string]string) (*stripego.PaymentIntent, error) {
	args := m.Called(ctx, amount, currency, description, metadata)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stripego.PaymentIntent), args.Error(1)
}

func (m *MockPaymentClient) CancelPaymentIntent(ctx context.Context, paymentIntentID string) (*stripego.PaymentIntent, error) {
	args := m.Called(ctx, paymentIntentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stripego.PaymentIntent), args.Error(1)
}

type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) Send(ctx context.Context, req *models.EmailNotificationRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockEmailService) SendOrderConfirmation(ctx context.Context, user *models.UserProfile, order *models.Order) error {
	args := m.Called(ctx, user, order)
	return args.Error(0)
}
