package service

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/aaravmahajanofficial/textile-storefront/internal/errors"
	"github.com/aaravmahajanofficial/textile-storefront/internal/metrics"
	"github.com/aaravmahajanofficial/textile-storefront/internal/models"
	"github.com/aaravmahajanofficial/textile-storefront/internal/storage"
	"github.com/aaravmahajanofficial/textile-storefront/pkg/correios"
	"github.com/aaravmahajanofficial/textile-storefront/pkg/sendgrid"
	"github.com/aaravmahajanofficial/textile-storefront/pkg/stripe"
	"github.com/google/uuid"
)

// Parcel estimate used for carrier quotes.
const (
	weightPerLineKg = 0.5
	minWeightKg     = 0.3
	parcelLengthCm  = 20
	parcelHeightCm  = 10
	parcelWidthCm   = 15
)

type QuoteProvider interface {
	Quotes(ctx context.Context, in correios.Input) []correios.Quote
}

type CheckoutOptions struct {
	OriginZip    string
	Currency     string
	WriteTimeout time.Duration
	Now          func() time.Time
	Logger       *slog.Logger
}

type CheckoutService struct {
	quotes   QuoteProvider
	payments stripe.Client
	mailer   sendgrid.EmailService
	store    storage.Store
	opts     CheckoutOptions
}

// NewCheckoutService wires checkout. payments and mailer may be nil: card
// payments are then rejected and confirmation emails skipped.
func NewCheckoutService(quotes QuoteProvider, payments stripe.Client, mailer sendgrid.EmailService, store storage.Store, opts CheckoutOptions) *CheckoutService {
	if opts.Currency == "" {
		opts.Currency = "brl"
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = defaultWriteTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &CheckoutService{
		quotes:   quotes,
		payments: payments,
		mailer:   mailer,
		store:    store,
		opts:     opts,
	}
}

func PickupOption() models.ShippingOption {
	return models.ShippingOption{
		ID:           models.PickupOptionID,
		Label:        "Retirar na Loja",
		Price:        0,
		DeliveryTime: "Pronto em 24h",
		DeadlineDays: 1,
	}
}

// ShippingOptions always offers store pickup first, followed by every carrier
// quote that came back without an error.
func (s *CheckoutService) ShippingOptions(ctx context.Context, sess *Session, destinationZip string) []models.ShippingOption {
	options := []models.ShippingOption{PickupOption()}

	if strings.TrimSpace(destinationZip) == "" {
		return options
	}

	lines := sess.Cart.Lines()

	quotes := s.quotes.Quotes(ctx, correios.Input{
		OriginZip:      s.opts.OriginZip,
		DestinationZip: destinationZip,
		WeightKg:       math.Max(minWeightKg, float64(len(lines))*weightPerLineKg),
		LengthCm:       parcelLengthCm,
		HeightCm:       parcelHeightCm,
		WidthCm:        parcelWidthCm,
	})

	answered := make(map[correios.Service]bool, len(quotes))

	for _, q := range quotes {
		answered[q.Service] = true
		metrics.ObserveShippingQuote(string(q.Service), q.Error == "")

		if q.Error != "" {
			continue
		}

		options = append(options, models.ShippingOption{
			ID:           strings.ToLower(string(q.Service)),
			Label:        correios.Label(q),
			Price:        q.Price,
			DeliveryTime: correios.ETA(q),
			DeadlineDays: q.DeadlineDays,
		})
	}

	for _, svc := range correios.Services {
		if !answered[svc] {
			metrics.ObserveShippingQuote(string(svc), false)
		}
	}

	return options
}

// PlaceOrder turns the device's cart into an order. The shipping option is
// re-quoted here so the client cannot choose its own price.
func (s *CheckoutService) PlaceOrder(ctx context.Context, sess *Session, req *models.PlaceOrderRequest) (*models.Order, error) {
	logger := s.opts.Logger.With(slog.String("device_id", sess.DeviceID))

	user := sess.Account.Profile()
	if user == nil {
		return nil, errors.UnauthorizedError("Sign in to place an order")
	}

	cart := sess.Cart.Snapshot()
	if len(cart.Items) == 0 {
		return nil, errors.EmptyCartError("Cart is empty")
	}

	for _, line := range cart.Items {
		if !line.Product.InStock {
			return nil, errors.OutOfStockError("Product is out of stock").WithDetail(line.Product.Name)
		}
	}

	var card *models.SavedCard
	if req.PaymentMethod == models.PaymentMethodCreditCard && req.SavedCardID != "" {
		saved, found := sess.PaymentMethods.Get(req.SavedCardID)
		if !found {
			return nil, errors.AddValidationError("savedCardId", "card not found")
		}
		card = &saved
	}

	shipping, ok := findOption(s.ShippingOptions(ctx, sess, req.Address.ZipCode), req.ShippingOptionID)
	if !ok {
		return nil, errors.AddValidationError("shippingOptionId", "option not available for this address")
	}

	now := s.opts.Now()

	order := &models.Order{
		ID:                uuid.NewString(),
		UserID:            user.ID,
		Items:             cart.Items,
		Subtotal:          roundCents(cart.TotalPrice),
		ShippingCost:      roundCents(shipping.Price),
		Status:            models.OrderStatusPending,
		PaymentMethod:     req.PaymentMethod,
		Shipping:          shipping,
		ShippingAddress:   req.Address,
		CreatedAt:         now,
		EstimatedDelivery: AddBusinessDays(now, max(1, shipping.DeadlineDays)),
		Card:              card,
	}
	order.Total = roundCents(order.Subtotal + order.ShippingCost)

	if req.PaymentMethod == models.PaymentMethodCreditCard {
		if err := s.createPaymentIntent(ctx, order); err != nil {
			return nil, err
		}
	}

	if err := s.appendOrder(ctx, sess, order); err != nil {
		logger.Error("Failed to record order", slog.String("order_id", order.ID), slog.String("error", err.Error()))

		if order.PaymentIntentID != "" {
			if _, cancelErr := s.payments.CancelPaymentIntent(context.WithoutCancel(ctx), order.PaymentIntentID); cancelErr != nil {
				logger.Error("Failed to cancel payment intent", slog.String("payment_intent_id", order.PaymentIntentID), slog.String("error", cancelErr.Error()))
			}
		}

		return nil, errors.StorageError("Failed to record order").WithError(err)
	}

	sess.Cart.RemoveOrdered(cart.Items)

	s.sendConfirmation(ctx, logger, user, order)

	logger.Info("Order placed", slog.String("order_id", order.ID), slog.Float64("total", order.Total), slog.String("payment_method", string(order.PaymentMethod)))

	return order, nil
}

func (s *CheckoutService) createPaymentIntent(ctx context.Context, order *models.Order) error {
	if s.payments == nil {
		return errors.ThirdPartyError("Card payments are not available")
	}

	metadata := map[string]string{"order_id": order.ID, "user_id": order.UserID}
	if order.Card != nil {
		metadata["card_id"] = order.Card.ID
		metadata["card_last4"] = order.Card.Last4
	}

	intent, err := s.payments.CreatePaymentIntent(ctx,
		int64(math.Round(order.Total*100)),
		s.opts.Currency,
		"Pedido "+order.ID,
		metadata,
	)
	if err != nil {
		return errors.ThirdPartyError("Failed to create payment").WithError(err)
	}

	order.PaymentIntentID = intent.ID
	order.Status = models.OrderStatusProcessing

	return nil
}

func (s *CheckoutService) appendOrder(ctx context.Context, sess *Session, order *models.Order) error {
	sess.ordersMu.Lock()
	defer sess.ordersMu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.opts.WriteTimeout)
	defer cancel()

	key := storage.Key(storage.OrdersKeyPrefix, sess.DeviceID)

	var orders []models.Order
	_, err := storage.LoadSnapshot(ctx, s.store, key, &orders)
	metrics.ObservePersistence(storage.OrdersKeyPrefix, storage.OpLoad, err)
	if err != nil {
		return err
	}

	orders = append([]models.Order{*order}, orders...)

	err = storage.SaveSnapshot(ctx, s.store, key, orders)
	metrics.ObservePersistence(storage.OrdersKeyPrefix, storage.OpSave, err)

	return err
}

// ListOrders returns the device's order history, newest first.
func (s *CheckoutService) ListOrders(ctx context.Context, sess *Session) ([]models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.WriteTimeout)
	defer cancel()

	orders := []models.Order{}

	_, err := storage.LoadSnapshot(ctx, s.store, storage.Key(storage.OrdersKeyPrefix, sess.DeviceID), &orders)
	metrics.ObservePersistence(storage.OrdersKeyPrefix, storage.OpLoad, err)
	if err != nil {
		return nil, errors.StorageError("Failed to load orders").WithError(err)
	}

	return orders, nil
}

func (s *CheckoutService) sendConfirmation(ctx context.Context, logger *slog.Logger, user *models.UserProfile, order *models.Order) {
	if s.mailer == nil || user.Email == "" {
		return
	}

	if err := s.mailer.SendOrderConfirmation(ctx, user, order); err != nil {
		logger.Warn("Failed to send order confirmation", slog.String("order_id", order.ID), slog.String("error", err.Error()))
	}
}

func findOption(options []models.ShippingOption, id string) (models.ShippingOption, bool) {
	for _, o := range options {
		if o.ID == id {
			return o, true
		}
	}
	return models.ShippingOption{}, false
}

// AddBusinessDays skips Saturdays and Sundays. Holidays are not considered.
func AddBusinessDays(from time.Time, days int) time.Time {
	t := from
	for days > 0 {
		t = t.AddDate(0, 0, 1)
		if t.Weekday() != time.Saturday && t.Weekday() != time.Sunday {
			days--
		}
	}
	return t
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
