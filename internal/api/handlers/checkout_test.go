package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aaravmahajanofficial/textile-storefront/internal/api/handlers"
	"github.com/aaravmahajanofficial/textile-storefront/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAddress() models.Address {
	return models.Address{
		Street:       "Rua Augusta",
		Number:       "100",
		Neighborhood: "Consolação",
		City:         "São Paulo",
		State:        "SP",
		ZipCode:      "01304-000",
	}
}

func TestShippingOptions(t *testing.T) {
	t.Run("Success - Pickup plus error-free quotes", func(t *testing.T) {
		// Arrange
		env := newTestEnv(t)
		handler := handlers.NewCheckoutHandler(env.sessions, env.checkout)
		rr := httptest.NewRecorder()

		// Act
		handler.ShippingOptions()(rr, deviceRequest(http.MethodGet, "/api/v1/shipping/options?zip=01304-000", nil, nil))

		// Assert
		require.Equal(t, http.StatusOK, rr.Code)
		var options []models.ShippingOption
		decode(t, rr, &options)
		require.Len(t, options, 2)
		assert.Equal(t, models.PickupOptionID, options[0].ID)
		assert.Equal(t, "sedex", options[1].ID)
		assert.InDelta(t, 32.5, options[1].Price, 0.001)
	})

	t.Run("Success - Without zip only pickup", func(t *testing.T) {
		// Arrange
		env := newTestEnv(t)
		handler := handlers.NewCheckoutHandler(env.sessions, env.checkout)
		rr := httptest.NewRecorder()

		// Act
		handler.ShippingOptions()(rr, deviceRequest(http.MethodGet, "/api/v1/shipping/options", nil, nil))

		// Assert
		var options []models.ShippingOption
		decode(t, rr, &options)
		require.Len(t, options, 1)
		assert.Equal(t, models.PickupOptionID, options[0].ID)
	})
}

func TestPlaceOrder(t *testing.T) {
	place := func(t *testing.T, env *testEnv, req models.PlaceOrderRequest) *httptest.ResponseRecorder {
		handler := handlers.NewCheckoutHandler(env.sessions, env.checkout)
		rr := httptest.NewRecorder()
		handler.PlaceOrder()(rr, deviceRequest(http.MethodPost, "/api/v1/orders", jsonBody(t, req), nil))
		return rr
	}

	signIn := func(t *testing.T, env *testEnv) {
		_, err := env.session(t).Account.Login(context.Background(), "cliente@example.com", "x")
		require.NoError(t, err)
	}

	t.Run("Success - Pix order with SEDEX", func(t *testing.T) {
		// Arrange
		env := newTestEnv(t)
		signIn(t, env)
		env.session(t).Cart.AddItem(testProducts()[0], 3, nil)

		// Act
		rr := place(t, env, models.PlaceOrderRequest{PaymentMethod: models.PaymentMethodPix, ShippingOptionID: "sedex", Address: testAddress()})

		// Assert
		require.Equal(t, http.StatusCreated, rr.Code)
		var order models.Order
		decode(t, rr, &order)
		assert.NotEmpty(t, order.ID)
		assert.InDelta(t, 30.0, order.Subtotal, 0.001)
		assert.InDelta(t, 62.5, order.Total, 0.001)
		assert.Equal(t, models.OrderStatusPending, order.Status)
		assert.Empty(t, env.session(t).Cart.Lines())

		handler := handlers.NewCheckoutHandler(env.sessions, env.checkout)
		listed := httptest.NewRecorder()
		handler.ListOrders()(listed, deviceRequest(http.MethodGet, "/api/v1/orders", nil, nil))

		var orders []models.Order
		decode(t, listed, &orders)
		require.Len(t, orders, 1)
		assert.Equal(t, order.ID, orders[0].ID)
	})

	t.Run("Fail - Anonymous device", func(t *testing.T) {
		// Arrange
		env := newTestEnv(t)
		env.session(t).Cart.AddItem(testProducts()[0], 1, nil)

		// Act
		rr := place(t, env, models.PlaceOrderRequest{PaymentMethod: models.PaymentMethodPix, ShippingOptionID: "pickup", Address: testAddress()})

		// Assert
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("Fail - Empty cart", func(t *testing.T) {
		// Arrange
		env := newTestEnv(t)
		signIn(t, env)

		// Act
		rr := place(t, env, models.PlaceOrderRequest{PaymentMethod: models.PaymentMethodBoleto, ShippingOptionID: "pickup", Address: testAddress()})

		// Assert
		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
		resp := decode(t, rr, nil)
		assert.Equal(t, "EMPTY_CART", resp.Error.Code)
	})

	t.Run("Fail - Quote that came back with an error", func(t *testing.T) {
		// Arrange
		env := newTestEnv(t)
		signIn(t, env)
		env.session(t).Cart.AddItem(testProducts()[0], 1, nil)

		// Act
		rr := place(t, env, models.PlaceOrderRequest{PaymentMethod: models.PaymentMethodPix, ShippingOptionID: "pac", Address: testAddress()})

		// Assert
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Len(t, env.session(t).Cart.Lines(), 1)
	})

	t.Run("Fail - Card payments without a gateway", func(t *testing.T) {
		// Arrange
		env := newTestEnv(t)
		signIn(t, env)
		env.session(t).Cart.AddItem(testProducts()[0], 1, nil)

		// Act
		rr := place(t, env, models.PlaceOrderRequest{PaymentMethod: models.PaymentMethodCreditCard, ShippingOptionID: "pickup", Address: testAddress()})

		// Assert
		assert.Equal(t, http.StatusBadGateway, rr.Code)
	})

	t.Run("Fail - Unknown payment method", func(t *testing.T) {
		// Arrange
		env := newTestEnv(t)

		// Act
		rr := place(t, env, models.PlaceOrderRequest{PaymentMethod: "cheque", ShippingOptionID: "pickup", Address: testAddress()})

		// Assert
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		resp := decode(t, rr, nil)
		assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	})
}
