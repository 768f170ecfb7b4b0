package handlers

import (
	"log/slog"
	"net/http"

	"github.com/aaravmahajanofficial/textile-storefront/internal/api/middleware"
	"github.com/aaravmahajanofficial/textile-storefront/internal/models"
	service "github.com/aaravmahajanofficial/textile-storefront/internal/services"
	"github.com/aaravmahajanofficial/textile-storefront/internal/utils"
	"github.com/aaravmahajanofficial/textile-storefront/internal/utils/response"
	"github.com/go-playground/validator/v10"
)

type CheckoutHandler struct {
	sessions  SessionProvider
	checkout  *service.CheckoutService
	validator *validator.Validate
}

func NewCheckoutHandler(sessions SessionProvider, checkout *service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{sessions: sessions, checkout: checkout, validator: validator.New()}
}

// ShippingOptions quotes the current cart to ?zip=. Without a zip only store
// pickup is offered.
func (h *CheckoutHandler) ShippingOptions() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		sess, ok := sessionFor(w, r, h.sessions)
		if !ok {
			return
		}

		options := h.checkout.ShippingOptions(r.Context(), sess, r.URL.Query().Get("zip"))

		response.Success(w, http.StatusOK, options)
	}
}

func (h *CheckoutHandler) PlaceOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		var req models.PlaceOrderRequest

		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		sess, ok := sessionFor(w, r, h.sessions)
		if !ok {
			return
		}

		order, err := h.checkout.PlaceOrder(r.Context(), sess, &req)

		if err != nil {
			logger.Warn("Order rejected", slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusCreated, order)
	}
}

func (h *CheckoutHandler) ListOrders() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		sess, ok := sessionFor(w, r, h.sessions)
		if !ok {
			return
		}

		orders, err := h.checkout.ListOrders(r.Context(), sess)

		if err != nil {
			middleware.LoggerFromContext(r.Context()).Error("Failed to list orders", slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, orders)
	}
}
