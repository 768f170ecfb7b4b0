package handlers

import (
	"log/slog"
	"net/http"

	"github.com/aaravmahajanofficial/textile-storefront/internal/api/middleware"
	"github.com/aaravmahajanofficial/textile-storefront/internal/models"
	"github.com/aaravmahajanofficial/textile-storefront/internal/utils"
	"github.com/aaravmahajanofficial/textile-storefront/internal/utils/response"
	"github.com/go-playground/validator/v10"
)

type CartHandler struct {
	sessions  SessionProvider
	catalog   ProductCatalog
	validator *validator.Validate
}

func NewCartHandler(sessions SessionProvider, catalog ProductCatalog) *CartHandler {
	return &CartHandler{sessions: sessions, catalog: catalog, validator: validator.New()}
}

func (h *CartHandler) GetCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		sess, ok := sessionFor(w, r, h.sessions)
		if !ok {
			return
		}

		response.Success(w, http.StatusOK, sess.Cart.Snapshot())
	}
}

func (h *CartHandler) AddItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		var req models.AddItemRequest

		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		sess, ok := sessionFor(w, r, h.sessions)
		if !ok {
			return
		}

		product, ok := lookupProduct(w, r, h.catalog, req.ProductID)
		if !ok {
			return
		}

		sess.Cart.AddItem(product, req.Quantity, req.Meters)

		logger.Info("Item added to cart", slog.String("productId", product.ID), slog.Int("quantity", req.Quantity))
		response.Success(w, http.StatusOK, sess.Cart.Snapshot())
	}
}

// UpdateQuantity sets the line's quantity; zero or less removes the line.
func (h *CartHandler) UpdateQuantity() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		var req models.UpdateQuantityRequest

		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		sess, ok := sessionFor(w, r, h.sessions)
		if !ok {
			return
		}

		productID := r.PathValue("productId")

		sess.Cart.SetQuantity(productID, req.Quantity, req.Meters)

		logger.Info("Cart quantity updated", slog.String("productId", productID), slog.Int("quantity", req.Quantity))
		response.Success(w, http.StatusOK, sess.Cart.Snapshot())
	}
}

func (h *CartHandler) RemoveItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		sess, ok := sessionFor(w, r, h.sessions)
		if !ok {
			return
		}

		productID := r.PathValue("productId")

		sess.Cart.RemoveItem(productID)

		middleware.LoggerFromContext(r.Context()).Info("Item removed from cart", slog.String("productId", productID))
		response.Success(w, http.StatusOK, sess.Cart.Snapshot())
	}
}

func (h *CartHandler) ClearCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		sess, ok := sessionFor(w, r, h.sessions)
		if !ok {
			return
		}

		sess.Cart.Clear()

		response.Success(w, http.StatusOK, sess.Cart.Snapshot())
	}
}
