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

type FavoritesHandler struct {
	sessions  SessionProvider
	catalog   ProductCatalog
	validator *validator.Validate
}

func NewFavoritesHandler(sessions SessionProvider, catalog ProductCatalog) *FavoritesHandler {
	return &FavoritesHandler{sessions: sessions, catalog: catalog, validator: validator.New()}
}

func (h *FavoritesHandler) ListFavorites() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		sess, ok := sessionFor(w, r, h.sessions)
		if !ok {
			return
		}

		response.Success(w, http.StatusOK, sess.Favorites.List())
	}
}

func (h *FavoritesHandler) AddFavorite() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		var req models.AddFavoriteRequest

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

		sess.Favorites.AddFavorite(product)

		middleware.LoggerFromContext(r.Context()).Info("Favorite added", slog.String("productId", product.ID))
		response.Success(w, http.StatusOK, sess.Favorites.List())
	}
}

func (h *FavoritesHandler) RemoveFavorite() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		sess, ok := sessionFor(w, r, h.sessions)
		if !ok {
			return
		}

		productID := r.PathValue("productId")

		sess.Favorites.RemoveFavorite(productID)

		middleware.LoggerFromContext(r.Context()).Info("Favorite removed", slog.String("productId", productID))
		response.Success(w, http.StatusOK, sess.Favorites.List())
	}
}

func (h *FavoritesHandler) FavoriteStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		sess, ok := sessionFor(w, r, h.sessions)
		if !ok {
			return
		}

		productID := r.PathValue("productId")

		response.Success(w, http.StatusOK, models.FavoriteStatus{
			ProductID:  productID,
			IsFavorite: sess.Favorites.IsFavorite(productID),
		})
	}
}
