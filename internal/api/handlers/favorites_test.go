package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aaravmahajanofficial/textile-storefront/internal/api/handlers"
	"github.com/aaravmahajanofficial/textile-storefront/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFavoritesHandler(t *testing.T) {
	add := func(t *testing.T, handler *handlers.FavoritesHandler, id string) *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		handler.AddFavorite()(rr, deviceRequest(http.MethodPost, "/api/v1/favorites", jsonBody(t, models.AddFavoriteRequest{ProductID: id}), nil))
		return rr
	}

	t.Run("Success - Add twice keeps one entry", func(t *testing.T) {
		// Arrange
		env := newTestEnv(t)
		handler := handlers.NewFavoritesHandler(env.sessions, env.catalog)

		// Act
		add(t, handler, "trav-plumas")
		rr := add(t, handler, "trav-plumas")

		// Assert
		require.Equal(t, http.StatusOK, rr.Code)
		var favorites []models.Product
		decode(t, rr, &favorites)
		require.Len(t, favorites, 1)
		assert.Equal(t, "trav-plumas", favorites[0].ID)
	})

	t.Run("Fail - Unknown product", func(t *testing.T) {
		// Arrange
		env := newTestEnv(t)
		handler := handlers.NewFavoritesHandler(env.sessions, env.catalog)

		// Act
		rr := add(t, handler, "ghost")

		// Assert
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("Success - Status and removal", func(t *testing.T) {
		// Arrange
		env := newTestEnv(t)
		handler := handlers.NewFavoritesHandler(env.sessions, env.catalog)
		add(t, handler, "tec-linho-cru")
		params := map[string]string{"productId": "tec-linho-cru"}

		// Act
		statusBefore := httptest.NewRecorder()
		handler.FavoriteStatus()(statusBefore, deviceRequest(http.MethodGet, "/api/v1/favorites/tec-linho-cru", nil, params))

		removed := httptest.NewRecorder()
		handler.RemoveFavorite()(removed, deviceRequest(http.MethodDelete, "/api/v1/favorites/tec-linho-cru", nil, params))

		statusAfter := httptest.NewRecorder()
		handler.FavoriteStatus()(statusAfter, deviceRequest(http.MethodGet, "/api/v1/favorites/tec-linho-cru", nil, params))

		// Assert
		var before, after models.FavoriteStatus
		decode(t, statusBefore, &before)
		decode(t, statusAfter, &after)
		assert.True(t, before.IsFavorite)
		assert.False(t, after.IsFavorite)

		var remaining []models.Product
		decode(t, removed, &remaining)
		assert.Empty(t, remaining)
	})

	t.Run("Success - List in insertion order", func(t *testing.T) {
		// Arrange
		env := newTestEnv(t)
		handler := handlers.NewFavoritesHandler(env.sessions, env.catalog)
		add(t, handler, "colcha-xadrez")
		add(t, handler, "trav-plumas")
		rr := httptest.NewRecorder()

		// Act
		handler.ListFavorites()(rr, deviceRequest(http.MethodGet, "/api/v1/favorites", nil, nil))

		// Assert
		var favorites []models.Product
		decode(t, rr, &favorites)
		require.Len(t, favorites, 2)
		assert.Equal(t, "colcha-xadrez", favorites[0].ID)
		assert.Equal(t, "trav-plumas", favorites[1].ID)
	})
}
