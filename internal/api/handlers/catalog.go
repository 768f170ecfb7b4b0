package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/aaravmahajanofficial/textile-storefront/internal/api/middleware"
	"github.com/aaravmahajanofficial/textile-storefront/internal/errors"
	"github.com/aaravmahajanofficial/textile-storefront/internal/models"
	"github.com/aaravmahajanofficial/textile-storefront/internal/utils/response"
)

type CatalogHandler struct {
	catalog ProductCatalog
}

func NewCatalogHandler(catalog ProductCatalog) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// ListProducts supports ?q=, ?category=, ?inStock= and ?onSale= filters.
func (h *CatalogHandler) ListProducts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		query := r.URL.Query()

		filter := models.ProductFilter{
			Query:    query.Get("q"),
			Category: models.ProductCategory(query.Get("category")),
		}

		var err error

		if v := query.Get("inStock"); v != "" {
			if filter.InStock, err = strconv.ParseBool(v); err != nil {
				response.Error(w, errors.AddValidationError("inStock", "must be a boolean"))
				return
			}
		}

		if v := query.Get("onSale"); v != "" {
			if filter.OnSale, err = strconv.ParseBool(v); err != nil {
				response.Error(w, errors.AddValidationError("onSale", "must be a boolean"))
				return
			}
		}

		products := h.catalog.Search(filter)

		logger.Debug("Products listed", slog.Int("count", len(products)), slog.String("query", filter.Query))
		response.Success(w, http.StatusOK, products)
	}
}

func (h *CatalogHandler) GetProduct() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		product, ok := lookupProduct(w, r, h.catalog, r.PathValue("id"))
		if !ok {
			return
		}

		response.Success(w, http.StatusOK, product)
	}
}

func (h *CatalogHandler) Featured() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.Success(w, http.StatusOK, h.catalog.Featured())
	}
}

func (h *CatalogHandler) Categories() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.Success(w, http.StatusOK, h.catalog.Categories())
	}
}
