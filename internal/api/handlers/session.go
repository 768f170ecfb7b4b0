package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/aaravmahajanofficial/textile-storefront/internal/api/middleware"
	"github.com/aaravmahajanofficial/textile-storefront/internal/errors"
	"github.com/aaravmahajanofficial/textile-storefront/internal/models"
	service "github.com/aaravmahajanofficial/textile-storefront/internal/services"
	"github.com/aaravmahajanofficial/textile-storefront/internal/utils/response"
)

// SessionProvider hands out the per-device session. Implemented by
// service.SessionManager.
type SessionProvider interface {
	Get(ctx context.Context, deviceID string) (*service.Session, error)
}

// ProductCatalog is the read-only product source. Implemented by catalog.Catalog.
type ProductCatalog interface {
	Get(id string) (models.Product, bool)
	Search(filter models.ProductFilter) []models.Product
	Featured() []models.Product
	Categories() []models.ProductCategory
}

// sessionFor resolves the session of the requesting device, writing the error
// response itself on failure.
func sessionFor(w http.ResponseWriter, r *http.Request, sessions SessionProvider) (*service.Session, bool) {
	logger := middleware.LoggerFromContext(r.Context())

	deviceID, ok := middleware.DeviceIDFromContext(r.Context())
	if !ok {
		logger.Warn("Request reached a session handler without a device id")
		response.Error(w, errors.MissingDeviceIDError("X-Device-ID header is required"))
		return nil, false
	}

	sess, err := sessions.Get(r.Context(), deviceID)
	if err != nil {
		logger.Error("Failed to open session", slog.String("error", err.Error()))
		response.Error(w, errors.StorageError("Session is not available").WithError(err))
		return nil, false
	}

	return sess, true
}

func lookupProduct(w http.ResponseWriter, r *http.Request, products ProductCatalog, id string) (models.Product, bool) {
	product, ok := products.Get(id)
	if !ok {
		middleware.LoggerFromContext(r.Context()).Warn("Unknown product", slog.String("productId", id))
		response.Error(w, errors.NotFoundError("Product not found").WithDetail(id))
		return models.Product{}, false
	}

	return product, true
}
