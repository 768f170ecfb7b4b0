package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aaravmahajanofficial/textile-storefront/internal/models"
	service "github.com/aaravmahajanofficial/textile-storefront/internal/services"
	"github.com/aaravmahajanofficial/textile-storefront/internal/storage"
	"github.com/stretchr/testify/require"
)

var errStoreDown = errors.New("store unavailable")

// flakyStore wraps a real store and fails writes while failWrites is set.
type flakyStore struct {
	storage.Store
	failWrites atomic.Bool
}

func newFlakyStore() *flakyStore {
	return &flakyStore{Store: storage.NewMemoryStore()}
}

func (f *flakyStore) Set(ctx context.Context, key string, value []byte) error {
	if f.failWrites.Load() {
		return errStoreDown
	}
	return f.Store.Set(ctx, key, value)
}

func (f *flakyStore) Delete(ctx context.Context, key string) error {
	if f.failWrites.Load() {
		return errStoreDown
	}
	return f.Store.Delete(ctx, key)
}

func ptr[T any](v T) *T {
	return &v
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testOptions() service.StoreOptions {
	return service.StoreOptions{WriteTimeout: time.Second, Logger: discardLogger()}
}

func flush(t *testing.T, f interface{ Flush(context.Context) error }) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(t, f.Flush(ctx))
}

func fabricProduct() models.Product {
	return models.Product{
		ID:        "tec-linho-cru",
		Name:      "Linho Cru",
		Category:  models.CategoryFabrics,
		Type:      models.ProductTypeFabric,
		Price:     20,
		SalePrice: ptr(15.0),
		OnSale:    true,
		InStock:   true,
	}
}

func pillowProduct() models.Product {
	return models.Product{
		ID:       "trav-plumas",
		Name:     "Travesseiro Plumas",
		Category: models.CategoryBedding,
		Type:     models.ProductTypePillow,
		Price:    10,
		InStock:  true,
	}
}
