package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aaravmahajanofficial/textile-storefront/internal/catalog"
	"github.com/aaravmahajanofficial/textile-storefront/internal/models"
	service "github.com/aaravmahajanofficial/textile-storefront/internal/services"
	"github.com/aaravmahajanofficial/textile-storefront/internal/storage"
	"github.com/aaravmahajanofficial/textile-storefront/internal/testutils"
	"github.com/aaravmahajanofficial/textile-storefront/internal/utils/response"
	"github.com/aaravmahajanofficial/textile-storefront/pkg/correios"
	"github.com/stretchr/testify/require"
)

const testDevice = "device-test-1"

var testJwtKey = []byte("handler-test-key")

type envelope struct {
	Success bool                    `json:"success"`
	Data    json.RawMessage         `json:"data"`
	Error   *response.ErrorResponse `json:"error"`
}

// stubQuotes answers every quote request with the same carrier quotes.
type stubQuotes struct {
	quotes []correios.Quote
}

func (s stubQuotes) Quotes(context.Context, correios.Input) []correios.Quote {
	return s.quotes
}

type testEnv struct {
	store    storage.Store
	sessions *service.SessionManager
	catalog  *catalog.Catalog
	accounts *service.AccountService
	checkout *service.CheckoutService
}

func ptr[T any](v T) *T {
	return &v
}

func testProducts() []models.Product {
	return []models.Product{
		{ID: "trav-plumas", Name: "Travesseiro Plumas", Category: models.CategoryBedding, Type: models.ProductTypePillow, Price: 10, InStock: true, Featured: true, Brand: "GM"},
		{ID: "tec-linho-cru", Name: "Linho Cru", Category: models.CategoryFabrics, Type: models.ProductTypeFabric, Price: 20, SalePrice: ptr(15.0), OnSale: true, InStock: true},
		{ID: "colcha-xadrez", Name: "Colcha Xadrez", Category: models.CategoryBedding, Type: models.ProductTypeQuilt, Price: 120, InStock: false},
	}
}

// failingStore reads normally but rejects every write while failWrites is set.
type failingStore struct {
	storage.Store
	failWrites atomic.Bool
}

func (f *failingStore) Set(ctx context.Context, key string, value []byte) error {
	if f.failWrites.Load() {
		return errors.New("disk full")
	}
	return f.Store.Set(ctx, key, value)
}

func (f *failingStore) Delete(ctx context.Context, key string) error {
	if f.failWrites.Load() {
		return errors.New("disk full")
	}
	return f.Store.Delete(ctx, key)
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	return newTestEnvWithStore(t, storage.NewMemoryStore())
}

func newTestEnvWithStore(t *testing.T, store storage.Store) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cat, err := catalog.New(testProducts())
	require.NoError(t, err)

	sessions := service.NewSessionManager(store, service.DemoAuthenticator{}, service.SessionOptions{
		WriteTimeout: time.Second,
		Logger:       logger,
	})
	t.Cleanup(func() { _ = sessions.Close(context.Background()) })

	quotes := stubQuotes{quotes: []correios.Quote{
		{Service: correios.SEDEX, Price: 32.5, DeadlineDays: 2},
		{Service: correios.PAC, Error: "CEP de destino invalido"},
	}}

	return &testEnv{
		store:    store,
		sessions: sessions,
		catalog:  cat,
		accounts: service.NewAccountService(service.NewTokenIssuer(testJwtKey, time.Hour), nil),
		checkout: service.NewCheckoutService(quotes, nil, nil, store, service.CheckoutOptions{
			OriginZip:    "01001-000",
			WriteTimeout: time.Second,
			Logger:       logger,
		}),
	}
}

func (e *testEnv) session(t *testing.T) *service.Session {
	t.Helper()

	sess, err := e.sessions.Get(context.Background(), testDevice)
	require.NoError(t, err)

	return sess
}

func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()

	b, err := json.Marshal(v)
	require.NoError(t, err)

	return bytes.NewReader(b)
}

func deviceRequest(method, target string, body io.Reader, pathParams map[string]string) *http.Request {
	return testutils.CreateTestRequestWithContext(method, target, body, testDevice, nil, pathParams)
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, data any) envelope {
	t.Helper()

	var env envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))

	if data != nil && len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}

	return env
}
