package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObservePersistence(t *testing.T) {
	// Arrange
	before := testutil.ToFloat64(persistenceOperationsTotal.WithLabelValues("cart", "save", ResultFailure))

	// Act
	ObservePersistence("cart", "save", errors.New("boom"))
	ObservePersistence("cart", "save", nil)

	// Assert
	assert.Equal(t, before+1, testutil.ToFloat64(persistenceOperationsTotal.WithLabelValues("cart", "save", ResultFailure)))
}

func TestSetActiveSessions(t *testing.T) {
	SetActiveSessions(7)
	assert.Equal(t, 7.0, testutil.ToFloat64(activeSessions))
}

func TestMiddleware(t *testing.T) {
	t.Run("Labels by matched pattern", func(t *testing.T) {
		// Arrange
		mux := http.NewServeMux()
		mux.HandleFunc("GET /api/v1/products/{id}", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
		counter := httpRequestsTotal.WithLabelValues("404", http.MethodGet, "GET /api/v1/products/{id}")
		before := testutil.ToFloat64(counter)

		// Act
		Middleware(mux).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/products/abc", nil))

		// Assert
		assert.Equal(t, before+1, testutil.ToFloat64(counter))
		assert.Zero(t, testutil.ToFloat64(httpRequestsInFlight))
	})

	t.Run("Unmatched routes share one label", func(t *testing.T) {
		// Arrange
		counter := httpRequestsTotal.WithLabelValues("404", http.MethodGet, "unmatched")
		before := testutil.ToFloat64(counter)

		// Act
		Middleware(http.NewServeMux()).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

		// Assert
		assert.Equal(t, before+1, testutil.ToFloat64(counter))
	})
}
