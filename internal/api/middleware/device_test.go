package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aaravmahajanofficial/textile-storefront/internal/api/middleware"
	"github.com/stretchr/testify/assert"
)

func TestRequireDevice(t *testing.T) {
	var seen string

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = middleware.DeviceIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name           string
		header         string
		expectedStatus int
		expectedDevice string
	}{
		{name: "Success - Device id forwarded", header: "3f1c-ios.A_1", expectedStatus: http.StatusNoContent, expectedDevice: "3f1c-ios.A_1"},
		{name: "Fail - Missing header", header: "", expectedStatus: http.StatusBadRequest},
		{name: "Fail - Malformed header", header: "has spaces/and slashes", expectedStatus: http.StatusBadRequest},
		{name: "Success - Longest allowed id", header: strings.Repeat("a", 128), expectedStatus: http.StatusNoContent, expectedDevice: strings.Repeat("a", 128)},
		{name: "Success - Colon separated id", header: "android:8f2e:01", expectedStatus: http.StatusNoContent, expectedDevice: "android:8f2e:01"},
		{name: "Fail - Too long", header: strings.Repeat("a", 129), expectedStatus: http.StatusBadRequest},
		{name: "Fail - Non-ascii letter", header: "dispositivo-ç", expectedStatus: http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			seen = ""
			req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
			if tc.header != "" {
				req.Header.Set(middleware.DeviceIDHeader, tc.header)
			}
			rr := httptest.NewRecorder()

			// Act
			middleware.RequireDevice(next).ServeHTTP(rr, req)

			// Assert
			assert.Equal(t, tc.expectedStatus, rr.Code)
			assert.Equal(t, tc.expectedDevice, seen)
			if tc.expectedStatus == http.StatusBadRequest {
				assert.Contains(t, rr.Body.String(), "MISSING_DEVICE_ID")
			}
		})
	}
}

func TestLogging(t *testing.T) {
	t.Run("Echoes the correlation id and captures the status", func(t *testing.T) {
		// Arrange
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.NotNil(t, middleware.LoggerFromContext(r.Context()))
			w.WriteHeader(http.StatusTeapot)
		})
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("X-Request-ID", "req-123")
		rr := httptest.NewRecorder()

		// Act
		middleware.Logging(next).ServeHTTP(rr, req)

		// Assert
		assert.Equal(t, http.StatusTeapot, rr.Code)
		assert.Equal(t, "req-123", rr.Header().Get("X-Request-ID"))
	})

	t.Run("Generates a correlation id when absent", func(t *testing.T) {
		// Arrange
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rr := httptest.NewRecorder()

		// Act
		middleware.Logging(next).ServeHTTP(rr, req)

		// Assert
		assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
	})
}
