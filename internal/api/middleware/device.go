package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/aaravmahajanofficial/textile-storefront/internal/errors"
	"github.com/aaravmahajanofficial/textile-storefront/internal/utils/response"
	"github.com/go-playground/validator/v10"
)

const DeviceIDHeader = "X-Device-ID"

type deviceContextKey struct{}

var DeviceContextKey = deviceContextKey{}

const deviceIDRules = "required,max=128,deviceid"

var deviceValidator = newDeviceValidator()

func newDeviceValidator() *validator.Validate {
	v := validator.New()

	// letters, digits and . _ : -
	_ = v.RegisterValidation("deviceid", func(fl validator.FieldLevel) bool {
		for _, r := range fl.Field().String() {
			switch {
			case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			case r == '.', r == '_', r == ':', r == '-':
			default:
				return false
			}
		}
		return true
	})

	return v
}

// RequireDevice rejects requests without a well-formed X-Device-ID header and
// scopes the request logger to the device.
func RequireDevice(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		logger := LoggerFromContext(r.Context())

		deviceID := r.Header.Get(DeviceIDHeader)

		if deviceID == "" {
			logger.Warn("Missing device id header")
			response.Error(w, errors.MissingDeviceIDError("X-Device-ID header is required"))
			return
		}

		if err := deviceValidator.Var(deviceID, deviceIDRules); err != nil {
			logger.Warn("Malformed device id header")
			response.Error(w, errors.MissingDeviceIDError("X-Device-ID header is malformed"))
			return
		}

		deviceLogger := logger.With(slog.String("device_id", deviceID))

		ctx := context.WithValue(r.Context(), DeviceContextKey, deviceID)
		ctx = context.WithValue(ctx, LoggerKey, deviceLogger)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func DeviceIDFromContext(ctx context.Context) (string, bool) {
	deviceID, ok := ctx.Value(DeviceContextKey).(string)
	return deviceID, ok && deviceID != ""
}
