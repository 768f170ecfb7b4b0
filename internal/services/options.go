package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aaravmahajanofficial/textile-storefront/internal/metrics"
	"github.com/aaravmahajanofficial/textile-storefront/internal/storage"
)

const defaultWriteTimeout = 5 * time.Second

type StoreOptions struct {
	WriteTimeout time.Duration
	Logger       *slog.Logger
}

func (o StoreOptions) withDefaults() StoreOptions {
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = defaultWriteTimeout
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// loadSlot decodes a slot into dest. Read and decode failures are logged and
// counted, and the caller starts from an empty collection.
func loadSlot(ctx context.Context, store storage.Store, slot, key string, dest any, logger *slog.Logger) bool {
	found, err := storage.LoadSnapshot(ctx, store, key, dest)
	metrics.ObservePersistence(slot, storage.OpLoad, err)

	if err != nil {
		logger.Error("Failed to load snapshot, starting empty", slog.String("key", key), slog.String("error", err.Error()))
		return false
	}

	return found
}

func copyMeters(meters *float64) *float64 {
	if meters == nil {
		return nil
	}
	m := *meters
	return &m
}
