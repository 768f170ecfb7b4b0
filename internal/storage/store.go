package storage

import (
	"context"
	"errors"
)

// Store is a key-value slot store. Each slot holds one JSON snapshot.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

var ErrClosed = errors.New("storage: store is closed")

func Key(prefix string, id string) string {
	return prefix + ":" + id
}

const (
	CartKeyPrefix           = "cart"
	FavoritesKeyPrefix      = "favorites"
	UserKeyPrefix           = "user"
	OrdersKeyPrefix         = "orders"
	CredentialsKeyPrefix    = "credentials"
	PaymentMethodsKeyPrefix = "payment_methods"
)
