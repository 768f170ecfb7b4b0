package storage_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/aaravmahajanofficial/textile-storefront/internal/storage"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T, ttl time.Duration) (storage.Store, redismock.ClientMock) {
	t.Helper()

	client, mock := redismock.NewClientMock()
	return storage.NewRedisStore(client, ttl), mock
}

func TestRedisStoreGet(t *testing.T) {
	ctx := t.Context()
	key := storage.Key(storage.CartKeyPrefix, "device-1")
	payload := []byte(`{"schema_version":1,"data":[]}`)

	t.Run("Success - Key Found", func(t *testing.T) {
		// Arrange
		store, mock := setupRedis(t, 0)
		mock.ExpectGet(key).SetVal(string(payload))

		// Act
		data, found, err := store.Get(ctx, key)

		// Assert
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, payload, data)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Success - Key Not Found", func(t *testing.T) {
		// Arrange
		store, mock := setupRedis(t, 0)
		mock.ExpectGet(key).SetErr(redis.Nil)

		// Act
		data, found, err := store.Get(ctx, key)

		// Assert
		require.NoError(t, err, "a missing slot is not an error")
		assert.False(t, found)
		assert.Nil(t, data)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Failure - Redis Error", func(t *testing.T) {
		// Arrange
		store, mock := setupRedis(t, 0)
		expectedErr := errors.New("redis connection error")
		mock.ExpectGet(key).SetErr(expectedErr)

		// Act
		_, found, err := store.Get(ctx, key)

		// Assert
		require.Error(t, err)
		assert.False(t, found)
		assert.ErrorIs(t, err, expectedErr)
		assert.Contains(t, err.Error(), fmt.Sprintf("failed to get key %s from redis", key))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRedisStoreSet(t *testing.T) {
	ctx := t.Context()
	key := storage.Key(storage.FavoritesKeyPrefix, "device-1")
	payload := []byte(`{"schema_version":1,"data":[]}`)

	t.Run("Success - Without Expiry", func(t *testing.T) {
		// Arrange
		store, mock := setupRedis(t, 0)
		mock.ExpectSet(key, payload, 0).SetVal("OK")

		// Act
		err := store.Set(ctx, key, payload)

		// Assert
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Success - With Configured TTL", func(t *testing.T) {
		// Arrange
		ttl := 30 * 24 * time.Hour
		store, mock := setupRedis(t, ttl)
		mock.ExpectSet(key, payload, ttl).SetVal("OK")

		// Act
		err := store.Set(ctx, key, payload)

		// Assert
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Failure - Redis Error", func(t *testing.T) {
		// Arrange
		store, mock := setupRedis(t, 0)
		expectedErr := errors.New("redis SET failed")
		mock.ExpectSet(key, payload, 0).SetErr(expectedErr)

		// Act
		err := store.Set(ctx, key, payload)

		// Assert
		require.Error(t, err)
		assert.ErrorIs(t, err, expectedErr)
		assert.Contains(t, err.Error(), fmt.Sprintf("failed to set key %s in redis", key))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRedisStoreDelete(t *testing.T) {
	ctx := t.Context()
	key := storage.Key(storage.UserKeyPrefix, "device-1")

	t.Run("Success", func(t *testing.T) {
		// Arrange
		store, mock := setupRedis(t, 0)
		mock.ExpectDel(key).SetVal(1)

		// Act
		err := store.Delete(ctx, key)

		// Assert
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Failure - Redis Error", func(t *testing.T) {
		// Arrange
		store, mock := setupRedis(t, 0)
		expectedErr := errors.New("redis DEL failed")
		mock.ExpectDel(key).SetErr(expectedErr)

		// Act
		err := store.Delete(ctx, key)

		// Assert
		require.Error(t, err)
		assert.ErrorIs(t, err, expectedErr)
		assert.Contains(t, err.Error(), fmt.Sprintf("failed to delete key %s from redis", key))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestKey(t *testing.T) {
	assert.Equal(t, "cart:abc", storage.Key(storage.CartKeyPrefix, "abc"))
	assert.Equal(t, "favorites:abc", storage.Key(storage.FavoritesKeyPrefix, "abc"))
	assert.Equal(t, "user:abc", storage.Key(storage.UserKeyPrefix, "abc"))
	assert.Equal(t, "prefix:", storage.Key("prefix", ""))
	assert.Equal(t, ":", storage.Key("", ""))
}
