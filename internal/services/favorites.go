package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/aaravmahajanofficial/textile-storefront/internal/models"
	"github.com/aaravmahajanofficial/textile-storefront/internal/storage"
)

// FavoritesStore keeps full product snapshots keyed by product id.
type FavoritesStore struct {
	mu       sync.RWMutex
	products []models.Product
	store    storage.Store
	key      string
	writer   *storage.Writer
	logger   *slog.Logger
}

func NewFavoritesStore(store storage.Store, deviceID string, opts StoreOptions) *FavoritesStore {
	opts = opts.withDefaults()
	key := storage.Key(storage.FavoritesKeyPrefix, deviceID)

	return &FavoritesStore{
		products: []models.Product{},
		store:    store,
		key:      key,
		writer:   storage.NewWriter(store, storage.FavoritesKeyPrefix, key, opts.WriteTimeout, opts.Logger),
		logger:   opts.Logger,
	}
}

func (s *FavoritesStore) Load(ctx context.Context) {
	var persisted []models.Product
	found := loadSlot(ctx, s.store, storage.FavoritesKeyPrefix, s.key, &persisted, s.logger)

	products := []models.Product{}
	if found {
		for _, p := range persisted {
			if p.ID == "" || indexOfProduct(products, p.ID) >= 0 {
				continue
			}
			products = append(products, p)
		}

		if dropped := len(persisted) - len(products); dropped > 0 {
			s.logger.Warn("Discarded invalid favorites from snapshot", slog.Int("dropped", dropped))
		}
	}

	s.mu.Lock()
	s.products = products
	s.mu.Unlock()
}

// AddFavorite stores the product snapshot unless its id is already present.
// The set is persisted on every call, including duplicates.
func (s *FavoritesStore) AddFavorite(product models.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if indexOfProduct(s.products, product.ID) < 0 {
		s.products = append(s.products, product)
	}

	s.writer.Schedule(s.products)
}

func (s *FavoritesStore) RemoveFavorite(productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := indexOfProduct(s.products, productID); i >= 0 {
		s.products = append(s.products[:i], s.products[i+1:]...)
	}

	s.writer.Schedule(s.products)
}

func (s *FavoritesStore) IsFavorite(productID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return indexOfProduct(s.products, productID) >= 0
}

// List returns the favorites in the order they were added.
func (s *FavoritesStore) List() []models.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Product, len(s.products))
	copy(out, s.products)

	return out
}

func (s *FavoritesStore) Flush(ctx context.Context) error {
	return s.writer.Flush(ctx)
}

func indexOfProduct(products []models.Product, productID string) int {
	for i, p := range products {
		if p.ID == productID {
			return i
		}
	}
	return -1
}
