package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/aaravmahajanofficial/textile-storefront/internal/models"
	"github.com/aaravmahajanofficial/textile-storefront/internal/storage"
)

// CartStore holds one device's cart lines, at most one line per product, in
// insertion order. Every mutation schedules a background snapshot write; the
// in-memory state is authoritative even when that write fails.
type CartStore struct {
	mu     sync.RWMutex
	lines  []models.CartLine
	store  storage.Store
	key    string
	writer *storage.Writer
	logger *slog.Logger
}

func NewCartStore(store storage.Store, deviceID string, opts StoreOptions) *CartStore {
	opts = opts.withDefaults()
	key := storage.Key(storage.CartKeyPrefix, deviceID)

	return &CartStore{
		lines:  []models.CartLine{},
		store:  store,
		key:    key,
		writer: storage.NewWriter(store, storage.CartKeyPrefix, key, opts.WriteTimeout, opts.Logger),
		logger: opts.Logger,
	}
}

// Load replaces the in-memory lines with the persisted snapshot. A missing,
// unreadable or malformed snapshot leaves the cart empty.
func (s *CartStore) Load(ctx context.Context) {
	var persisted []models.CartLine
	found := loadSlot(ctx, s.store, storage.CartKeyPrefix, s.key, &persisted, s.logger)

	lines := []models.CartLine{}
	if found {
		lines = s.sanitize(persisted)
	}

	s.mu.Lock()
	s.lines = lines
	s.mu.Unlock()
}

// sanitize drops lines without a product id and merges duplicate products
// into the first occurrence. Quantities are kept as stored, including zero or
// negative ones, since AddItem accepts any quantity.
func (s *CartStore) sanitize(persisted []models.CartLine) []models.CartLine {
	lines := make([]models.CartLine, 0, len(persisted))
	dropped := 0

	for _, line := range persisted {
		if line.Product.ID == "" {
			dropped++
			continue
		}

		if i := indexOfLine(lines, line.Product.ID); i >= 0 {
			lines[i].Quantity += line.Quantity
			if line.Meters != nil {
				lines[i].Meters = copyMeters(line.Meters)
			}
			dropped++
			continue
		}

		lines = append(lines, line)
	}

	if dropped > 0 {
		s.logger.Warn("Discarded invalid cart lines from snapshot", slog.Int("dropped", dropped))
	}

	return lines
}

// AddItem appends a line for a new product or increments the quantity of the
// existing line. Meters replace the stored length only when provided.
func (s *CartStore) AddItem(product models.Product, quantity int, meters *float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := indexOfLine(s.lines, product.ID); i >= 0 {
		s.lines[i].Quantity += quantity
		if meters != nil {
			s.lines[i].Meters = copyMeters(meters)
		}
	} else {
		s.lines = append(s.lines, models.CartLine{
			Product:  product,
			Quantity: quantity,
			Meters:   copyMeters(meters),
		})
	}

	s.persistLocked()
}

// RemoveItem deletes the product's line. Removing an absent product still
// rewrites the snapshot.
func (s *CartStore) RemoveItem(productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := indexOfLine(s.lines, productID); i >= 0 {
		s.lines = append(s.lines[:i], s.lines[i+1:]...)
	}

	s.persistLocked()
}

// SetQuantity overwrites a line's quantity, and its meters when provided. A
// quantity of zero or less removes the line. Unknown products are ignored.
func (s *CartStore) SetQuantity(productID string, quantity int, meters *float64) {
	if quantity <= 0 {
		s.RemoveItem(productID)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if i := indexOfLine(s.lines, productID); i >= 0 {
		s.lines[i].Quantity = quantity
		if meters != nil {
			s.lines[i].Meters = copyMeters(meters)
		}
	}

	s.persistLocked()
}

func (s *CartStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lines = []models.CartLine{}
	s.persistLocked()
}

// RemoveOrdered takes the ordered lines out of the cart. A line whose quantity
// grew after the order snapshot keeps the difference; lines for other
// products are untouched.
func (s *CartStore) RemoveOrdered(ordered []models.CartLine) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, o := range ordered {
		i := indexOfLine(s.lines, o.Product.ID)
		if i < 0 {
			continue
		}

		if left := s.lines[i].Quantity - o.Quantity; left > 0 {
			s.lines[i].Quantity = left
			continue
		}

		s.lines = append(s.lines[:i], s.lines[i+1:]...)
	}

	s.persistLocked()
}

// Lines returns a copy of the cart lines in insertion order.
func (s *CartStore) Lines() []models.CartLine {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return copyLines(s.lines)
}

func (s *CartStore) TotalItems() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := 0
	for _, line := range s.lines {
		total += line.Quantity
	}

	return total
}

func (s *CartStore) TotalPrice() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return subtotal(s.lines)
}

// Snapshot returns the lines and both totals computed from the same state.
func (s *CartStore) Snapshot() models.Cart {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cart := models.Cart{Items: copyLines(s.lines), TotalPrice: subtotal(s.lines)}
	for _, line := range s.lines {
		cart.TotalItems += line.Quantity
	}

	return cart
}

func (s *CartStore) Flush(ctx context.Context) error {
	return s.writer.Flush(ctx)
}

// persistLocked must be called with s.mu held so snapshots are scheduled in
// mutation order.
func (s *CartStore) persistLocked() {
	s.writer.Schedule(s.lines)
}

func indexOfLine(lines []models.CartLine, productID string) int {
	for i, line := range lines {
		if line.Product.ID == productID {
			return i
		}
	}
	return -1
}

func copyLines(lines []models.CartLine) []models.CartLine {
	out := make([]models.CartLine, len(lines))
	for i, line := range lines {
		out[i] = line
		out[i].Meters = copyMeters(line.Meters)
	}
	return out
}

func subtotal(lines []models.CartLine) float64 {
	total := 0.0
	for _, line := range lines {
		total += line.Subtotal()
	}
	return total
}
