package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aaravmahajanofficial/textile-storefront/internal/errors"
	"github.com/aaravmahajanofficial/textile-storefront/internal/models"
	"github.com/aaravmahajanofficial/textile-storefront/internal/storage"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var cardValidator = validator.New()

// storedCard also reads the full number that older snapshots carried, so
// it can be reduced to the last four digits on load.
type storedCard struct {
	models.SavedCard
	Number string `json:"number,omitempty"`
}

// PaymentMethodsStore keeps the device's saved cards in the order they were
// added. Like the cart it persists in the background on every mutation.
type PaymentMethodsStore struct {
	mu     sync.RWMutex
	cards  []models.SavedCard
	store  storage.Store
	key    string
	writer *storage.Writer
	logger *slog.Logger
}

func NewPaymentMethodsStore(store storage.Store, deviceID string, opts StoreOptions) *PaymentMethodsStore {
	opts = opts.withDefaults()
	key := storage.Key(storage.PaymentMethodsKeyPrefix, deviceID)

	return &PaymentMethodsStore{
		cards:  []models.SavedCard{},
		store:  store,
		key:    key,
		writer: storage.NewWriter(store, storage.PaymentMethodsKeyPrefix, key, opts.WriteTimeout, opts.Logger),
		logger: opts.Logger,
	}
}

// Load replaces the in-memory cards with the persisted snapshot. Snapshots
// holding full card numbers are rewritten without them.
func (s *PaymentMethodsStore) Load(ctx context.Context) {
	var persisted []storedCard
	found := loadSlot(ctx, s.store, storage.PaymentMethodsKeyPrefix, s.key, &persisted, s.logger)

	cards := []models.SavedCard{}
	scrub := false

	if found {
		for _, c := range persisted {
			if c.Number != "" {
				scrub = true
				if c.Last4 == "" {
					c.Last4 = lastDigits(c.Number, 4)
				}
			}

			if c.ID == "" || len(c.Last4) != 4 || indexOfCard(cards, c.ID) >= 0 {
				continue
			}
			cards = append(cards, c.SavedCard)
		}

		if dropped := len(persisted) - len(cards); dropped > 0 {
			s.logger.Warn("Discarded invalid saved cards from snapshot", slog.Int("dropped", dropped))
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.cards = cards
	if scrub {
		s.logger.Info("Removing full card numbers from saved cards")
		s.writer.Schedule(s.cards)
	}
}

// Add validates the card and keeps its holder, expiry and last four digits.
func (s *PaymentMethodsStore) Add(req models.AddCardRequest) (models.SavedCard, error) {
	req.Normalize()

	if err := cardValidator.Struct(req); err != nil {
		return models.SavedCard{}, errors.ValidationError("Invalid card details").WithError(err)
	}

	card := models.SavedCard{
		ID:         uuid.NewString(),
		HolderName: req.HolderName,
		Last4:      lastDigits(req.Number, 4),
		Expiry:     req.Expiry,
		CreatedAt:  time.Now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.cards = append(s.cards, card)
	s.writer.Schedule(s.cards)

	return card, nil
}

// Remove deletes the card. Removing an unknown id still rewrites the snapshot.
func (s *PaymentMethodsStore) Remove(cardID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := indexOfCard(s.cards, cardID); i >= 0 {
		s.cards = append(s.cards[:i], s.cards[i+1:]...)
	}

	s.writer.Schedule(s.cards)
}

func (s *PaymentMethodsStore) Get(cardID string) (models.SavedCard, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := indexOfCard(s.cards, cardID); i >= 0 {
		return s.cards[i], true
	}

	return models.SavedCard{}, false
}

func (s *PaymentMethodsStore) List() []models.SavedCard {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.SavedCard, len(s.cards))
	copy(out, s.cards)

	return out
}

func (s *PaymentMethodsStore) Flush(ctx context.Context) error {
	return s.writer.Flush(ctx)
}

func indexOfCard(cards []models.SavedCard, cardID string) int {
	for i, c := range cards {
		if c.ID == cardID {
			return i
		}
	}
	return -1
}

func lastDigits(number string, n int) string {
	digits := make([]byte, 0, len(number))
	for i := 0; i < len(number); i++ {
		if number[i] >= '0' && number[i] <= '9' {
			digits = append(digits, number[i])
		}
	}

	if len(digits) < n {
		return ""
	}

	return string(digits[len(digits)-n:])
}
