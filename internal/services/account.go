package service

import (
	"context"
	"html"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/aaravmahajanofficial/textile-storefront/internal/errors"
	"github.com/aaravmahajanofficial/textile-storefront/internal/metrics"
	"github.com/aaravmahajanofficial/textile-storefront/internal/models"
	"github.com/aaravmahajanofficial/textile-storefront/internal/storage"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
)

type AccountState string

const (
	StateUnloaded      AccountState = "unloaded"
	StateLoading       AccountState = "loading"
	StateAnonymous     AccountState = "anonymous"
	StateAuthenticated AccountState = "authenticated"
)

// AccountStore owns the device's signed-in profile. Unlike the cart and
// favorites it writes synchronously: a mutation only takes effect in memory
// once the slot write succeeded.
type AccountStore struct {
	mu        sync.RWMutex
	state     AccountState
	user      *models.UserProfile
	store     storage.Store
	key       string
	auth      Authenticator
	sanitizer *bluemonday.Policy
	timeout   time.Duration
	logger    *slog.Logger
}

func NewAccountStore(store storage.Store, deviceID string, auth Authenticator, opts StoreOptions) *AccountStore {
	opts = opts.withDefaults()
	if auth == nil {
		auth = DemoAuthenticator{}
	}

	return &AccountStore{
		state:     StateUnloaded,
		store:     store,
		key:       storage.Key(storage.UserKeyPrefix, deviceID),
		auth:      auth,
		sanitizer: bluemonday.StrictPolicy(),
		timeout:   opts.WriteTimeout,
		logger:    opts.Logger,
	}
}

func (s *AccountStore) Load(ctx context.Context) {
	s.mu.Lock()
	s.state = StateLoading
	s.mu.Unlock()

	var persisted models.UserProfile
	found := loadSlot(ctx, s.store, storage.UserKeyPrefix, s.key, &persisted, s.logger)

	if found && persisted.ID == "" {
		s.logger.Warn("Discarded profile snapshot without id")
		found = false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if found {
		s.user = &persisted
		s.state = StateAuthenticated
	} else {
		s.user = nil
		s.state = StateAnonymous
	}
}

func (s *AccountStore) State() AccountState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.state
}

// Loading is true only while the initial load is in flight.
func (s *AccountStore) Loading() bool {
	return s.State() == StateLoading
}

// Profile returns a copy of the signed-in profile, or nil when anonymous.
func (s *AccountStore) Profile() *models.UserProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return copyProfile(s.user)
}

func (s *AccountStore) Login(ctx context.Context, email, password string) (*models.UserProfile, error) {
	profile, err := s.auth.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.saveLocked(ctx, profile); err != nil {
		return nil, err
	}

	s.user = profile
	s.state = StateAuthenticated

	return copyProfile(profile), nil
}

// Register mints a profile with a fresh id and no loyalty points.
func (s *AccountStore) Register(ctx context.Context, draft *models.ProfileDraft) (*models.UserProfile, error) {
	profile := &models.UserProfile{
		ID:            uuid.NewString(),
		Name:          s.clean(draft.Name),
		Email:         normalizeEmail(draft.Email),
		Phone:         s.clean(draft.Phone),
		Address:       s.sanitizeAddress(draft.Address),
		LoyaltyPoints: 0,
	}

	if err := s.auth.Enroll(ctx, profile, draft.Password); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.saveLocked(ctx, profile); err != nil {
		return nil, err
	}

	s.user = profile
	s.state = StateAuthenticated

	return copyProfile(profile), nil
}

func (s *AccountStore) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err := s.store.Delete(ctx, s.key)
	metrics.ObservePersistence(storage.UserKeyPrefix, storage.OpDelete, err)

	if err != nil {
		s.logger.Error("Failed to remove profile snapshot", slog.String("key", s.key), slog.String("error", err.Error()))
		return errors.StorageError("Failed to sign out").WithError(err)
	}

	s.user = nil
	s.state = StateAnonymous

	return nil
}

// UpdateProfile merges the non-nil fields of update onto the current profile.
// It returns nil without error when nobody is signed in.
func (s *AccountStore) UpdateProfile(ctx context.Context, update *models.ProfileUpdate) (*models.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user == nil {
		return nil, nil
	}

	merged := copyProfile(s.user)
	if update.Name != nil {
		merged.Name = s.clean(*update.Name)
	}
	if update.Email != nil {
		merged.Email = normalizeEmail(*update.Email)
	}
	if update.Phone != nil {
		merged.Phone = s.clean(*update.Phone)
	}
	if update.Address != nil {
		merged.Address = s.sanitizeAddress(update.Address)
	}

	if err := s.auth.ProfileChanged(ctx, s.user.Email, merged); err != nil {
		return nil, err
	}

	if err := s.saveLocked(ctx, merged); err != nil {
		return nil, err
	}

	s.user = merged

	return copyProfile(merged), nil
}

func (s *AccountStore) saveLocked(ctx context.Context, profile *models.UserProfile) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err := storage.SaveSnapshot(ctx, s.store, s.key, profile)
	metrics.ObservePersistence(storage.UserKeyPrefix, storage.OpSave, err)

	if err != nil {
		s.logger.Error("Failed to persist profile snapshot", slog.String("key", s.key), slog.String("error", err.Error()))
		return errors.StorageError("Failed to save profile").WithError(err)
	}

	return nil
}

// clean strips markup from free text. Entities are unescaped again because
// the API serves JSON, not HTML.
func (s *AccountStore) clean(text string) string {
	return strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(text)))
}

func (s *AccountStore) sanitizeAddress(addr *models.Address) *models.Address {
	if addr == nil {
		return nil
	}

	return &models.Address{
		Street:       s.clean(addr.Street),
		Number:       s.clean(addr.Number),
		Complement:   s.clean(addr.Complement),
		Neighborhood: s.clean(addr.Neighborhood),
		City:         s.clean(addr.City),
		State:        s.clean(addr.State),
		ZipCode:      s.clean(addr.ZipCode),
	}
}

func copyProfile(p *models.UserProfile) *models.UserProfile {
	if p == nil {
		return nil
	}

	out := *p
	if p.Address != nil {
		addr := *p.Address
		out.Address = &addr
	}

	return &out
}
