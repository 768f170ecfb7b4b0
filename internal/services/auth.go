package service

import (
	"context"
	"strings"
	"unicode"

	"github.com/aaravmahajanofficial/textile-storefront/internal/errors"
	"github.com/aaravmahajanofficial/textile-storefront/internal/models"
	"github.com/aaravmahajanofficial/textile-storefront/internal/storage"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	AuthModeDemo  = "demo"
	AuthModeLocal = "local"

	// Fixed fields of every profile synthesized by the demo authenticator.
	DemoLoyaltyPoints = 150
	DemoPhone         = "(11) 99999-9999"
)

// Authenticator resolves login credentials to a profile and records the
// credentials of newly registered profiles.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*models.UserProfile, error)
	Enroll(ctx context.Context, profile *models.UserProfile, password string) error
	ProfileChanged(ctx context.Context, previousEmail string, profile *models.UserProfile) error
}

// NewAuthenticator returns the authenticator for the configured mode.
func NewAuthenticator(mode string, store storage.Store) (Authenticator, error) {
	switch mode {
	case AuthModeDemo, "":
		return DemoAuthenticator{}, nil
	case AuthModeLocal:
		return NewLocalAuthenticator(store), nil
	default:
		return nil, errors.ValidationError("Unknown auth mode").WithDetail(mode)
	}
}

// DemoAuthenticator accepts any email and password pair and synthesizes a
// profile from the email. It has no identity store and must not be used where
// authentication matters.
type DemoAuthenticator struct{}

func (DemoAuthenticator) Authenticate(_ context.Context, email, _ string) (*models.UserProfile, error) {
	email = normalizeEmail(email)

	return &models.UserProfile{
		ID:            uuid.NewSHA1(uuid.NameSpaceURL, []byte("mailto:"+email)).String(),
		Name:          nameFromEmail(email),
		Email:         email,
		Phone:         DemoPhone,
		LoyaltyPoints: DemoLoyaltyPoints,
	}, nil
}

func (DemoAuthenticator) Enroll(context.Context, *models.UserProfile, string) error {
	return nil
}

func (DemoAuthenticator) ProfileChanged(context.Context, string, *models.UserProfile) error {
	return nil
}

type credential struct {
	PasswordHash string             `json:"passwordHash"`
	Profile      models.UserProfile `json:"profile"`
}

// LocalAuthenticator keeps bcrypt password hashes in the credentials slots of
// the same store the sessions use.
type LocalAuthenticator struct {
	store storage.Store
}

func NewLocalAuthenticator(store storage.Store) *LocalAuthenticator {
	return &LocalAuthenticator{store: store}
}

func (a *LocalAuthenticator) Authenticate(ctx context.Context, email, password string) (*models.UserProfile, error) {
	var cred credential

	found, err := storage.LoadSnapshot(ctx, a.store, credentialKey(email), &cred)
	if err != nil {
		return nil, errors.StorageError("Failed to read credentials").WithError(err)
	}

	if !found || bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)) != nil {
		return nil, errors.InvalidCredentialsError("Invalid email or password")
	}

	profile := cred.Profile
	return &profile, nil
}

func (a *LocalAuthenticator) Enroll(ctx context.Context, profile *models.UserProfile, password string) error {
	if password == "" {
		return errors.AddValidationError("password", "required")
	}

	key := credentialKey(profile.Email)

	_, found, err := a.store.Get(ctx, key)
	if err != nil {
		return errors.StorageError("Failed to read credentials").WithError(err)
	}
	if found {
		return errors.DuplicateEntryError("Email already registered")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return errors.InternalError("Failed to secure password").WithError(err)
	}

	cred := credential{PasswordHash: string(hashedPassword), Profile: *profile}
	if err := storage.SaveSnapshot(ctx, a.store, key, cred); err != nil {
		return errors.StorageError("Failed to save credentials").WithError(err)
	}

	return nil
}

// ProfileChanged rewrites the stored profile and moves the credential when
// the email changed. Profiles without stored credentials are ignored.
func (a *LocalAuthenticator) ProfileChanged(ctx context.Context, previousEmail string, profile *models.UserProfile) error {
	oldKey := credentialKey(previousEmail)

	var cred credential
	found, err := storage.LoadSnapshot(ctx, a.store, oldKey, &cred)
	if err != nil {
		return errors.StorageError("Failed to read credentials").WithError(err)
	}
	if !found {
		return nil
	}

	newKey := credentialKey(profile.Email)
	if newKey != oldKey {
		if _, taken, err := a.store.Get(ctx, newKey); err != nil {
			return errors.StorageError("Failed to read credentials").WithError(err)
		} else if taken {
			return errors.DuplicateEntryError("Email already registered")
		}
	}

	cred.Profile = *profile
	if err := storage.SaveSnapshot(ctx, a.store, newKey, cred); err != nil {
		return errors.StorageError("Failed to save credentials").WithError(err)
	}

	if newKey != oldKey {
		if err := a.store.Delete(ctx, oldKey); err != nil {
			return errors.StorageError("Failed to remove old credentials").WithError(err)
		}
	}

	return nil
}

func credentialKey(email string) string {
	return storage.Key(storage.CredentialsKeyPrefix, normalizeEmail(email))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// nameFromEmail turns "maria.silva@example.com" into "Maria Silva".
func nameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")

	words := strings.FieldsFunc(local, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+' || unicode.IsDigit(r)
	})

	for i, w := range words {
		runes := []rune(w)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}

	if len(words) == 0 {
		return "Cliente"
	}

	return strings.Join(words, " ")
}
