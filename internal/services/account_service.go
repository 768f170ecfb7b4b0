package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aaravmahajanofficial/textile-storefront/internal/api/middleware"
	"github.com/aaravmahajanofficial/textile-storefront/internal/errors"
	"github.com/aaravmahajanofficial/textile-storefront/internal/models"
	"github.com/aaravmahajanofficial/textile-storefront/internal/ratelimit"
)

// AccountService wraps the account store operations that hand out tokens.
type AccountService struct {
	issuer  *TokenIssuer
	limiter ratelimit.LoginLimiter
}

// NewAccountService wires token issuing. limiter may be nil to disable login
// throttling.
func NewAccountService(issuer *TokenIssuer, limiter ratelimit.LoginLimiter) *AccountService {
	return &AccountService{issuer: issuer, limiter: limiter}
}

// Login reports rejected credentials, throttled attempts and persistence
// failures as an unsuccessful response rather than an error.
func (s *AccountService) Login(ctx context.Context, sess *Session, req *models.LoginRequest) (*models.LoginResponse, error) {
	if s.limiter != nil {
		allowed, _, retryAfter, err := s.limiter.CheckLoginRateLimit(ctx, normalizeEmail(req.Email))

		switch {
		case err != nil:
			// fail open, the limiter backend is not the login path
			middleware.LoggerFromContext(ctx).Warn("Login rate limit check failed", slog.String("error", err.Error()))
		case !allowed:
			return &models.LoginResponse{
				Success:    false,
				Message:    fmt.Sprintf("Too many login attempts, try again in %d seconds", retryAfter),
				RetryAfter: retryAfter,
			}, nil
		}
	}

	user, err := sess.Account.Login(ctx, req.Email, req.Password)
	if err != nil {
		return failedLogin(err)
	}

	return s.signedIn(sess.DeviceID, user)
}

func (s *AccountService) Register(ctx context.Context, sess *Session, draft *models.ProfileDraft) (*models.LoginResponse, error) {
	user, err := sess.Account.Register(ctx, draft)
	if err != nil {
		return failedLogin(err)
	}

	return s.signedIn(sess.DeviceID, user)
}

func (s *AccountService) signedIn(deviceID string, user *models.UserProfile) (*models.LoginResponse, error) {
	token, expiresIn, err := s.issuer.Issue(deviceID, user)
	if err != nil {
		return nil, errors.InternalError("Failed to generate authentication token").WithError(err)
	}

	return &models.LoginResponse{
		Success:   true,
		Token:     token,
		ExpiresIn: expiresIn,
		User:      user,
	}, nil
}

func failedLogin(err error) (*models.LoginResponse, error) {
	appErr, ok := errors.IsAppError(err)
	if !ok {
		return nil, errors.InternalError("Failed to sign in").WithError(err)
	}

	switch appErr.Code {
	case errors.ErrCodeInvalidLogin, errors.ErrCodeStorageError:
		return &models.LoginResponse{Success: false, Message: appErr.Message}, nil
	default:
		return nil, appErr
	}
}
