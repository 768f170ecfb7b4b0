package service

import (
	"time"

	"github.com/aaravmahajanofficial/textile-storefront/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

// TokenIssuer signs HS256 tokens bound to a device and a profile.
type TokenIssuer struct {
	jwtKey []byte
	ttl    time.Duration
}

func NewTokenIssuer(jwtKey []byte, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &TokenIssuer{jwtKey: jwtKey, ttl: ttl}
}

// Issue returns the signed token and its lifetime in seconds.
func (t *TokenIssuer) Issue(deviceID string, user *models.UserProfile) (string, int, error) {
	now := time.Now()

	claims := &models.Claims{
		UserID:   user.ID,
		DeviceID: deviceID,
		Email:    user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   user.ID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(t.jwtKey)
	if err != nil {
		return "", 0, err
	}

	return tokenString, int(t.ttl.Seconds()), nil
}
