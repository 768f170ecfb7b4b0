package models

import (
	"github.com/golang-jwt/jwt/v5"
)

type Address struct {
	Street       string `json:"street" validate:"required"`
	Number       string `json:"number" validate:"required"`
	Complement   string `json:"complement,omitempty"`
	Neighborhood string `json:"neighborhood" validate:"required"`
	City         string `json:"city" validate:"required"`
	State        string `json:"state" validate:"required,len=2"`
	ZipCode      string `json:"zipCode" validate:"required"`
}

type UserProfile struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Email         string   `json:"email"`
	Phone         string   `json:"phone"`
	Address       *Address `json:"address,omitempty"`
	LoyaltyPoints int      `json:"loyaltyPoints"`
}

// ProfileDraft is the registration payload: a profile without id or points.
type ProfileDraft struct {
	Name     string   `json:"name" validate:"required"`
	Email    string   `json:"email" validate:"required,email"`
	Phone    string   `json:"phone" validate:"required"`
	Address  *Address `json:"address,omitempty" validate:"omitempty"`
	Password string   `json:"password,omitempty" validate:"omitempty,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ProfileUpdate carries a partial profile; nil fields are left untouched.
type ProfileUpdate struct {
	Name    *string  `json:"name,omitempty" validate:"omitempty,min=1"`
	Email   *string  `json:"email,omitempty" validate:"omitempty,email"`
	Phone   *string  `json:"phone,omitempty"`
	Address *Address `json:"address,omitempty" validate:"omitempty"`
}

type LoginResponse struct {
	Success   bool         `json:"success"`
	Token     string       `json:"token,omitempty"`
	ExpiresIn int          `json:"expiresIn,omitempty"`
	User      *UserProfile `json:"user,omitempty"`
	Message   string       `json:"message,omitempty"`
	// seconds until another login attempt is accepted
	RetryAfter int `json:"retryAfter,omitempty"`
}

type AccountResponse struct {
	State   string       `json:"state"`
	Loading bool         `json:"loading"`
	User    *UserProfile `json:"user,omitempty"`
}

type Claims struct {
	UserID   string `json:"user_id"`
	DeviceID string `json:"device_id"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}
