// Package auth issues and validates the tokens that guard administrative
// operations such as resetting the word pool.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// RoleAdmin is the role claim required by administrative routes.
const RoleAdmin = "admin"

// MinSecretLength is the shortest accepted signing secret.
const MinSecretLength = 32

// Validation failures. The middleware maps all but ErrNotAdmin to 401.
var (
	ErrMissingToken     = errors.New("admin token is missing")
	ErrInvalidToken     = errors.New("admin token is malformed or has a bad signature")
	ErrExpiredToken     = errors.New("admin token has expired")
	ErrTokenNotYetValid = errors.New("admin token is not valid yet")
	ErrNotAdmin         = errors.New("token does not carry the admin role")
)

// ErrWeakSecret is returned by NewTokenService for a short signing secret.
var ErrWeakSecret = fmt.Errorf("admin secret must be at least %d characters", MinSecretLength)

// TokenService defines operations for managing admin tokens.
type TokenService interface {
	// GenerateAdminToken creates a signed token with the admin role for
	// subject, typically an operator name.
	GenerateAdminToken(ctx context.Context, subject string) (string, error)

	// ValidateAdminToken verifies the signature and lifetime of tokenString
	// and that it carries the admin role.
	ValidateAdminToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims are the validated contents of an admin token.
type Claims struct {
	Role      string    `json:"role"`
	Subject   string    `json:"sub,omitempty"`
	IssuedAt  time.Time `json:"iat,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
	ID        string    `json:"jti,omitempty"`
}
