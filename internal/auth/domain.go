// Package auth issues and verifies the short-lived signed tokens that embed a
// snapshot of an employee's resolved permissions.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the access-token claim set. The permission ids are a snapshot
// taken at issuance; they go stale with the resolver cache and refresh on the
// next login or token refresh.
type Claims struct {
	Email       string  `json:"email"`
	FirstName   string  `json:"firstname"`
	LastName    string  `json:"lastname"`
	Permissions []int32 `json:"permissions"`
	jwt.RegisteredClaims
}

// RefreshClaims is the refresh-token claim set: subject and expiry only.
type RefreshClaims struct {
	jwt.RegisteredClaims
}

// EmployeeID parses the subject claim.
func (c *Claims) EmployeeID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// LoginRequest carries login credentials.
type LoginRequest struct {
	ProfessionalEmail string `json:"professional_email" validate:"required,email"`
	Password          string `json:"password" validate:"required"`
}

// RefreshRequest carries a refresh token.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// TokenPair is the issued credential set.
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresAt    time.Time `json:"expires_at"`
}
