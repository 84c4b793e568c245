package repository

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
)

// TokenService defines the interface for token operations
type TokenService interface {
	GenerateToken(ctx context.Context, adminID, email, sessionID string) (string, error)
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims represents JWT claims. RegisteredClaims.ID carries the session ID.
type Claims struct {
	AdminID string `json:"adminID"`
	Email   string `json:"email"`
	jwt.RegisteredClaims
}
