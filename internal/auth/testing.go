package auth

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
)

// WithClaims returns a new context with the given claims.
// This is primarily for testing purposes.
func WithClaims(ctx context.Context, claims *StaffClaims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// NewTestClaims creates StaffClaims with the given user ID, email and role.
// This is primarily for testing purposes.
func NewTestClaims(userID, email, role string) *StaffClaims {
	return &StaffClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: userID,
		},
		Email: email,
		Role:  role,
	}
}
