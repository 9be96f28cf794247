// Package auth gates the tracker's mutating endpoints behind a shared PIN.
// A correct PIN yields a short-lived HS256 token, kept in a signed session
// cookie for browsers and accepted as a Bearer token from API clients.
package auth

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// ClaimsKey is the context key for storing unlock claims.
	ClaimsKey contextKey = "claims"
	// TokenKey is the context key for storing the raw token string.
	TokenKey contextKey = "token"
)

// Issuer and Subject stamped on every unlock token.
const (
	Issuer  = "ekaya-tracker"
	Subject = "tracker-editor"
)

// Claims are the claims of an unlock token. ID (jti) identifies the unlock
// session in audit logs.
type Claims struct {
	jwt.RegisteredClaims
}

// GetClaims retrieves unlock claims from the request context.
// Returns nil and false if claims are not present.
func GetClaims(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*Claims)
	return claims, ok
}

// GetToken retrieves the raw token string from the request context.
func GetToken(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(TokenKey).(string)
	return token, ok
}

// WithClaims returns ctx carrying claims and the token they came from.
func WithClaims(ctx context.Context, claims *Claims, token string) context.Context {
	ctx = context.WithValue(ctx, ClaimsKey, claims)
	return context.WithValue(ctx, TokenKey, token)
}
