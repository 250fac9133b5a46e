package auth

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrNoToken = errors.New("auth: no token")
	ErrExpired = errors.New("auth: token expired")
)

// Claims mirrors what the game server puts into player tokens.
type Claims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

// Inspect decodes a bearer token without verifying its signature; the
// client has no key. It only catches tokens that are unusable before dialing.
func Inspect(token string, now time.Time) (*Claims, error) {
	if token == "" {
		return nil, ErrNoToken
	}

	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("auth: parse token: %w", err)
	}
	if claims.ExpiresAt != nil && !now.Before(claims.ExpiresAt.Time) {
		return nil, fmt.Errorf("%w at %s", ErrExpired, claims.ExpiresAt.Time.Format(time.RFC3339))
	}
	return claims, nil
}

// Header returns the handshake headers for the player channel. An empty
// token yields nil.
func Header(token string) http.Header {
	if token == "" {
		return nil
	}
	h := http.Header{}
	h.Set("Authorization", "Bearer "+token)
	return h
}
