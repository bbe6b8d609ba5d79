// Package token issues and verifies the signed, time-limited credentials used
// for email confirmation and password reset links.
package token

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Purpose scopes a token to a single use. A token issued for one purpose
// never verifies under another.
type Purpose string

const (
	PurposeConfirm Purpose = "confirm"
	PurposeReset   Purpose = "reset"
)

// ErrInvalidToken is returned for expired, tampered, malformed, or
// wrong-purpose tokens. All failure modes are indistinguishable.
var ErrInvalidToken = errors.New("invalid or expired token")

type claims struct {
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// Service signs and verifies email-bound tokens.
type Service struct {
	secret     []byte
	confirmTTL time.Duration
	resetTTL   time.Duration
}

func NewService(secret string, confirmTTL, resetTTL time.Duration) *Service {
	return &Service{
		secret:     []byte(secret),
		confirmTTL: confirmTTL,
		resetTTL:   resetTTL,
	}
}

// Issue signs a token binding email to the given purpose.
func (s *Service) Issue(email string, purpose Purpose) (string, error) {
	ttl := s.confirmTTL
	if purpose == PurposeReset {
		ttl = s.resetTTL
	}
	now := time.Now()
	c := claims{
		Purpose: string(purpose),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return token.SignedString(s.secret)
}

// Verify resolves a token back to the email it was issued for. It fails
// closed: any expired, tampered, or wrong-purpose token yields
// ErrInvalidToken and no email.
func (s *Service) Verify(tokenString string, purpose Purpose) (string, error) {
	c := claims{}
	token, err := jwt.ParseWithClaims(tokenString, &c, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	if c.Purpose != string(purpose) {
		return "", ErrInvalidToken
	}
	email := strings.TrimSpace(c.Subject)
	if email == "" {
		return "", ErrInvalidToken
	}
	return email, nil
}
