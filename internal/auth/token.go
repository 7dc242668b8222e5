package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// Credentials identify the payer to the payment backend. The token is
// issued and verified by the backend; this service only reads it.
type Credentials struct {
	Token     string
	Locale    string
	Subject   string
	ExpiresAt time.Time
}

// Anonymous reports whether no bearer token was supplied.
func (c Credentials) Anonymous() bool {
	return c.Token == ""
}

// Inspect reads the claims of a backend-issued token without checking its
// signature, and rejects tokens that are already expired.
func Inspect(tokenString string, now time.Time) (Credentials, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return Credentials{}, nil
	}

	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, &claims); err != nil {
		return Credentials{}, ErrInvalidToken
	}

	creds := Credentials{Token: tokenString, Subject: claims.Subject}
	if claims.ExpiresAt != nil {
		creds.ExpiresAt = claims.ExpiresAt.Time
		if !now.Before(creds.ExpiresAt) {
			return Credentials{}, ErrTokenExpired
		}
	}
	return creds, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	const prefix = "bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

// Locale picks the primary language tag from an Accept-Language value.
func Locale(header string) string {
	tag := header
	if i := strings.IndexAny(tag, ",;"); i >= 0 {
		tag = tag[:i]
	}
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == "" || tag == "*" {
		return "en"
	}
	return tag
}
