package apiclient

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// checkToken rejects bearer tokens whose exp claim is already in the past.
// The signature is not verified; the API remains the authority. Opaque
// (non-JWT) tokens pass through unchecked.
func checkToken(token string, now time.Time) error {
	if token == "" {
		return nil
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil
	}
	if !exp.After(now) {
		return ErrTokenExpired
	}
	return nil
}
