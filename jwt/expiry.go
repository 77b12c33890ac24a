package jwt

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoExpiry is returned when a token carries no exp claim.
var ErrNoExpiry = errors.New("token has no exp claim")

// ExpiresAt decodes the payload segment of a backend-issued token and
// returns its exp claim. Neither the header nor the signature is checked:
// the backend is the only party that can verify the token and rejects
// expired or forged tokens on its own. The result is only used to decide
// when to re-authenticate.
func ExpiresAt(tokenStr string) (time.Time, error) {
	parts := strings.Split(tokenStr, ".")
	if len(parts) != 3 {
		return time.Time{}, jwt.ErrTokenMalformed
	}

	payload, err := jwt.NewParser().DecodeSegment(parts[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", jwt.ErrTokenMalformed, err)
	}
	var claims jwt.RegisteredClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", jwt.ErrTokenMalformed, err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, ErrNoExpiry
	}

	return claims.ExpiresAt.Time, nil
}

// Expired reports whether tokenStr is expired at now. Any decode failure
// counts as expired.
func Expired(tokenStr string, now time.Time) bool {
	exp, err := ExpiresAt(tokenStr)
	if err != nil {
		return true
	}
	return !now.Before(exp)
}
