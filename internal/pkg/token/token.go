package token

import (
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Claims are the identity fields the agent reads from the backend-issued
// access token. The agent holds no signing key, so the token is parsed
// without verification; the backend re-verifies it on every API call.
type Claims struct {
	UserID         string
	OrganizationID string
	ExpiresAt      time.Time
}

// Parse extracts Claims from a compact JWT string.
func Parse(raw string) (Claims, error) {
	tok, err := jwt.ParseString(raw, jwt.WithVerify(false), jwt.WithValidate(false))
	if err != nil {
		return Claims{}, fmt.Errorf("failed to parse access token: %w", err)
	}

	claims := Claims{ExpiresAt: tok.Expiration()}

	if v, ok := tok.Get("user_id"); ok {
		claims.UserID, _ = v.(string)
	}
	if claims.UserID == "" {
		claims.UserID = tok.Subject()
	}

	if v, ok := tok.Get("organization_id"); ok {
		claims.OrganizationID, _ = v.(string)
	}

	return claims, nil
}

// Expired reports whether the token carries an expiry in the past. A token
// without an exp claim is treated as non-expiring.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && c.ExpiresAt.Before(now)
}
