// Package token decodes the claim segment of a bearer token. Signatures are
// never checked here; the backend owns that trust boundary.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrTokenDecode reports a malformed token or one without an expiry claim.
var ErrTokenDecode = errors.New("token decode error")

// Claims holds the decoded fields the client cares about.
type Claims struct {
	Raw       string
	Subject   string
	UserID    any
	Username  string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type claimSet struct {
	jwt.RegisteredClaims
	UserID   any    `json:"userId,omitempty"`
	Username string `json:"username,omitempty"`
}

var parser = jwt.NewParser()

// Parse decodes raw without verifying it. Decoding the same token twice
// yields the same claims.
func Parse(raw string) (*Claims, error) {
	if raw == "" {
		return nil, fmt.Errorf("%w: empty token", ErrTokenDecode)
	}

	var cs claimSet
	if _, _, err := parser.ParseUnverified(raw, &cs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenDecode, err)
	}
	if cs.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: missing exp claim", ErrTokenDecode)
	}

	c := &Claims{
		Raw:       raw,
		Subject:   cs.Subject,
		UserID:    cs.UserID,
		Username:  cs.Username,
		ExpiresAt: cs.ExpiresAt.Time,
	}
	if cs.IssuedAt != nil {
		c.IssuedAt = cs.IssuedAt.Time
	}
	return c, nil
}

// TimeUntilExpiry is negative once the token has expired.
func (c *Claims) TimeUntilExpiry(now time.Time) time.Duration {
	return c.ExpiresAt.Sub(now)
}

func (c *Claims) Expired(now time.Time) bool {
	return c.TimeUntilExpiry(now) <= 0
}
