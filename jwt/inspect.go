package jwt

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrNotJWT is returned for credentials that do not parse as a compact JWT.
	ErrNotJWT = errors.New("credential is not a jwt")
	// ErrInvalidLeeway is returned by NewInspector for out-of-range leeway.
	ErrInvalidLeeway = errors.New("invalid leeway configuration")
)

// Claims is the subset of registered claims the session client cares about.
type Claims struct {
	Subject   string
	Issuer    string
	ExpiresAt time.Time
	IssuedAt  time.Time
}

// HasExpiry reports whether the token carried an exp claim.
func (c Claims) HasExpiry() bool {
	return !c.ExpiresAt.IsZero()
}

// Inspector reads claims from credentials without verifying signatures.
type Inspector struct {
	leeway time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

// NewInspector returns an Inspector that treats a token as expired only once
// exp+leeway has passed. Leeway is capped at two minutes, like the server-side validator.
func NewInspector(leeway time.Duration) (*Inspector, error) {
	if leeway < 0 || leeway > 2*time.Minute {
		return nil, ErrInvalidLeeway
	}
	return &Inspector{
		leeway: leeway,
		now:    time.Now,
		parser: jwt.NewParser(),
	}, nil
}

// Inspect parses credential and returns its registered claims.
func (i *Inspector) Inspect(credential string) (Claims, error) {
	credential = strings.TrimSpace(credential)
	if strings.Count(credential, ".") != 2 {
		return Claims{}, ErrNotJWT
	}

	var rc jwt.RegisteredClaims
	if _, _, err := i.parser.ParseUnverified(credential, &rc); err != nil {
		return Claims{}, ErrNotJWT
	}

	out := Claims{
		Subject: rc.Subject,
		Issuer:  rc.Issuer,
	}
	if rc.ExpiresAt != nil {
		out.ExpiresAt = rc.ExpiresAt.Time
	}
	if rc.IssuedAt != nil {
		out.IssuedAt = rc.IssuedAt.Time
	}
	return out, nil
}

// Expired reports whether credential is a JWT whose exp (plus leeway) is in the past.
// Non-JWT credentials and tokens without exp are never considered expired.
func (i *Inspector) Expired(credential string) bool {
	claims, err := i.Inspect(credential)
	if err != nil || !claims.HasExpiry() {
		return false
	}
	return i.now().After(claims.ExpiresAt.Add(i.leeway))
}

// ExpiresIn returns the time left before credential expires, and false when it is unknown.
func (i *Inspector) ExpiresIn(credential string) (time.Duration, bool) {
	claims, err := i.Inspect(credential)
	if err != nil || !claims.HasExpiry() {
		return 0, false
	}
	return claims.ExpiresAt.Sub(i.now()), true
}
