package api

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/linesmerrill/legal-case-api/casework"
)

// TokenTTL is how long an issued access token stays valid
const TokenTTL = 12 * time.Hour

// Claims represents the JWT claims issued to a signed in user
type Claims struct {
	Name string `json:"name"`
	Role string `json:"role"` // profile role: user, lawyer, judge, admin
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies access tokens
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// TokenOption configures a TokenIssuer
type TokenOption func(*TokenIssuer)

// WithTokenTTL overrides TokenTTL
func WithTokenTTL(ttl time.Duration) TokenOption {
	return func(t *TokenIssuer) {
		t.ttl = ttl
	}
}

// WithClock replaces time.Now for issuing and verifying
func WithClock(now func() time.Time) TokenOption {
	return func(t *TokenIssuer) {
		t.now = now
	}
}

// NewTokenIssuer creates a token issuer for secret
func NewTokenIssuer(secret string, opts ...TokenOption) *TokenIssuer {
	t := &TokenIssuer{secret: []byte(secret), ttl: TokenTTL, now: time.Now}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Issue signs a token for the principal
func (t *TokenIssuer) Issue(p casework.Principal) (string, time.Time, error) {
	if len(t.secret) == 0 {
		return "", time.Time{}, errors.New("jwt secret is not configured")
	}
	now := t.now()
	expires := now.Add(t.ttl)
	claims := &Claims{
		Name: p.Name,
		Role: p.ProfileRole,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, "failed to sign token")
	}
	return signed, expires, nil
}

// Parse verifies a token and returns the principal it was issued to
func (t *TokenIssuer) Parse(tokenString string) (casework.Principal, error) {
	p, _, err := t.Verify(tokenString)
	return p, err
}

// Verify is Parse that also returns when the token expires
func (t *TokenIssuer) Verify(tokenString string) (casework.Principal, time.Time, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil {
		return casework.Principal{}, time.Time{}, errors.Wrap(err, "failed to parse token")
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" || claims.ExpiresAt == nil {
		return casework.Principal{}, time.Time{}, errors.New("invalid token")
	}
	p := casework.Principal{ID: claims.Subject, Name: claims.Name, ProfileRole: claims.Role}
	return p, claims.ExpiresAt.Time, nil
}
