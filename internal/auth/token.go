// Package auth issues and verifies stateless session tokens and decides where
// the auth flow may redirect.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"homestead/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken is returned for any token that fails verification.
var ErrInvalidToken = errors.New("invalid or expired session token")

// SessionClaims are the claims carried by a session token. The subject is the
// user ID in decimal.
type SessionClaims struct {
	jwt.RegisteredClaims
	Email string      `json:"email"`
	Name  string      `json:"name,omitempty"`
	Role  models.Role `json:"role"`
}

// UserID parses the subject claim.
func (c *SessionClaims) UserID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 32)
	if err != nil || id == 0 {
		return 0, ErrInvalidToken
	}
	return uint(id), nil
}

// Identity rebuilds the principal the token was issued for.
func (c *SessionClaims) Identity() (models.Identity, error) {
	id, err := c.UserID()
	if err != nil {
		return models.Identity{}, err
	}
	return models.Identity{ID: id, Name: c.Name, Email: c.Email, Role: c.Role}, nil
}

// TokenIssuer signs and verifies HS256 session tokens.
type TokenIssuer struct {
	Secret   []byte
	Issuer   string
	Audience string
	TTL      time.Duration

	now func() time.Time
}

// NewTokenIssuer returns an issuer for the given secret and lifetime.
func NewTokenIssuer(secret, issuer, audience string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{
		Secret:   []byte(secret),
		Issuer:   issuer,
		Audience: audience,
		TTL:      ttl,
		now:      time.Now,
	}
}

func (t *TokenIssuer) clock() time.Time {
	if t.now != nil {
		return t.now()
	}
	return time.Now()
}

// Issue signs a token for id. Each token gets a fresh JTI so it can be
// revoked individually.
func (t *TokenIssuer) Issue(id models.Identity) (string, *SessionClaims, error) {
	if len(t.Secret) == 0 {
		return "", nil, errors.New("session secret is not configured")
	}
	if id.ID == 0 {
		return "", nil, errors.New("cannot issue a session for user 0")
	}

	now := t.clock()
	claims := &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(id.ID), 10),
			Issuer:    t.Issuer,
			Audience:  jwt.ClaimStrings{t.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.TTL)),
			ID:        uuid.NewString(),
		},
		Email: id.Email,
		Name:  id.Name,
		Role:  id.Role,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.Secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign session token: %w", err)
	}
	return signed, claims, nil
}

// Parse verifies signature, algorithm, issuer, audience and time claims.
func (t *TokenIssuer) Parse(token string) (*SessionClaims, error) {
	if token == "" || len(t.Secret) == 0 {
		return nil, ErrInvalidToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.clock),
	}
	if t.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.Issuer))
	}
	if t.Audience != "" {
		opts = append(opts, jwt.WithAudience(t.Audience))
	}

	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", tok.Header["alg"])
		}
		return t.Secret, nil
	}, opts...)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.ID == "" {
		return nil, ErrInvalidToken
	}
	if _, err := claims.UserID(); err != nil {
		return nil, err
	}
	return claims, nil
}

// Remaining returns how long the token stays valid after now, never negative.
func (c *SessionClaims) Remaining(now time.Time) time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	d := c.ExpiresAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}
