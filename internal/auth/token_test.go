package auth

import (
	"strings"
	"testing"
	"time"

	"homestead/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-at-least-32-characters-long"

func newTestIssuer(now time.Time) *TokenIssuer {
	ti := NewTokenIssuer(testSecret, "homestead-api", "homestead-app", time.Hour)
	ti.now = func() time.Time { return now }
	return ti
}

var sara = models.Identity{ID: 7, Name: "Sara", Email: "sara@example.com", Role: models.RoleAdmin}

func TestTokenIssuer_RoundTrip(t *testing.T) {
	now := time.Now()
	ti := newTestIssuer(now)

	token, issued, err := ti.Issue(sara)
	require.NoError(t, err)
	require.NotEmpty(t, issued.ID)

	claims, err := ti.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "7", claims.Subject)
	assert.Equal(t, issued.ID, claims.ID)

	id, err := claims.Identity()
	require.NoError(t, err)
	assert.Equal(t, sara, id)
	assert.Equal(t, time.Hour, claims.Remaining(now.Truncate(time.Second)))
}

func TestTokenIssuer_UniqueJTI(t *testing.T) {
	ti := newTestIssuer(time.Now())
	_, a, err := ti.Issue(sara)
	require.NoError(t, err)
	_, b, err := ti.Issue(sara)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestTokenIssuer_RejectsExpired(t *testing.T) {
	issuedAt := time.Now().Add(-2 * time.Hour)
	token, _, err := newTestIssuer(issuedAt).Issue(sara)
	require.NoError(t, err)

	_, err = newTestIssuer(time.Now()).Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuer_RejectsTampering(t *testing.T) {
	ti := newTestIssuer(time.Now())
	token, _, err := ti.Issue(sara)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	forged := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))
	_, err = ti.Parse(forged)
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := NewTokenIssuer("another-secret-of-sufficient-length!!", "homestead-api", "homestead-app", time.Hour)
	_, err = other.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuer_RejectsWrongAudienceAndIssuer(t *testing.T) {
	token, _, err := newTestIssuer(time.Now()).Issue(sara)
	require.NoError(t, err)

	wrongAud := NewTokenIssuer(testSecret, "homestead-api", "someone-else", time.Hour)
	_, err = wrongAud.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	wrongIss := NewTokenIssuer(testSecret, "other-api", "homestead-app", time.Hour)
	_, err = wrongIss.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuer_RejectsNoneAlgorithm(t *testing.T) {
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "7",
			ID:        "jti",
			Issuer:    "homestead-api",
			Audience:  jwt.ClaimStrings{"homestead-app"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role: models.RoleAdmin,
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = newTestIssuer(time.Now()).Parse(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuer_IssueRequiresSecretAndUser(t *testing.T) {
	_, _, err := NewTokenIssuer("", "i", "a", time.Hour).Issue(sara)
	assert.Error(t, err)

	_, _, err = newTestIssuer(time.Now()).Issue(models.Identity{Email: "x@example.com"})
	assert.Error(t, err)

	_, err = newTestIssuer(time.Now()).Parse("")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
