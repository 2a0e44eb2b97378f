package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/barber-marketplace/internal/models"
)

func newService(now time.Time) *TokenService {
	s := NewTokenService("test-secret", 30*time.Minute, 7*24*time.Hour)
	s.now = func() time.Time { return now }
	return s
}

func TestIssueAndParse(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := newService(now)

	pair, err := s.Issue(&models.User{ID: 42, Email: "b@example.com", IsBarber: true})
	require.NoError(t, err)
	assert.Equal(t, "bearer", pair.TokenType)
	assert.Equal(t, 1800, pair.ExpiresIn)

	claims, err := s.Parse(pair.AccessToken, TypeAccess)
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)
	assert.True(t, claims.IsBarber)
	assert.Equal(t, "b@example.com", claims.Email)

	_, err = s.Parse(pair.RefreshToken, TypeRefresh)
	assert.NoError(t, err)
}

func TestParse_RejectsWrongType(t *testing.T) {
	s := newService(time.Now())
	pair, err := s.Issue(&models.User{ID: 1})
	require.NoError(t, err)

	_, err = s.Parse(pair.RefreshToken, TypeAccess)
	assert.ErrorIs(t, err, ErrWrongType)

	_, err = s.Parse(pair.AccessToken, TypeRefresh)
	assert.ErrorIs(t, err, ErrWrongType)
}

func TestParse_RejectsExpired(t *testing.T) {
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := newService(issued)
	pair, err := s.Issue(&models.User{ID: 1})
	require.NoError(t, err)

	s.now = func() time.Time { return issued.Add(31 * time.Minute) }
	_, err = s.Parse(pair.AccessToken, TypeAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = s.Parse(pair.RefreshToken, TypeRefresh)
	assert.NoError(t, err, "refresh outlives access")
}

func TestParse_RejectsForeignSignature(t *testing.T) {
	s := newService(time.Now())
	other := NewTokenService("other-secret", time.Hour, time.Hour)
	pair, err := other.Issue(&models.User{ID: 1})
	require.NoError(t, err)

	_, err = s.Parse(pair.AccessToken, TypeAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParse_RejectsNoneAlgorithm(t *testing.T) {
	s := newService(time.Now())
	token := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		Type:             TypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "1"},
	})
	raw, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = s.Parse(raw, TypeAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestClaimsUserID_Invalid(t *testing.T) {
	for _, sub := range []string{"", "0", "abc", "-1"} {
		c := &Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: sub}}
		_, err := c.UserID()
		assert.ErrorIs(t, err, ErrInvalidToken, sub)
	}
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", hash)
	assert.True(t, CheckPassword(hash, "s3cret-pass"))
	assert.False(t, CheckPassword(hash, "wrong"))
}
