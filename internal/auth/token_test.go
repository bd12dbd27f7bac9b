package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager() *TokenManager {
	return NewTokenManager("test-secret", 5*time.Minute, time.Hour)
}

func TestTokenManager_AccessRoundTrip(t *testing.T) {
	m := newTestManager()

	token, err := m.IssueAccess(42)
	require.NoError(t, err)

	claims, err := m.Parse(token, TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "42", claims.Subject)
	assert.NotEmpty(t, claims.ID)
}

func TestTokenManager_WrongType(t *testing.T) {
	m := newTestManager()

	refresh, err := m.IssueRefresh(1)
	require.NoError(t, err)

	_, err = m.Parse(refresh, TokenTypeAccess)
	assert.ErrorIs(t, err, ErrWrongTokenType)

	// Без указания типа токен проходит проверку
	_, err = m.Parse(refresh, "")
	assert.NoError(t, err)
}

func TestTokenManager_Expired(t *testing.T) {
	m := newTestManager()
	m.now = func() time.Time { return time.Now().Add(-time.Hour) }

	token, err := m.IssueAccess(1)
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.Parse(token, TokenTypeAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenManager_WrongSecret(t *testing.T) {
	token, err := newTestManager().IssueAccess(1)
	require.NoError(t, err)

	other := NewTokenManager("other-secret", time.Minute, time.Minute)
	_, err = other.Parse(token, TokenTypeAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenManager_RejectsNoneAlgorithm(t *testing.T) {
	claims := Claims{
		UserID:    1,
		TokenType: TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = newTestManager().Parse(token, TokenTypeAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenManager_Garbage(t *testing.T) {
	_, err := newTestManager().Parse("not-a-token", "")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
