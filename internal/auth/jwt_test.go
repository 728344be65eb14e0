package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attendtrack/internal/model"
)

const testKey = "test-signing-key-0123456789"

func TestIssueAndParse(t *testing.T) {
	m := NewManager(testKey, "attendtrack", time.Hour)

	tok, err := m.Issue("user-1", model.RoleAdmin)
	require.NoError(t, err)
	assert.NotEmpty(t, tok.ID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), tok.ExpiresAt, 5*time.Second)

	claims, err := m.Parse(tok.Value)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, model.RoleAdmin, claims.Role)
	assert.Equal(t, tok.ID, claims.ID)
}

func TestIssueUsesFreshTokenIDs(t *testing.T) {
	m := NewManager(testKey, "attendtrack", time.Hour)
	a, err := m.Issue("user-1", model.RoleMember)
	require.NoError(t, err)
	b, err := m.Issue("user-1", model.RoleMember)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestParseRejects(t *testing.T) {
	m := NewManager(testKey, "attendtrack", time.Hour)
	good, err := m.Issue("user-1", model.RoleMember)
	require.NoError(t, err)

	t.Run("wrong key", func(t *testing.T) {
		other := NewManager("another-signing-key-987654", "attendtrack", time.Hour)
		_, err := other.Parse(good.Value)
		assert.Error(t, err)
	})

	t.Run("issuer mismatch", func(t *testing.T) {
		other := NewManager(testKey, "someone-else", time.Hour)
		_, err := other.Parse(good.Value)
		assert.ErrorContains(t, err, "issuer")
	})

	t.Run("expired", func(t *testing.T) {
		expired := NewManager(testKey, "attendtrack", time.Hour)
		expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		tok, err := expired.Issue("user-1", model.RoleMember)
		require.NoError(t, err)
		_, err = m.Parse(tok.Value)
		assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := m.Parse("not.a.jwt")
		assert.Error(t, err)
	})

	t.Run("other algorithm", func(t *testing.T) {
		claims := Claims{Role: model.RoleAdmin, RegisteredClaims: jwt.RegisteredClaims{
			ID: "x", Subject: "user-1", Issuer: "attendtrack",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testKey))
		require.NoError(t, err)
		_, err = m.Parse(signed)
		assert.Error(t, err)
	})
}
