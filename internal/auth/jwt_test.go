package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTM() *TokenManager {
	return NewTokenManager("test-secret", "crm-backend", 15*time.Minute, 24*time.Hour)
}

func TestGeneratePairAndParse(t *testing.T) {
	tm := testTM()
	access, refresh, exp, err := tm.GeneratePair("u1", "u1@example.com", "t1", []string{"sales"})
	require.NoError(t, err)
	assert.NotEqual(t, access, refresh)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), exp, time.Minute)

	claims, err := tm.ParseAccess(access)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "u1@example.com", claims.Email)
	assert.Equal(t, "t1", claims.TenantID)
	assert.Equal(t, []string{"sales"}, claims.Roles)
	assert.Equal(t, "access", claims.Type)

	rClaims, err := tm.ParseRefresh(refresh)
	require.NoError(t, err)
	assert.Equal(t, "refresh", rClaims.Type)
	assert.Equal(t, "u1", rClaims.UserID)
}

func TestParseRejectsWrongTokenType(t *testing.T) {
	tm := testTM()
	access, refresh, _, err := tm.GeneratePair("u1", "u1@example.com", "t1", nil)
	require.NoError(t, err)

	_, err = tm.ParseAccess(refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = tm.ParseRefresh(access)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsForeignSecretAndIssuer(t *testing.T) {
	tm := testTM()
	other := NewTokenManager("other-secret", "crm-backend", time.Minute, time.Hour)
	wrongIssuer := NewTokenManager("test-secret", "someone-else", time.Minute, time.Hour)

	access, _, _, err := other.GeneratePair("u1", "e", "t1", nil)
	require.NoError(t, err)
	_, err = tm.ParseAccess(access)
	assert.ErrorIs(t, err, ErrInvalidToken)

	access, _, _, err = wrongIssuer.GeneratePair("u1", "e", "t1", nil)
	require.NoError(t, err)
	_, err = tm.ParseAccess(access)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsExpired(t *testing.T) {
	tm := NewTokenManager("test-secret", "crm-backend", -time.Minute, -time.Minute)
	access, _, _, err := tm.GeneratePair("u1", "e", "t1", nil)
	require.NoError(t, err)

	_, err = tm.ParseAccess(access)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := testTM().ParseAccess("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
