package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/booking-service/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("test-secret", 30)

	token, exp, err := tm.GenerateToken("user-1", domain.RoleProvider)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), exp, time.Minute)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.SubjectID)
	assert.Equal(t, domain.RoleProvider, claims.Role)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	tm := NewTokenManager("secret-a", 30)
	token, _, err := tm.GenerateToken("user-1", domain.RoleRequester)
	require.NoError(t, err)

	other := NewTokenManager("secret-b", 30)
	_, err = other.ParseToken(token)
	assert.Error(t, err)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	tm := NewTokenManager("secret", 30)
	_, err := tm.ParseToken("not-a-token")
	assert.Error(t, err)
}
