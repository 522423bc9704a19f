package identity

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenVerifier_RoundTrip(t *testing.T) {
	v := NewTokenVerifier("test-secret", "lumina")

	token, err := v.Issue(User{ID: "user-1", Role: "INSTRUCTOR", Email: "i@example.com"}, time.Hour)
	require.NoError(t, err)

	user, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.ID)
	assert.Equal(t, "INSTRUCTOR", user.Role)
	assert.Equal(t, "i@example.com", user.Email)
}

func TestTokenVerifier_RejectsWrongSecret(t *testing.T) {
	issuer := NewTokenVerifier("secret-a", "lumina")
	verifier := NewTokenVerifier("secret-b", "lumina")

	token, err := issuer.Issue(User{ID: "user-1", Role: "STUDENT"}, time.Hour)
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestTokenVerifier_RejectsExpired(t *testing.T) {
	v := NewTokenVerifier("test-secret", "lumina")
	v.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, err := v.Issue(User{ID: "user-1", Role: "STUDENT"}, time.Hour)
	require.NoError(t, err)

	v.now = time.Now
	_, err = v.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenVerifier_RejectsWrongIssuer(t *testing.T) {
	token, err := NewTokenVerifier("s", "someone-else").Issue(User{ID: "u", Role: "ADMIN"}, time.Hour)
	require.NoError(t, err)

	_, err = NewTokenVerifier("s", "lumina").Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenVerifier_RequiresRole(t *testing.T) {
	v := NewTokenVerifier("s", "lumina")
	token, err := v.Issue(User{ID: "u"}, time.Hour)
	require.NoError(t, err)

	_, err = v.Verify(token)
	assert.ErrorIs(t, err, ErrMissingRole)
}

func TestUser_IsAnonymous(t *testing.T) {
	assert.True(t, User{}.IsAnonymous())
	assert.False(t, User{ID: "u"}.IsAnonymous())
}
