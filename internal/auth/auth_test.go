package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/vytor/learncert/internal/errors"
)

func newTestAuth(t *testing.T, password string) *AdminAuth {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return NewAdminAuth(string(hash), "0123456789abcdef0123", time.Hour)
}

func TestAdminAuth_LoginAndVerify(t *testing.T) {
	a := newTestAuth(t, "s3cret")

	token, expires, err := a.Login("s3cret")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, 5*time.Second)

	claims, err := a.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Role)
}

func TestAdminAuth_WrongPassword(t *testing.T) {
	a := newTestAuth(t, "s3cret")

	_, _, err := a.Login("nope")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeUnauthorized, errors.AsAppError(err).Code)
}

func TestAdminAuth_Disabled(t *testing.T) {
	a := NewAdminAuth("", "0123456789abcdef0123", time.Hour)
	assert.False(t, a.Enabled())

	_, _, err := a.Login("")
	assert.Error(t, err)
}

func TestAdminAuth_ExpiredToken(t *testing.T) {
	a := newTestAuth(t, "s3cret")
	a.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err := a.Issue()
	require.NoError(t, err)

	a.now = time.Now
	_, err = a.Verify(token)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expired")
}

func TestAdminAuth_RejectsForeignSecret(t *testing.T) {
	a := newTestAuth(t, "s3cret")
	other := NewAdminAuth("", "another-secret-value-xyz", time.Hour)
	token, _, err := other.Issue()
	require.NoError(t, err)

	_, err = a.Verify(token)
	assert.Error(t, err)
	_, err = a.Verify("not-a-token")
	assert.Error(t, err)
}
