package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "0123456789-secret"

func TestAccessTokenRoundTrip(t *testing.T) {
	at, err := NewAccessToken(secret, 42, "admin", time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), at.Exp, 5*time.Second)

	claims, err := ParseAccessToken(secret, at.Token)
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.EqualValues(t, 42, id)
	assert.Equal(t, "admin", claims.Role)
}

func TestParseAccessToken_Rejects(t *testing.T) {
	expired, err := NewAccessToken(secret, 1, "user", -time.Minute)
	require.NoError(t, err)
	_, err = ParseAccessToken(secret, expired.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	good, err := NewAccessToken(secret, 1, "user", time.Minute)
	require.NoError(t, err)
	_, err = ParseAccessToken("another-secret-value", good.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "1", "exp": time.Now().Add(time.Hour).Unix()}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = ParseAccessToken(secret, none)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPassword(t *testing.T) {
	_, err := HashPassword("abc", 4)
	assert.ErrorIs(t, err, ErrPasswordTooShort)

	hash, err := HashPassword("rahasia", 4)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$2"))
	assert.True(t, VerifyPassword(hash, "rahasia"))
	assert.False(t, VerifyPassword(hash, "wrong-one"))
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "ruang-rapat-3", Slugify("Ruang Rapat 3"))
	assert.Equal(t, "lab-komputer-gku", Slugify("Lab. Komputer -- GKU!"))
}
