package jwt

import (
	"testing"
	"time"

	"quill/internal/domain/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func TestNewToken_RoundTrip(t *testing.T) {
	who := models.Identity{UserID: uuid.New(), Role: models.RoleAdmin}

	token, err := NewToken(who, secret, time.Minute)
	require.NoError(t, err)

	got, err := ParseToken(token, secret)
	require.NoError(t, err)
	assert.Equal(t, who, got)
}

func TestParseToken_Rejects(t *testing.T) {
	who := models.Identity{UserID: uuid.New(), Role: models.RoleUser}

	expired, err := NewToken(who, secret, -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken(expired, secret)
	assert.ErrorIs(t, err, ErrTokenExpired)

	valid, err := NewToken(who, secret, time.Minute)
	require.NoError(t, err)
	_, err = ParseToken(valid, "other-secret")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ParseToken("garbage", secret)
	assert.ErrorIs(t, err, ErrInvalidToken)

	noUID := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Minute).Unix(),
	})
	signed, err := noUID.SignedString([]byte(secret))
	require.NoError(t, err)
	_, err = ParseToken(signed, secret)
	assert.ErrorIs(t, err, ErrInvalidTokenClaims)
}

func TestParseToken_UnknownRoleIsUser(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"uid":  uuid.NewString(),
		"role": "superuser",
		"exp":  time.Now().Add(time.Minute).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)

	who, err := ParseToken(signed, secret)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, who.Role)
}
