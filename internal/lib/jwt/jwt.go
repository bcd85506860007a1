package jwt

import (
	"errors"
	"fmt"
	"time"

	"quill/internal/domain/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidTokenClaims = errors.New("invalid token claims")
	ErrTokenExpired       = errors.New("token expired")
)

// NewToken signs an HS256 token carrying the identity. Issuing tokens belongs
// to the identity provider; this exists for local tooling and tests.
func NewToken(who models.Identity, secret string, duration time.Duration) (string, error) {
	now := time.Now()

	token := jwt.New(jwt.SigningMethodHS256)
	claims := token.Claims.(jwt.MapClaims)
	claims["uid"] = who.UserID.String()
	claims["role"] = string(who.Role)
	claims["iat"] = now.Unix()
	claims["exp"] = now.Add(duration).Unix()

	return token.SignedString([]byte(secret))
}

// ParseToken verifies an HS256 token and extracts the identity it carries.
func ParseToken(tokenString, secret string) (models.Identity, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return models.Identity{}, ErrTokenExpired
		}
		return models.Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return models.Identity{}, ErrInvalidTokenClaims
	}

	raw, ok := claims["uid"].(string)
	if !ok {
		return models.Identity{}, ErrInvalidTokenClaims
	}
	userID, err := uuid.Parse(raw)
	if err != nil || userID == uuid.Nil {
		return models.Identity{}, ErrInvalidTokenClaims
	}

	role := models.RoleUser
	if r, _ := claims["role"].(string); models.Role(r) == models.RoleAdmin {
		role = models.RoleAdmin
	}

	return models.Identity{UserID: userID, Role: role}, nil
}
