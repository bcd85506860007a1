package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"quill/internal/domain/models"
	"quill/internal/lib/jwt"
	"quill/internal/transport/http/dto/response"

	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
)

const (
	SessionName = "session"
	identityKey = "identity"
)

// Identity resolves the caller from a bearer token or, failing that, from the
// session cookie. Requests without either continue anonymously; a bearer
// token that does not verify is rejected.
func Identity(log *slog.Logger, secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			const op = "middleware.Identity"

			if header := c.Request().Header.Get(echo.HeaderAuthorization); header != "" {
				token, ok := strings.CutPrefix(header, "Bearer ")
				if !ok {
					return c.JSON(http.StatusUnauthorized, response.ErrorResponseWithDetails("unauthorized", "bearer token expected"))
				}

				who, err := jwt.ParseToken(strings.TrimSpace(token), secret)
				if err != nil {
					log.Debug("token rejected", slog.String("op", op), slog.String("error", err.Error()))
					return c.JSON(http.StatusUnauthorized, response.ErrorResponseWithDetails("unauthorized", err.Error()))
				}

				c.Set(identityKey, who)
				return next(c)
			}

			if who, ok := fromSession(c); ok {
				c.Set(identityKey, who)
			}

			return next(c)
		}
	}
}

func fromSession(c echo.Context) (models.Identity, bool) {
	sess, err := session.Get(SessionName, c)
	if err != nil {
		return models.Identity{}, false
	}

	raw, ok := sess.Values["user_id"].(string)
	if !ok || raw == "" {
		return models.Identity{}, false
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return models.Identity{}, false
	}

	role := models.RoleUser
	if r, _ := sess.Values["role"].(string); models.Role(r) == models.RoleAdmin {
		role = models.RoleAdmin
	}

	return models.Identity{UserID: userID, Role: role}, true
}

// RequireIdentity rejects anonymous callers with 401.
func RequireIdentity(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if IdentityFrom(c).IsAnonymous() {
			return c.JSON(http.StatusUnauthorized, response.ErrorResponseWithDetails("unauthorized", "authentication required"))
		}
		return next(c)
	}
}

// IdentityFrom returns the caller, or the zero Identity for anonymous requests.
func IdentityFrom(c echo.Context) models.Identity {
	who, _ := c.Get(identityKey).(models.Identity)
	return who
}
