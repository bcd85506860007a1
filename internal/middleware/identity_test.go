package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"quill/internal/domain/models"
	"quill/internal/lib/jwt"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func newEcho() *echo.Echo {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	e := echo.New()
	e.Use(session.Middleware(sessions.NewCookieStore([]byte("session-secret"))))
	e.Use(Identity(log, secret))

	e.GET("/whoami", func(c echo.Context) error {
		return c.String(http.StatusOK, IdentityFrom(c).UserID.String())
	})
	e.GET("/private", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	}, RequireIdentity)
	e.POST("/login/:id", func(c echo.Context) error {
		sess, err := session.Get(SessionName, c)
		if err != nil {
			return err
		}
		sess.Values["user_id"] = c.Param("id")
		sess.Values["role"] = string(models.RoleAdmin)
		if err := sess.Save(c.Request(), c.Response()); err != nil {
			return err
		}
		return c.NoContent(http.StatusNoContent)
	})

	return e
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestIdentity_Bearer(t *testing.T) {
	e := newEcho()
	who := models.Identity{UserID: uuid.New(), Role: models.RoleUser}

	token, err := jwt.NewToken(who, secret, time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	rec := serve(e, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, who.UserID.String(), rec.Body.String())
}

func TestIdentity_BadBearer(t *testing.T) {
	e := newEcho()

	for _, header := range []string{"Bearer nope", "Basic abc"} {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set(echo.HeaderAuthorization, header)
		rec := serve(e, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code, header)
	}
}

func TestIdentity_Anonymous(t *testing.T) {
	e := newEcho()

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/whoami", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uuid.Nil.String(), rec.Body.String())

	rec = serve(e, httptest.NewRequest(http.MethodGet, "/private", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestIdentity_Session(t *testing.T) {
	e := newEcho()
	id := uuid.New()

	login := serve(e, httptest.NewRequest(http.MethodPost, "/login/"+id.String(), nil))
	require.Equal(t, http.StatusNoContent, login.Code)
	cookies := login.Result().Cookies()
	require.NotEmpty(t, cookies)

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := serve(e, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
