// Package apptest starts the full application on the in-memory store for
// end-to-end tests.
package apptest

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"quill/internal/app"
	"quill/internal/config"
	"quill/internal/domain/models"
	"quill/internal/lib/jwt"
	"quill/internal/repository/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const JWTSecret = "test-jwt-secret"

type Suite struct {
	*testing.T
	Cfg    *config.Config
	DB     *memory.Database
	App    *app.App
	Server *httptest.Server
}

func New(t *testing.T) (context.Context, *Suite) {
	t.Helper()

	cfg := &config.Config{
		Env:     "local",
		Storage: config.StorageMemory,
		HTTP:    config.HTTPConfig{ShutdownTimeout: time.Second},
		Auth:    config.AuthConfig{JWTSecret: JWTSecret, SessionSecret: "test-session-secret"},
		Listing: config.ListingConfig{DefaultLimit: 12, MaxLimit: 100, RelatedLimit: 3},
		Views:   config.ViewsConfig{Workers: 2, QueueSize: 64, Timeout: time.Second},
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	db := memory.New()

	application := app.NewWithStores(log, cfg, app.Stores{
		Posts:    db.Posts(),
		Comments: db.Comments(),
		Saved:    db.Saved(),
	})
	server := httptest.NewServer(application.HTTPServer)

	ctx, cancelCtx := context.WithTimeout(context.Background(), time.Minute)

	t.Cleanup(func() {
		t.Helper()
		cancelCtx()
		server.Close()
		application.Stop()
	})

	return ctx, &Suite{
		T:      t,
		Cfg:    cfg,
		DB:     db,
		App:    application,
		Server: server,
	}
}

// User registers a reader in the store and returns a bearer token for it.
func (s *Suite) User(name string, role models.Role) (models.Author, string) {
	s.Helper()

	author := models.Author{ID: uuid.New(), Name: name, Role: role}
	s.DB.PutUser(author)

	token, err := jwt.NewToken(models.Identity{UserID: author.ID, Role: role}, JWTSecret, time.Hour)
	require.NoError(s.T, err)

	return author, token
}
