package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"quill/internal/domain/models"
	"quill/internal/repository/memory"
	"quill/internal/storage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSavedRepository struct {
	mock.Mock
}

func (m *MockSavedRepository) Toggle(ctx context.Context, userID, postID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID, postID)
	return args.Bool(0), args.Error(1)
}

func (m *MockSavedRepository) IsSaved(ctx context.Context, userID, postID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID, postID)
	return args.Bool(0), args.Error(1)
}

func (m *MockSavedRepository) List(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

var ctx = context.Background()

func seed(t *testing.T, db *memory.Database, status models.PostStatus, publishedAt time.Time) uuid.UUID {
	t.Helper()

	post := models.Post{
		Title:    "post",
		Slug:     uuid.NewString(),
		AuthorID: uuid.New(),
		Status:   status,
	}
	if status == models.StatusPublished {
		post.PublishedAt = &publishedAt
	}

	id, err := db.Posts().Create(ctx, post)
	require.NoError(t, err)
	return id
}

func TestEngagementService_ToggleLike(t *testing.T) {
	db := memory.New()
	svc := NewEngagementService(discard, db.Posts(), db.Saved())
	postID := seed(t, db, models.StatusPublished, time.Now().Add(-time.Hour))
	who := models.Identity{UserID: uuid.New(), Role: models.RoleUser}

	state, err := svc.ToggleLike(ctx, postID, who)
	require.NoError(t, err)
	assert.Equal(t, models.LikeState{Liked: true, Count: 1}, state)

	state, err = svc.ToggleLike(ctx, postID, who)
	require.NoError(t, err)
	assert.Equal(t, models.LikeState{Liked: false, Count: 0}, state)
}

func TestEngagementService_ToggleLikeRejects(t *testing.T) {
	db := memory.New()
	svc := NewEngagementService(discard, db.Posts(), db.Saved())
	who := models.Identity{UserID: uuid.New()}

	published := seed(t, db, models.StatusPublished, time.Now().Add(-time.Hour))
	draft := seed(t, db, models.StatusDraft, time.Time{})
	scheduled := seed(t, db, models.StatusPublished, time.Now().Add(time.Hour))

	tests := []struct {
		name string
		id   uuid.UUID
		who  models.Identity
		want error
	}{
		{name: "anonymous", id: published, who: models.Identity{}, want: models.ErrUnauthorized},
		{name: "unknown post", id: uuid.New(), who: who, want: storage.ErrPostNotFound},
		{name: "draft", id: draft, who: who, want: storage.ErrPostNotFound},
		{name: "scheduled", id: scheduled, who: who, want: storage.ErrPostNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ToggleLike(ctx, tt.id, tt.who)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestEngagementService_ToggleSave(t *testing.T) {
	db := memory.New()
	svc := NewEngagementService(discard, db.Posts(), db.Saved())
	postID := seed(t, db, models.StatusPublished, time.Now().Add(-time.Hour))
	who := models.Identity{UserID: uuid.New()}

	saved, err := svc.ToggleSave(ctx, postID, who)
	require.NoError(t, err)
	assert.True(t, saved)

	liked, isSaved, err := svc.Membership(ctx, postID, who)
	require.NoError(t, err)
	assert.False(t, liked)
	assert.True(t, isSaved)

	saved, err = svc.ToggleSave(ctx, postID, who)
	require.NoError(t, err)
	assert.False(t, saved)

	_, err = svc.ToggleSave(ctx, postID, models.Identity{})
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestEngagementService_ToggleSaveStorageFailure(t *testing.T) {
	db := memory.New()
	saved := new(MockSavedRepository)
	svc := NewEngagementService(discard, db.Posts(), saved)
	postID := seed(t, db, models.StatusPublished, time.Now().Add(-time.Hour))
	who := models.Identity{UserID: uuid.New()}

	boom := errors.New("redis: connection refused")
	saved.On("Toggle", mock.Anything, who.UserID, postID).Return(false, boom)

	_, err := svc.ToggleSave(ctx, postID, who)
	assert.ErrorIs(t, err, boom)
	saved.AssertExpectations(t)
}

func TestEngagementService_MembershipAnonymous(t *testing.T) {
	saved := new(MockSavedRepository)
	svc := NewEngagementService(discard, memory.New().Posts(), saved)

	liked, isSaved, err := svc.Membership(ctx, uuid.New(), models.Identity{})
	require.NoError(t, err)
	assert.False(t, liked)
	assert.False(t, isSaved)
	saved.AssertNotCalled(t, "IsSaved", mock.Anything, mock.Anything, mock.Anything)
}
