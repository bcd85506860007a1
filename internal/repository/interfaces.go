package repository

import (
	"context"
	"time"

	"quill/internal/domain/models"
	"quill/internal/query"

	"github.com/google/uuid"
)

type PostRepository interface {
	Find(ctx context.Context, f query.Filter, s query.Sort, skip, limit int) ([]models.Post, error)
	Count(ctx context.Context, f query.Filter) (int, error)
	FindBySlug(ctx context.Context, slug string) (*models.Post, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Post, error)
	Create(ctx context.Context, post models.Post) (uuid.UUID, error)
	Update(ctx context.Context, id uuid.UUID, patch models.PostPatch) error
	SetStatus(ctx context.Context, id uuid.UUID, status models.PostStatus, at time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
	IncrementViews(ctx context.Context, id uuid.UUID) error
	ToggleLike(ctx context.Context, id, userID uuid.UUID) (models.LikeState, error)
	IsLiked(ctx context.Context, id, userID uuid.UUID) (bool, error)
	Categories(ctx context.Context, f query.Filter) ([]models.Facet, error)
	Tags(ctx context.Context, f query.Filter) ([]models.Facet, error)
}

type CommentRepository interface {
	FindByPost(ctx context.Context, postID uuid.UUID) ([]models.Comment, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Comment, error)
	Create(ctx context.Context, comment models.Comment) (*models.Comment, error)
	Count(ctx context.Context, postID uuid.UUID) (int, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ToggleLike(ctx context.Context, id, userID uuid.UUID) (models.LikeState, error)
}

// SavedRepository owns each user's set of saved post ids.
type SavedRepository interface {
	Toggle(ctx context.Context, userID, postID uuid.UUID) (bool, error)
	IsSaved(ctx context.Context, userID, postID uuid.UUID) (bool, error)
	List(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}
