package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"quill/internal/domain/models"
	"quill/internal/lib/logger/sl"
	"quill/internal/metrics"
	"quill/internal/repository"
	"quill/internal/storage"

	"github.com/google/uuid"
)

type EngagementService struct {
	log   *slog.Logger
	posts repository.PostRepository
	saved repository.SavedRepository
	now   func() time.Time
}

func NewEngagementService(log *slog.Logger, posts repository.PostRepository, saved repository.SavedRepository) *EngagementService {
	return &EngagementService{
		log:   log,
		posts: posts,
		saved: saved,
		now:   time.Now,
	}
}

// visiblePost loads a post readers may interact with. Drafts and scheduled
// posts are reported as missing.
func (s *EngagementService) visiblePost(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	post, err := s.posts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !post.IsVisible(s.now()) {
		return nil, storage.ErrPostNotFound
	}
	return post, nil
}

func (s *EngagementService) ToggleLike(ctx context.Context, postID uuid.UUID, who models.Identity) (models.LikeState, error) {
	const op = "engagement_service.ToggleLike"
	log := s.log.With(
		slog.String("op", op),
		slog.String("post_id", postID.String()),
	)

	if who.IsAnonymous() {
		return models.LikeState{}, fmt.Errorf("%s: %w", op, models.ErrUnauthorized)
	}

	if _, err := s.visiblePost(ctx, postID); err != nil {
		if !errors.Is(err, storage.ErrPostNotFound) {
			log.Error("failed to load post", sl.Err(err))
		}
		return models.LikeState{}, fmt.Errorf("%s: %w", op, err)
	}

	state, err := s.posts.ToggleLike(ctx, postID, who.UserID)
	if err != nil {
		log.Error("failed to toggle like", sl.Err(err))
		return models.LikeState{}, fmt.Errorf("%s: %w", op, err)
	}

	metrics.LikeToggles.WithLabelValues("post", metrics.State(state.Liked)).Inc()
	log.Debug("like toggled", slog.Bool("liked", state.Liked), slog.Int("count", state.Count))

	return state, nil
}

func (s *EngagementService) ToggleSave(ctx context.Context, postID uuid.UUID, who models.Identity) (bool, error) {
	const op = "engagement_service.ToggleSave"
	log := s.log.With(
		slog.String("op", op),
		slog.String("post_id", postID.String()),
	)

	if who.IsAnonymous() {
		return false, fmt.Errorf("%s: %w", op, models.ErrUnauthorized)
	}

	if _, err := s.visiblePost(ctx, postID); err != nil {
		if !errors.Is(err, storage.ErrPostNotFound) {
			log.Error("failed to load post", sl.Err(err))
		}
		return false, fmt.Errorf("%s: %w", op, err)
	}

	saved, err := s.saved.Toggle(ctx, who.UserID, postID)
	if err != nil {
		log.Error("failed to toggle save", sl.Err(err))
		return false, fmt.Errorf("%s: %w", op, err)
	}

	metrics.SaveToggles.WithLabelValues(metrics.State(saved)).Inc()

	return saved, nil
}

// Membership reports whether the caller liked and saved the post. Anonymous
// callers get false for both without touching storage.
func (s *EngagementService) Membership(ctx context.Context, postID uuid.UUID, who models.Identity) (liked, saved bool, err error) {
	const op = "engagement_service.Membership"

	if who.IsAnonymous() {
		return false, false, nil
	}

	liked, err = s.posts.IsLiked(ctx, postID, who.UserID)
	if err != nil {
		return false, false, fmt.Errorf("%s: %w", op, err)
	}

	saved, err = s.saved.IsSaved(ctx, who.UserID, postID)
	if err != nil {
		return false, false, fmt.Errorf("%s: %w", op, err)
	}

	return liked, saved, nil
}
