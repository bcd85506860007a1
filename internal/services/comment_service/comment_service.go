package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"quill/internal/domain/models"
	"quill/internal/lib/logger/sl"
	"quill/internal/metrics"
	"quill/internal/repository"
	"quill/internal/storage"

	"github.com/google/uuid"
)

const MaxContentLength = 5000

type CommentService struct {
	log      *slog.Logger
	posts    repository.PostRepository
	comments repository.CommentRepository
	now      func() time.Time
}

func NewCommentService(log *slog.Logger, posts repository.PostRepository, comments repository.CommentRepository) *CommentService {
	return &CommentService{
		log:      log,
		posts:    posts,
		comments: comments,
		now:      time.Now,
	}
}

func (s *CommentService) requireVisible(ctx context.Context, postID uuid.UUID) error {
	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return err
	}
	if !post.IsVisible(s.now()) {
		return storage.ErrPostNotFound
	}
	return nil
}

// Tree returns the threaded comments of a published post.
func (s *CommentService) Tree(ctx context.Context, postID uuid.UUID) ([]models.CommentNode, error) {
	const op = "comment_service.Tree"
	log := s.log.With(
		slog.String("op", op),
		slog.String("post_id", postID.String()),
	)

	if err := s.requireVisible(ctx, postID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	comments, err := s.comments.FindByPost(ctx, postID)
	if err != nil {
		log.Error("failed to load comments", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return BuildTree(comments), nil
}

// Create adds a comment, or a reply when parentID is set, to a published post.
func (s *CommentService) Create(ctx context.Context, postID uuid.UUID, who models.Identity, content string, parentID *uuid.UUID) (*models.Comment, error) {
	const op = "comment_service.Create"
	log := s.log.With(
		slog.String("op", op),
		slog.String("post_id", postID.String()),
	)

	if who.IsAnonymous() {
		return nil, fmt.Errorf("%s: %w", op, models.ErrUnauthorized)
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%s: comment is empty: %w", op, models.ErrInvalidInput)
	}
	if utf8.RuneCountInString(content) > MaxContentLength {
		return nil, fmt.Errorf("%s: comment exceeds %d characters: %w", op, MaxContentLength, models.ErrInvalidInput)
	}

	if err := s.requireVisible(ctx, postID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if parentID != nil {
		parent, err := s.comments.FindByID(ctx, *parentID)
		if err != nil {
			if errors.Is(err, storage.ErrCommentNotFound) {
				return nil, fmt.Errorf("%s: %w", op, models.ErrParentNotFound)
			}
			log.Error("failed to load parent comment", sl.Err(err))
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if parent.PostID != postID {
			return nil, fmt.Errorf("%s: %w", op, models.ErrParentNotFound)
		}
	}

	comment, err := s.comments.Create(ctx, models.Comment{
		PostID:   postID,
		AuthorID: who.UserID,
		Content:  content,
		ParentID: parentID,
	})
	if err != nil {
		// the parent may have been deleted since it was checked
		if parentID != nil && errors.Is(err, storage.ErrCommentNotFound) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrParentNotFound)
		}
		log.Error("failed to create comment", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	metrics.CommentsCreated.Inc()
	log.Info("comment created", slog.String("comment_id", comment.ID.String()))

	return comment, nil
}

// ToggleLike flips the caller's like on a comment of a visible post.
func (s *CommentService) ToggleLike(ctx context.Context, commentID uuid.UUID, who models.Identity) (models.LikeState, error) {
	const op = "comment_service.ToggleLike"

	if who.IsAnonymous() {
		return models.LikeState{}, fmt.Errorf("%s: %w", op, models.ErrUnauthorized)
	}

	comment, err := s.comments.FindByID(ctx, commentID)
	if err != nil {
		return models.LikeState{}, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.requireVisible(ctx, comment.PostID); err != nil {
		return models.LikeState{}, fmt.Errorf("%s: %w", op, err)
	}

	state, err := s.comments.ToggleLike(ctx, commentID, who.UserID)
	if err != nil {
		if !errors.Is(err, storage.ErrCommentNotFound) {
			s.log.Error("failed to toggle comment like",
				slog.String("op", op),
				slog.String("comment_id", commentID.String()),
				sl.Err(err),
			)
		}
		return models.LikeState{}, fmt.Errorf("%s: %w", op, err)
	}

	metrics.LikeToggles.WithLabelValues("comment", metrics.State(state.Liked)).Inc()

	return state, nil
}

// Delete removes a comment and its replies. Only the comment author or an admin may do so.
func (s *CommentService) Delete(ctx context.Context, commentID uuid.UUID, who models.Identity) error {
	const op = "comment_service.Delete"
	log := s.log.With(
		slog.String("op", op),
		slog.String("comment_id", commentID.String()),
	)

	if who.IsAnonymous() {
		return fmt.Errorf("%s: %w", op, models.ErrUnauthorized)
	}

	comment, err := s.comments.FindByID(ctx, commentID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !who.CanModify(comment.AuthorID) {
		log.Warn("delete denied", slog.String("user_id", who.UserID.String()))
		return fmt.Errorf("%s: %w", op, models.ErrForbidden)
	}

	if err := s.comments.Delete(ctx, commentID); err != nil {
		log.Error("failed to delete comment", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("comment deleted")
	return nil
}

// Count is the comment rollup for a post.
func (s *CommentService) Count(ctx context.Context, postID uuid.UUID) (int, error) {
	const op = "comment_service.Count"

	n, err := s.comments.Count(ctx, postID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}
