package memory

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"quill/internal/domain/models"
	"quill/internal/storage"
)

type CommentRepo struct {
	db *Database
}

func (r *CommentRepo) FindByPost(_ context.Context, postID uuid.UUID) ([]models.Comment, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var out []models.Comment
	for _, c := range r.db.comments {
		if c.PostID == postID {
			out = append(out, r.db.resolveComment(c))
		}
	}
	return out, nil
}

func (r *CommentRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Comment, error) {
	const op = "repository.memory.CommentRepo.FindByID"

	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	c, ok := r.db.comments[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrCommentNotFound)
	}
	c = r.db.resolveComment(c)
	return &c, nil
}

func (r *CommentRepo) Create(_ context.Context, comment models.Comment) (*models.Comment, error) {
	const op = "repository.memory.CommentRepo.Create"

	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.posts[comment.PostID]; !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrPostNotFound)
	}
	if comment.ParentID != nil {
		parent, ok := r.db.comments[*comment.ParentID]
		if !ok || parent.PostID != comment.PostID {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrCommentNotFound)
		}
	}

	if comment.ID == uuid.Nil {
		comment.ID = uuid.New()
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = r.db.now()
	}
	comment.Author = nil
	comment.LikeCount = 0

	r.db.comments[comment.ID] = comment

	created := r.db.resolveComment(comment)
	return &created, nil
}

func (r *CommentRepo) Count(_ context.Context, postID uuid.UUID) (int, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	n := 0
	for _, c := range r.db.comments {
		if c.PostID == postID {
			n++
		}
	}
	return n, nil
}

// Delete removes a comment and, transitively, its replies.
func (r *CommentRepo) Delete(_ context.Context, id uuid.UUID) error {
	const op = "repository.memory.CommentRepo.Delete"

	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.comments[id]; !ok {
		return fmt.Errorf("%s: %w", op, storage.ErrCommentNotFound)
	}

	pending := []uuid.UUID{id}
	for len(pending) > 0 {
		cur := pending[0]
		pending = pending[1:]

		delete(r.db.comments, cur)
		delete(r.db.commentLikes, cur)
		for cid, c := range r.db.comments {
			if c.ParentID != nil && *c.ParentID == cur {
				pending = append(pending, cid)
			}
		}
	}
	return nil
}

func (r *CommentRepo) ToggleLike(_ context.Context, id, userID uuid.UUID) (models.LikeState, error) {
	const op = "repository.memory.CommentRepo.ToggleLike"

	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.comments[id]; !ok {
		return models.LikeState{}, fmt.Errorf("%s: %w", op, storage.ErrCommentNotFound)
	}

	likes, ok := r.db.commentLikes[id]
	if !ok {
		likes = make(set)
		r.db.commentLikes[id] = likes
	}
	liked := likes.toggle(userID)

	return models.LikeState{Liked: liked, Count: len(likes)}, nil
}
