package memory

import (
	"context"

	"github.com/google/uuid"
)

type SavedRepo struct {
	db *Database
}

func (r *SavedRepo) Toggle(_ context.Context, userID, postID uuid.UUID) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	saved, ok := r.db.saved[userID]
	if !ok {
		saved = make(set)
		r.db.saved[userID] = saved
	}
	return saved.toggle(postID), nil
}

func (r *SavedRepo) IsSaved(_ context.Context, userID, postID uuid.UUID) (bool, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	_, ok := r.db.saved[userID][postID]
	return ok, nil
}

func (r *SavedRepo) List(_ context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]uuid.UUID, 0, len(r.db.saved[userID]))
	for id := range r.db.saved[userID] {
		out = append(out, id)
	}
	return out, nil
}
