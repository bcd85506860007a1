package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/google/uuid"

	"quill/internal/domain/models"
	"quill/internal/query"
	"quill/internal/storage"
)

type PostRepo struct {
	db *Database
}

func (r *PostRepo) Find(_ context.Context, f query.Filter, s query.Sort, skip, limit int) ([]models.Post, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	matched := r.match(f)
	sort.Slice(matched, func(i, j int) bool { return s.Less(matched[i], matched[j]) })

	if skip < 0 {
		skip = 0
	}
	if skip >= len(matched) {
		return []models.Post{}, nil
	}
	end := len(matched)
	if limit > 0 && skip+limit < end {
		end = skip + limit
	}

	out := make([]models.Post, 0, end-skip)
	for _, p := range matched[skip:end] {
		out = append(out, r.db.resolvePost(p))
	}
	return out, nil
}

func (r *PostRepo) Count(_ context.Context, f query.Filter) (int, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	return len(r.match(f)), nil
}

func (r *PostRepo) match(f query.Filter) []models.Post {
	var out []models.Post
	for _, p := range r.db.posts {
		if f.Match(p) {
			out = append(out, p)
		}
	}
	return out
}

func (r *PostRepo) FindBySlug(_ context.Context, slug string) (*models.Post, error) {
	const op = "repository.memory.PostRepo.FindBySlug"

	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	id, ok := r.db.slugs[slug]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrPostNotFound)
	}
	p := r.db.resolvePost(r.db.posts[id])
	return &p, nil
}

func (r *PostRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Post, error) {
	const op = "repository.memory.PostRepo.FindByID"

	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	p, ok := r.db.posts[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrPostNotFound)
	}
	p = r.db.resolvePost(p)
	return &p, nil
}

func (r *PostRepo) Create(_ context.Context, post models.Post) (uuid.UUID, error) {
	const op = "repository.memory.PostRepo.Create"

	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, taken := r.db.slugs[post.Slug]; taken {
		return uuid.Nil, fmt.Errorf("%s: %w", op, storage.ErrSlugExists)
	}

	if post.ID == uuid.Nil {
		post.ID = uuid.New()
	}
	now := r.db.now()
	if post.CreatedAt.IsZero() {
		post.CreatedAt = now
	}
	if post.UpdatedAt.IsZero() {
		post.UpdatedAt = now
	}
	if post.Status == "" {
		post.Status = models.StatusDraft
	}
	post.Tags = slices.Clone(post.Tags)
	post.Author = nil
	post.LikeCount = 0

	r.db.posts[post.ID] = post
	r.db.slugs[post.Slug] = post.ID

	return post.ID, nil
}

func (r *PostRepo) Update(_ context.Context, id uuid.UUID, patch models.PostPatch) error {
	const op = "repository.memory.PostRepo.Update"

	if patch.IsEmpty() {
		return fmt.Errorf("%s: no fields to update", op)
	}

	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	p, ok := r.db.posts[id]
	if !ok {
		return fmt.Errorf("%s: %w", op, storage.ErrPostNotFound)
	}

	if patch.Slug != nil && *patch.Slug != p.Slug {
		if _, taken := r.db.slugs[*patch.Slug]; taken {
			return fmt.Errorf("%s: %w", op, storage.ErrSlugExists)
		}
		delete(r.db.slugs, p.Slug)
		p.Slug = *patch.Slug
		r.db.slugs[p.Slug] = id
	}

	assign(&p.Title, patch.Title)
	assign(&p.Excerpt, patch.Excerpt)
	assign(&p.Content, patch.Content)
	assign(&p.SearchText, patch.SearchText)
	assign(&p.Category, patch.Category)
	assign(&p.FeaturedImage, patch.FeaturedImage)
	assign(&p.ReadTime, patch.ReadTime)
	if patch.Tags != nil {
		p.Tags = slices.Clone(patch.Tags)
	}
	p.UpdatedAt = r.db.now()

	r.db.posts[id] = p
	return nil
}

func assign[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func (r *PostRepo) SetStatus(_ context.Context, id uuid.UUID, status models.PostStatus, at time.Time) error {
	const op = "repository.memory.PostRepo.SetStatus"

	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	p, ok := r.db.posts[id]
	if !ok {
		return fmt.Errorf("%s: %w", op, storage.ErrPostNotFound)
	}

	p.Status = status
	if status == models.StatusPublished && p.PublishedAt == nil {
		p.PublishedAt = &at
	}
	p.UpdatedAt = r.db.now()

	r.db.posts[id] = p
	return nil
}

func (r *PostRepo) Delete(_ context.Context, id uuid.UUID) error {
	const op = "repository.memory.PostRepo.Delete"

	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	p, ok := r.db.posts[id]
	if !ok {
		return fmt.Errorf("%s: %w", op, storage.ErrPostNotFound)
	}

	delete(r.db.posts, id)
	delete(r.db.slugs, p.Slug)
	delete(r.db.postLikes, id)
	for cid, c := range r.db.comments {
		if c.PostID == id {
			delete(r.db.comments, cid)
			delete(r.db.commentLikes, cid)
		}
	}
	return nil
}

func (r *PostRepo) IncrementViews(_ context.Context, id uuid.UUID) error {
	const op = "repository.memory.PostRepo.IncrementViews"

	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	p, ok := r.db.posts[id]
	if !ok {
		return fmt.Errorf("%s: %w", op, storage.ErrPostNotFound)
	}
	p.Views++
	r.db.posts[id] = p
	return nil
}

func (r *PostRepo) ToggleLike(_ context.Context, id, userID uuid.UUID) (models.LikeState, error) {
	const op = "repository.memory.PostRepo.ToggleLike"

	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.posts[id]; !ok {
		return models.LikeState{}, fmt.Errorf("%s: %w", op, storage.ErrPostNotFound)
	}

	likes, ok := r.db.postLikes[id]
	if !ok {
		likes = make(set)
		r.db.postLikes[id] = likes
	}
	liked := likes.toggle(userID)

	return models.LikeState{Liked: liked, Count: len(likes)}, nil
}

func (r *PostRepo) IsLiked(_ context.Context, id, userID uuid.UUID) (bool, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	_, ok := r.db.postLikes[id][userID]
	return ok, nil
}

func (r *PostRepo) Categories(_ context.Context, f query.Filter) ([]models.Facet, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	counts := make(map[string]int)
	for _, p := range r.match(f) {
		if p.Category != "" {
			counts[p.Category]++
		}
	}
	return facets(counts), nil
}

func (r *PostRepo) Tags(_ context.Context, f query.Filter) ([]models.Facet, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	counts := make(map[string]int)
	for _, p := range r.match(f) {
		for _, tag := range p.Tags {
			counts[tag]++
		}
	}
	return facets(counts), nil
}

// facets orders by count descending, then name.
func facets(counts map[string]int) []models.Facet {
	out := make([]models.Facet, 0, len(counts))
	for name, n := range counts {
		out = append(out, models.Facet{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}
