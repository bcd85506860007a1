package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"quill/internal/domain/models"
	"quill/internal/lib/logger/sl"
	"quill/internal/lib/markup"
	"quill/internal/query"
	"quill/internal/repository"
	"quill/internal/storage"
	"quill/internal/transport/http/dto"

	"github.com/google/uuid"
)

const slugAttempts = 10

type ViewRecorder interface {
	Record(id uuid.UUID)
}

type CommentCounter interface {
	Count(ctx context.Context, postID uuid.UUID) (int, error)
}

type MembershipChecker interface {
	Membership(ctx context.Context, postID uuid.UUID, who models.Identity) (liked, saved bool, err error)
}

type BlogService struct {
	log          *slog.Logger
	posts        repository.PostRepository
	saved        repository.SavedRepository
	comments     CommentCounter
	engagement   MembershipChecker
	views        ViewRecorder
	builder      *query.Builder
	paginator    *query.Paginator
	relatedLimit int
	now          func() time.Time
}

func NewBlogService(
	log *slog.Logger,
	posts repository.PostRepository,
	saved repository.SavedRepository,
	comments CommentCounter,
	engagement MembershipChecker,
	views ViewRecorder,
	builder *query.Builder,
	paginator *query.Paginator,
	relatedLimit int,
) *BlogService {
	return &BlogService{
		log:          log,
		posts:        posts,
		saved:        saved,
		comments:     comments,
		engagement:   engagement,
		views:        views,
		builder:      builder,
		paginator:    paginator,
		relatedLimit: relatedLimit,
		now:          time.Now,
	}
}

// ListPosts returns one page of published posts matching the reader's filters.
func (s *BlogService) ListPosts(ctx context.Context, params query.Params) (*models.PostPage, error) {
	const op = "blog_service.ListPosts"
	log := s.log.With(
		slog.String("op", op),
		slog.Int("page", params.Page),
		slog.Int("limit", params.Limit),
	)

	q, err := s.builder.Public(params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	page, err := s.paginator.Paginate(ctx, s.posts, q, params.Page, params.Limit)
	if err != nil {
		log.Error("failed to list posts", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Debug("posts listed", slog.Int("count", len(page.Items)), slog.Int("total", page.Total))
	return page, nil
}

// GetPost assembles the detail view of a published post and records a view.
// Related posts and the comment count degrade to empty values when their
// lookups fail; the post itself is always returned.
func (s *BlogService) GetPost(ctx context.Context, slug string, who models.Identity) (*models.PostDetail, error) {
	const op = "blog_service.GetPost"
	log := s.log.With(
		slog.String("op", op),
		slog.String("slug", slug),
	)

	post, err := s.posts.FindBySlug(ctx, slug)
	if err != nil {
		if !errors.Is(err, storage.ErrPostNotFound) {
			log.Error("failed to get post", sl.Err(err))
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !post.IsVisible(s.now()) {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrPostNotFound)
	}

	s.views.Record(post.ID)

	detail := &models.PostDetail{
		Post:      *post,
		Related:   s.related(ctx, log, *post),
		LikeCount: post.LikeCount,
	}

	detail.CommentsCount, err = s.comments.Count(ctx, post.ID)
	if err != nil {
		log.Warn("comment count unavailable", sl.Err(err))
		detail.CommentsCount = 0
	}

	detail.IsLiked, detail.IsSaved, err = s.engagement.Membership(ctx, post.ID, who)
	if err != nil {
		log.Warn("engagement state unavailable", sl.Err(err))
		detail.IsLiked, detail.IsSaved = false, false
	}

	return detail, nil
}

func (s *BlogService) related(ctx context.Context, log *slog.Logger, post models.Post) []models.Post {
	related, err := s.posts.Find(ctx, s.builder.RelatedTo(post), query.SortLatest, 0, s.relatedLimit)
	if err != nil {
		log.Warn("related posts unavailable", sl.Err(err))
		return []models.Post{}
	}
	if related == nil {
		return []models.Post{}
	}
	return related
}

// CreatePost stores a new post owned by the caller. Posts start as drafts
// unless the request asks to publish right away.
func (s *BlogService) CreatePost(ctx context.Context, who models.Identity, req dto.CreatePostRequest) (*models.Post, error) {
	const op = "blog_service.CreatePost"
	log := s.log.With(
		slog.String("op", op),
		slog.String("author_id", who.UserID.String()),
	)

	if who.IsAnonymous() {
		return nil, fmt.Errorf("%s: %w", op, models.ErrUnauthorized)
	}

	title := strings.TrimSpace(req.Title)
	if title == "" || strings.TrimSpace(markup.PlainText(req.Content)) == "" {
		return nil, fmt.Errorf("%s: title and content are required: %w", op, models.ErrInvalidInput)
	}

	excerpt := strings.TrimSpace(req.Excerpt)
	if excerpt == "" {
		excerpt = markup.Excerpt(req.Content)
	}

	post := models.Post{
		Title:         title,
		Excerpt:       excerpt,
		Content:       req.Content,
		SearchText:    markup.SearchText(title, excerpt, req.Content),
		Category:      strings.TrimSpace(req.Category),
		Tags:          normalizeTags(req.Tags),
		FeaturedImage: req.FeaturedImage,
		AuthorID:      who.UserID,
		Status:        models.StatusDraft,
		ReadTime:      markup.ReadTime(req.Content),
	}
	if req.Publish {
		now := s.now()
		post.Status = models.StatusPublished
		post.PublishedAt = &now
	}

	id, err := s.createWithSlug(ctx, log, post, req.Slug)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("post created", slog.String("post_id", id.String()))
	return s.posts.FindByID(ctx, id)
}

// createWithSlug stores the post under the requested slug, or under one
// derived from the title with a numeric suffix when the derived one is taken.
func (s *BlogService) createWithSlug(ctx context.Context, log *slog.Logger, post models.Post, requested string) (uuid.UUID, error) {
	if requested != "" {
		post.Slug = requested
		id, err := s.posts.Create(ctx, post)
		if err != nil && !errors.Is(err, storage.ErrSlugExists) {
			log.Error("failed to create post", sl.Err(err))
		}
		return id, err
	}

	var id uuid.UUID
	err := claimSlug(log, generateSlug(post.Title), func(slug string) error {
		post.Slug = slug
		var err error
		id, err = s.posts.Create(ctx, post)
		return err
	})
	if err != nil {
		if !errors.Is(err, storage.ErrSlugExists) {
			log.Error("failed to create post", sl.Err(err))
		}
		return uuid.Nil, err
	}
	return id, nil
}

// claimSlug offers base, then base-2 through base-10, then base with a random
// fragment to store until one is not taken.
func claimSlug(log *slog.Logger, base string, store func(slug string) error) error {
	candidate := base
	for n := 1; n <= slugAttempts; n++ {
		err := store(candidate)
		if !errors.Is(err, storage.ErrSlugExists) {
			return err
		}
		log.Debug("slug taken", slog.String("slug", candidate))
		candidate = suffixedSlug(base, n)
	}
	return store(fmt.Sprintf("%s-%s", base, uuid.NewString()[:8]))
}

// UpdatePost applies a partial edit. Only the author or an admin may edit.
func (s *BlogService) UpdatePost(ctx context.Context, id uuid.UUID, who models.Identity, req dto.UpdatePostRequest) (*models.Post, error) {
	const op = "blog_service.UpdatePost"
	log := s.log.With(
		slog.String("op", op),
		slog.String("post_id", id.String()),
	)

	current, err := s.authorize(ctx, id, who)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	patch := models.PostPatch{
		Excerpt:       trimmed(req.Excerpt),
		Category:      trimmed(req.Category),
		FeaturedImage: req.FeaturedImage,
	}
	if req.Tags != nil {
		patch.Tags = normalizeTags(req.Tags)
	}

	title, content, excerpt := current.Title, current.Content, current.Excerpt
	if req.Title != nil {
		title = strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, fmt.Errorf("%s: title is empty: %w", op, models.ErrInvalidInput)
		}
		patch.Title = &title
	}
	if req.Content != nil {
		if strings.TrimSpace(markup.PlainText(*req.Content)) == "" {
			return nil, fmt.Errorf("%s: content is empty: %w", op, models.ErrInvalidInput)
		}
		content = *req.Content
		readTime := markup.ReadTime(content)
		patch.Content = &content
		patch.ReadTime = &readTime
	}
	if patch.Excerpt != nil {
		excerpt = *patch.Excerpt
	}
	if patch.Title != nil || patch.Content != nil || patch.Excerpt != nil {
		searchText := markup.SearchText(title, excerpt, content)
		patch.SearchText = &searchText
	}

	if patch.IsEmpty() && req.Slug == nil {
		return current, nil
	}

	if err := s.updateWithSlug(ctx, log, id, patch, req.Slug, title); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("post updated")
	return s.posts.FindByID(ctx, id)
}

func (s *BlogService) updateWithSlug(ctx context.Context, log *slog.Logger, id uuid.UUID, patch models.PostPatch, slug *string, title string) error {
	if slug == nil || *slug != "" {
		patch.Slug = slug
		err := s.posts.Update(ctx, id, patch)
		if err != nil && !errors.Is(err, storage.ErrSlugExists) {
			log.Error("failed to update post", sl.Err(err))
		}
		return err
	}

	err := claimSlug(log, generateSlug(title), func(slug string) error {
		patch.Slug = &slug
		return s.posts.Update(ctx, id, patch)
	})
	if err != nil && !errors.Is(err, storage.ErrSlugExists) {
		log.Error("failed to update post", sl.Err(err))
	}
	return err
}

func (s *BlogService) PublishPost(ctx context.Context, id uuid.UUID, who models.Identity) (*models.Post, error) {
	return s.setStatus(ctx, "blog_service.PublishPost", id, who, models.StatusPublished)
}

func (s *BlogService) UnpublishPost(ctx context.Context, id uuid.UUID, who models.Identity) (*models.Post, error) {
	return s.setStatus(ctx, "blog_service.UnpublishPost", id, who, models.StatusDraft)
}

func (s *BlogService) setStatus(ctx context.Context, op string, id uuid.UUID, who models.Identity, status models.PostStatus) (*models.Post, error) {
	log := s.log.With(
		slog.String("op", op),
		slog.String("post_id", id.String()),
	)

	if _, err := s.authorize(ctx, id, who); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.posts.SetStatus(ctx, id, status, s.now()); err != nil {
		log.Error("failed to change status", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("post status changed", slog.String("status", string(status)))
	return s.posts.FindByID(ctx, id)
}

// DeletePost removes the post together with its comments and likes.
func (s *BlogService) DeletePost(ctx context.Context, id uuid.UUID, who models.Identity) error {
	const op = "blog_service.DeletePost"
	log := s.log.With(
		slog.String("op", op),
		slog.String("post_id", id.String()),
	)

	if _, err := s.authorize(ctx, id, who); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.posts.Delete(ctx, id); err != nil {
		log.Error("failed to delete post", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("post deleted")
	return nil
}

func (s *BlogService) authorize(ctx context.Context, id uuid.UUID, who models.Identity) (*models.Post, error) {
	if who.IsAnonymous() {
		return nil, models.ErrUnauthorized
	}

	post, err := s.posts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !who.CanModify(post.AuthorID) {
		return nil, models.ErrForbidden
	}
	return post, nil
}

func (s *BlogService) Categories(ctx context.Context) ([]models.Facet, error) {
	const op = "blog_service.Categories"

	facets, err := s.posts.Categories(ctx, s.builder.Visible())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return facets, nil
}

func (s *BlogService) Tags(ctx context.Context) ([]models.Facet, error) {
	const op = "blog_service.Tags"

	facets, err := s.posts.Tags(ctx, s.builder.Visible())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return facets, nil
}

// SavedPosts pages through the caller's saved posts that are still published.
func (s *BlogService) SavedPosts(ctx context.Context, who models.Identity, page, limit int) (*models.PostPage, error) {
	const op = "blog_service.SavedPosts"

	if who.IsAnonymous() {
		return nil, fmt.Errorf("%s: %w", op, models.ErrUnauthorized)
	}

	ids, err := s.saved.List(ctx, who.UserID)
	if err != nil {
		s.log.Error("failed to list saved posts", slog.String("op", op), sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	q := query.Query{Filter: s.builder.Saved(ids), Sort: query.SortLatest}
	result, err := s.paginator.Paginate(ctx, s.posts, q, page, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	return &t
}
