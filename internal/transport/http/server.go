package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"quill/internal/domain/models"
	"quill/internal/middleware"
	"quill/internal/query"
	"quill/internal/transport/http/dto"
	"quill/internal/transport/http/dto/response"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type BlogService interface {
	ListPosts(ctx context.Context, params query.Params) (*models.PostPage, error)
	GetPost(ctx context.Context, slug string, who models.Identity) (*models.PostDetail, error)
	CreatePost(ctx context.Context, who models.Identity, req dto.CreatePostRequest) (*models.Post, error)
	UpdatePost(ctx context.Context, id uuid.UUID, who models.Identity, req dto.UpdatePostRequest) (*models.Post, error)
	PublishPost(ctx context.Context, id uuid.UUID, who models.Identity) (*models.Post, error)
	UnpublishPost(ctx context.Context, id uuid.UUID, who models.Identity) (*models.Post, error)
	DeletePost(ctx context.Context, id uuid.UUID, who models.Identity) error
	Categories(ctx context.Context) ([]models.Facet, error)
	Tags(ctx context.Context) ([]models.Facet, error)
	SavedPosts(ctx context.Context, who models.Identity, page, limit int) (*models.PostPage, error)
}

type EngagementService interface {
	ToggleLike(ctx context.Context, postID uuid.UUID, who models.Identity) (models.LikeState, error)
	ToggleSave(ctx context.Context, postID uuid.UUID, who models.Identity) (bool, error)
}

type CommentService interface {
	Tree(ctx context.Context, postID uuid.UUID) ([]models.CommentNode, error)
	Create(ctx context.Context, postID uuid.UUID, who models.Identity, content string, parentID *uuid.UUID) (*models.Comment, error)
	ToggleLike(ctx context.Context, commentID uuid.UUID, who models.Identity) (models.LikeState, error)
	Delete(ctx context.Context, commentID uuid.UUID, who models.Identity) error
}

// HealthCheck is one dependency probed by GET /health.
type HealthCheck struct {
	Name string
	Ping func(ctx context.Context) error
}

type Routers struct {
	log               *slog.Logger
	BlogService       BlogService
	EngagementService EngagementService
	CommentService    CommentService
	checks            []HealthCheck
}

func NewRouter(log *slog.Logger, blogService BlogService, engagementService EngagementService, commentService CommentService, checks ...HealthCheck) *Routers {
	return &Routers{
		log:               log,
		BlogService:       blogService,
		EngagementService: engagementService,
		CommentService:    commentService,
		checks:            checks,
	}
}

func parseID(c echo.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// ListPosts godoc
// @Summary List published posts
// @Tags posts
// @Produce json
// @Param search query string false "Terms every post must contain"
// @Param category query string false "Exact category"
// @Param author query string false "Author id" format(uuid)
// @Param sort query string false "latest, oldest or popular"
// @Param page query int false "1-based page"
// @Param limit query int false "Page size"
// @Success 200 {object} models.PostPage
// @Failure 400 {object} response.ErrorResponse
// @Router /api/v1/posts [get]
func (r *Routers) ListPosts(c echo.Context) error {
	const op = "http.routers.ListPosts"
	log := r.log.With(slog.String("op", op))

	var req dto.ListPostsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}
	if err := c.Validate(req); err != nil {
		return badRequest(c, err.Error())
	}

	page, err := r.BlogService.ListPosts(c.Request().Context(), req.Params())
	if err != nil {
		return fail(c, log, err)
	}

	return c.JSON(http.StatusOK, page)
}

// GetPost godoc
// @Summary Post detail with related posts and engagement
// @Tags posts
// @Produce json
// @Param slug path string true "Post slug"
// @Success 200 {object} models.PostDetail
// @Failure 404 {object} response.ErrorResponse
// @Router /api/v1/posts/{slug} [get]
func (r *Routers) GetPost(c echo.Context) error {
	const op = "http.routers.GetPost"
	log := r.log.With(slog.String("op", op))

	detail, err := r.BlogService.GetPost(c.Request().Context(), c.Param("slug"), middleware.IdentityFrom(c))
	if err != nil {
		return fail(c, log, err)
	}

	return c.JSON(http.StatusOK, detail)
}

// CreatePost godoc
// @Summary Create a post owned by the caller
// @Tags posts
// @Accept json
// @Produce json
// @Param request body dto.CreatePostRequest true "Post"
// @Success 201 {object} models.Post
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse
// @Router /api/v1/posts [post]
func (r *Routers) CreatePost(c echo.Context) error {
	const op = "http.routers.CreatePost"
	log := r.log.With(slog.String("op", op))

	var req dto.CreatePostRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}
	if err := c.Validate(req); err != nil {
		return badRequest(c, err.Error())
	}

	post, err := r.BlogService.CreatePost(c.Request().Context(), middleware.IdentityFrom(c), req)
	if err != nil {
		return fail(c, log, err)
	}

	return c.JSON(http.StatusCreated, post)
}

// UpdatePost godoc
// @Summary Edit a post
// @Tags posts
// @Accept json
// @Produce json
// @Param id path string true "Post id" format(uuid)
// @Param request body dto.UpdatePostRequest true "Fields to change"
// @Success 200 {object} models.Post
// @Failure 400 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /api/v1/posts/{id} [put]
func (r *Routers) UpdatePost(c echo.Context) error {
	const op = "http.routers.UpdatePost"
	log := r.log.With(slog.String("op", op))

	id, ok := parseID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidID)
	}

	var req dto.UpdatePostRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}
	if err := c.Validate(req); err != nil {
		return badRequest(c, err.Error())
	}

	post, err := r.BlogService.UpdatePost(c.Request().Context(), id, middleware.IdentityFrom(c), req)
	if err != nil {
		return fail(c, log, err)
	}

	return c.JSON(http.StatusOK, post)
}

// PublishPost godoc
// @Summary Publish a post; the first publish time is kept
// @Tags posts
// @Produce json
// @Param id path string true "Post id" format(uuid)
// @Success 200 {object} models.Post
// @Router /api/v1/posts/{id}/publish [patch]
func (r *Routers) PublishPost(c echo.Context) error {
	return r.changeStatus(c, "http.routers.PublishPost", r.BlogService.PublishPost)
}

// UnpublishPost godoc
// @Summary Move a post back to draft
// @Tags posts
// @Produce json
// @Param id path string true "Post id" format(uuid)
// @Success 200 {object} models.Post
// @Router /api/v1/posts/{id}/unpublish [patch]
func (r *Routers) UnpublishPost(c echo.Context) error {
	return r.changeStatus(c, "http.routers.UnpublishPost", r.BlogService.UnpublishPost)
}

func (r *Routers) changeStatus(c echo.Context, op string, change func(context.Context, uuid.UUID, models.Identity) (*models.Post, error)) error {
	log := r.log.With(slog.String("op", op))

	id, ok := parseID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidID)
	}

	post, err := change(c.Request().Context(), id, middleware.IdentityFrom(c))
	if err != nil {
		return fail(c, log, err)
	}

	return c.JSON(http.StatusOK, post)
}

// DeletePost godoc
// @Summary Delete a post with its comments and likes
// @Tags posts
// @Param id path string true "Post id" format(uuid)
// @Success 204
// @Router /api/v1/posts/{id} [delete]
func (r *Routers) DeletePost(c echo.Context) error {
	const op = "http.routers.DeletePost"
	log := r.log.With(slog.String("op", op))

	id, ok := parseID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidID)
	}

	if err := r.BlogService.DeletePost(c.Request().Context(), id, middleware.IdentityFrom(c)); err != nil {
		return fail(c, log, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// LikePost godoc
// @Summary Toggle the caller's like on a post
// @Tags engagement
// @Produce json
// @Param id path string true "Post id" format(uuid)
// @Success 200 {object} models.LikeState
// @Failure 401 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /api/v1/posts/{id}/like [post]
func (r *Routers) LikePost(c echo.Context) error {
	const op = "http.routers.LikePost"
	log := r.log.With(slog.String("op", op))

	id, ok := parseID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidID)
	}

	state, err := r.EngagementService.ToggleLike(c.Request().Context(), id, middleware.IdentityFrom(c))
	if err != nil {
		return fail(c, log, err)
	}

	return c.JSON(http.StatusOK, state)
}

// SavePost godoc
// @Summary Toggle a post in the caller's saved list
// @Tags engagement
// @Produce json
// @Param id path string true "Post id" format(uuid)
// @Success 200 {object} dto.ToggleSaveResponse
// @Router /api/v1/posts/{id}/save [post]
func (r *Routers) SavePost(c echo.Context) error {
	const op = "http.routers.SavePost"
	log := r.log.With(slog.String("op", op))

	id, ok := parseID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidID)
	}

	saved, err := r.EngagementService.ToggleSave(c.Request().Context(), id, middleware.IdentityFrom(c))
	if err != nil {
		return fail(c, log, err)
	}

	return c.JSON(http.StatusOK, dto.ToggleSaveResponse{Saved: saved})
}

// ListComments godoc
// @Summary Threaded comments of a post
// @Tags comments
// @Produce json
// @Param id path string true "Post id" format(uuid)
// @Success 200 {array} models.CommentNode
// @Router /api/v1/posts/{id}/comments [get]
func (r *Routers) ListComments(c echo.Context) error {
	const op = "http.routers.ListComments"
	log := r.log.With(slog.String("op", op))

	id, ok := parseID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidID)
	}

	tree, err := r.CommentService.Tree(c.Request().Context(), id)
	if err != nil {
		return fail(c, log, err)
	}

	return c.JSON(http.StatusOK, tree)
}

// CreateComment godoc
// @Summary Comment on a post or reply to a comment
// @Tags comments
// @Accept json
// @Produce json
// @Param id path string true "Post id" format(uuid)
// @Param request body dto.CreateCommentRequest true "Comment"
// @Success 201 {object} models.Comment
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /api/v1/posts/{id}/comments [post]
func (r *Routers) CreateComment(c echo.Context) error {
	const op = "http.routers.CreateComment"
	log := r.log.With(slog.String("op", op))

	id, ok := parseID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidID)
	}

	var req dto.CreateCommentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}
	if err := c.Validate(req); err != nil {
		return badRequest(c, err.Error())
	}

	comment, err := r.CommentService.Create(c.Request().Context(), id, middleware.IdentityFrom(c), req.Content, req.ParentID)
	if err != nil {
		return fail(c, log, err)
	}

	return c.JSON(http.StatusCreated, comment)
}

// LikeComment godoc
// @Summary Toggle the caller's like on a comment
// @Tags comments
// @Produce json
// @Param id path string true "Comment id" format(uuid)
// @Success 200 {object} models.LikeState
// @Router /api/v1/comments/{id}/like [post]
func (r *Routers) LikeComment(c echo.Context) error {
	const op = "http.routers.LikeComment"
	log := r.log.With(slog.String("op", op))

	id, ok := parseID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidID)
	}

	state, err := r.CommentService.ToggleLike(c.Request().Context(), id, middleware.IdentityFrom(c))
	if err != nil {
		return fail(c, log, err)
	}

	return c.JSON(http.StatusOK, state)
}

// DeleteComment godoc
// @Summary Delete a comment and its replies
// @Tags comments
// @Param id path string true "Comment id" format(uuid)
// @Success 204
// @Router /api/v1/comments/{id} [delete]
func (r *Routers) DeleteComment(c echo.Context) error {
	const op = "http.routers.DeleteComment"
	log := r.log.With(slog.String("op", op))

	id, ok := parseID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidID)
	}

	if err := r.CommentService.Delete(c.Request().Context(), id, middleware.IdentityFrom(c)); err != nil {
		return fail(c, log, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// Categories godoc
// @Summary Categories of published posts with counts
// @Tags facets
// @Produce json
// @Success 200 {object} dto.FacetListResponse
// @Router /api/v1/categories [get]
func (r *Routers) Categories(c echo.Context) error {
	const op = "http.routers.Categories"

	facets, err := r.BlogService.Categories(c.Request().Context())
	if err != nil {
		return fail(c, r.log.With(slog.String("op", op)), err)
	}

	return c.JSON(http.StatusOK, dto.FacetListResponse{Items: facets})
}

// Tags godoc
// @Summary Tags of published posts with counts
// @Tags facets
// @Produce json
// @Success 200 {object} dto.FacetListResponse
// @Router /api/v1/tags [get]
func (r *Routers) Tags(c echo.Context) error {
	const op = "http.routers.Tags"

	facets, err := r.BlogService.Tags(c.Request().Context())
	if err != nil {
		return fail(c, r.log.With(slog.String("op", op)), err)
	}

	return c.JSON(http.StatusOK, dto.FacetListResponse{Items: facets})
}

// SavedPosts godoc
// @Summary The caller's saved posts
// @Tags engagement
// @Produce json
// @Param page query int false "1-based page"
// @Param limit query int false "Page size"
// @Success 200 {object} models.PostPage
// @Router /api/v1/me/saved [get]
func (r *Routers) SavedPosts(c echo.Context) error {
	const op = "http.routers.SavedPosts"
	log := r.log.With(slog.String("op", op))

	var req dto.PageRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}
	if err := c.Validate(req); err != nil {
		return badRequest(c, err.Error())
	}

	page, err := r.BlogService.SavedPosts(c.Request().Context(), middleware.IdentityFrom(c), req.Page, req.Limit)
	if err != nil {
		return fail(c, log, err)
	}

	return c.JSON(http.StatusOK, page)
}

// Health godoc
// @Summary Liveness of the service and its stores
// @Tags system
// @Produce json
// @Success 200 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /health [get]
func (r *Routers) Health(c echo.Context) error {
	const op = "http.routers.Health"

	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	status := make(map[string]string, len(r.checks))
	healthy := true
	for _, check := range r.checks {
		if err := check.Ping(ctx); err != nil {
			r.log.Warn("health check failed", slog.String("op", op), slog.String("check", check.Name), slog.String("error", err.Error()))
			status[check.Name] = "down"
			healthy = false
			continue
		}
		status[check.Name] = "up"
	}

	if !healthy {
		return c.JSON(http.StatusServiceUnavailable, response.Response{Status: "error", Data: status})
	}
	return c.JSON(http.StatusOK, response.SuccessResponse(status))
}
