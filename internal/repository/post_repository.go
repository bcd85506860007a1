package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"quill/internal/domain/models"
	"quill/internal/query"
	"quill/internal/storage"
	"quill/internal/storage/postgresql"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

type PostRepo struct {
	db *pgxpool.Pool
	sb sq.StatementBuilderType
}

func NewPostRepository(db *pgxpool.Pool) *PostRepo {
	return &PostRepo{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

var postColumns = []string{
	"p.id", "p.title", "p.slug", "p.excerpt", "p.content", "p.search_text",
	"p.category", "p.tags", "p.featured_image", "p.author_id", "p.status",
	"p.views", "p.read_time", "p.published_at", "p.created_at", "p.updated_at",
	"(SELECT COUNT(*) FROM post_likes pl WHERE pl.post_id = p.id) AS like_count",
	"u.id", "u.name", "u.avatar", "u.role",
}

// selectPosts joins the author so callers get a resolved Post in one round trip.
func (r *PostRepo) selectPosts() sq.SelectBuilder {
	return r.sb.Select(postColumns...).
		From("posts p").
		LeftJoin("users u ON u.id = p.author_id")
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanPost(row scanner) (models.Post, error) {
	var (
		post     models.Post
		status   string
		authorID uuid.NullUUID
		name     sql.NullString
		avatar   sql.NullString
		role     sql.NullString
	)

	err := row.Scan(
		&post.ID,
		&post.Title,
		&post.Slug,
		&post.Excerpt,
		&post.Content,
		&post.SearchText,
		&post.Category,
		&post.Tags,
		&post.FeaturedImage,
		&post.AuthorID,
		&status,
		&post.Views,
		&post.ReadTime,
		&post.PublishedAt,
		&post.CreatedAt,
		&post.UpdatedAt,
		&post.LikeCount,
		&authorID,
		&name,
		&avatar,
		&role,
	)
	if err != nil {
		return models.Post{}, err
	}

	post.Status = models.PostStatus(status)
	if post.Tags == nil {
		post.Tags = []string{}
	}
	if authorID.Valid {
		post.Author = &models.Author{
			ID:     authorID.UUID,
			Name:   name.String,
			Avatar: avatar.String,
			Role:   models.Role(role.String),
		}
	}

	return post, nil
}

func (r *PostRepo) Find(ctx context.Context, f query.Filter, s query.Sort, skip, limit int) ([]models.Post, error) {
	const op = "repository.post_repository.Find"

	builder := wherePosts(r.selectPosts(), f).OrderBy(orderBy(s)...)
	if skip > 0 {
		builder = builder.Offset(uint64(skip))
	}
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	sqlQuery, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := r.db.Query(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	posts := make([]models.Post, 0, limit)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return posts, nil
}

func (r *PostRepo) Count(ctx context.Context, f query.Filter) (int, error) {
	const op = "repository.post_repository.Count"

	sqlQuery, args, err := wherePosts(r.sb.Select("COUNT(*)").From("posts p"), f).ToSql()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	var count int
	if err := r.db.QueryRow(ctx, sqlQuery, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return count, nil
}

func (r *PostRepo) FindBySlug(ctx context.Context, slug string) (*models.Post, error) {
	const op = "repository.post_repository.FindBySlug"

	return r.findOne(ctx, op, sq.Eq{"p.slug": slug})
}

func (r *PostRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	const op = "repository.post_repository.FindByID"

	return r.findOne(ctx, op, sq.Eq{"p.id": id.String()})
}

func (r *PostRepo) findOne(ctx context.Context, op string, pred sq.Sqlizer) (*models.Post, error) {
	sqlQuery, args, err := r.selectPosts().Where(pred).ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	post, err := scanPost(r.db.QueryRow(ctx, sqlQuery, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrPostNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &post, nil
}

func (r *PostRepo) Create(ctx context.Context, post models.Post) (uuid.UUID, error) {
	const op = "repository.post_repository.Create"

	if post.Tags == nil {
		post.Tags = []string{}
	}
	if post.Status == "" {
		post.Status = models.StatusDraft
	}

	sqlQuery, args, err := r.sb.Insert("posts").
		Columns(
			"title",
			"slug",
			"excerpt",
			"content",
			"search_text",
			"category",
			"tags",
			"featured_image",
			"author_id",
			"status",
			"read_time",
			"published_at",
		).
		Values(
			post.Title,
			post.Slug,
			post.Excerpt,
			post.Content,
			post.SearchText,
			post.Category,
			post.Tags,
			post.FeaturedImage,
			post.AuthorID.String(),
			string(post.Status),
			post.ReadTime,
			post.PublishedAt,
		).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	var id uuid.UUID
	if err := r.db.QueryRow(ctx, sqlQuery, args...).Scan(&id); err != nil {
		if postgresql.IsUniqueViolation(err) {
			return uuid.Nil, fmt.Errorf("%s: %w", op, storage.ErrSlugExists)
		}
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

func (r *PostRepo) Update(ctx context.Context, id uuid.UUID, patch models.PostPatch) error {
	const op = "repository.post_repository.Update"

	if patch.IsEmpty() {
		return fmt.Errorf("%s: no fields to update", op)
	}

	updates := map[string]interface{}{}
	setIf(updates, "title", patch.Title)
	setIf(updates, "slug", patch.Slug)
	setIf(updates, "excerpt", patch.Excerpt)
	setIf(updates, "content", patch.Content)
	setIf(updates, "search_text", patch.SearchText)
	setIf(updates, "category", patch.Category)
	setIf(updates, "featured_image", patch.FeaturedImage)
	setIf(updates, "read_time", patch.ReadTime)
	if patch.Tags != nil {
		updates["tags"] = patch.Tags
	}

	sqlQuery, args, err := r.sb.Update("posts").
		SetMap(updates).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id.String()}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	result, err := r.db.Exec(ctx, sqlQuery, args...)
	if err != nil {
		if postgresql.IsUniqueViolation(err) {
			return fmt.Errorf("%s: %w", op, storage.ErrSlugExists)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrPostNotFound)
	}

	return nil
}

func setIf[T any](updates map[string]interface{}, column string, value *T) {
	if value != nil {
		updates[column] = *value
	}
}

// SetStatus moves a post between draft and published. published_at is only
// ever assigned the first time a post is published.
func (r *PostRepo) SetStatus(ctx context.Context, id uuid.UUID, status models.PostStatus, at time.Time) error {
	const op = "repository.post_repository.SetStatus"

	builder := r.sb.Update("posts").
		Set("status", string(status)).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id.String()})

	if status == models.StatusPublished {
		builder = builder.Set("published_at", sq.Expr("COALESCE(published_at, ?)", at))
	}

	sqlQuery, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	result, err := r.db.Exec(ctx, sqlQuery, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrPostNotFound)
	}

	return nil
}

// Delete removes a post; likes and comments go with it through ON DELETE CASCADE.
func (r *PostRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const op = "repository.post_repository.Delete"

	sqlQuery, args, err := r.sb.Delete("posts").
		Where(sq.Eq{"id": id.String()}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	result, err := r.db.Exec(ctx, sqlQuery, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrPostNotFound)
	}

	return nil
}

func (r *PostRepo) IncrementViews(ctx context.Context, id uuid.UUID) error {
	const op = "repository.post_repository.IncrementViews"

	sqlQuery, args, err := r.sb.Update("posts").
		Set("views", sq.Expr("views + 1")).
		Where(sq.Eq{"id": id.String()}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	result, err := r.db.Exec(ctx, sqlQuery, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrPostNotFound)
	}

	return nil
}

// ToggleLike flips the caller's membership in the post's like set. The post
// row is locked for the duration, so concurrent togglers on one post are
// serialized and each decision is taken against the current set.
func (r *PostRepo) ToggleLike(ctx context.Context, id, userID uuid.UUID) (models.LikeState, error) {
	const op = "repository.post_repository.ToggleLike"

	state, err := toggleMembership(ctx, r.db, r.sb, membership{
		parentTable: "posts",
		table:       "post_likes",
		column:      "post_id",
		notFound:    storage.ErrPostNotFound,
	}, id, userID)
	if err != nil {
		return models.LikeState{}, fmt.Errorf("%s: %w", op, err)
	}

	return state, nil
}

func (r *PostRepo) IsLiked(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	const op = "repository.post_repository.IsLiked"

	sqlQuery, args, err := r.sb.Select("1").
		From("post_likes").
		Where(sq.Eq{"post_id": id.String(), "user_id": userID.String()}).
		Prefix("SELECT EXISTS (").
		Suffix(")").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	var liked bool
	if err := r.db.QueryRow(ctx, sqlQuery, args...).Scan(&liked); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return liked, nil
}

func (r *PostRepo) Categories(ctx context.Context, f query.Filter) ([]models.Facet, error) {
	const op = "repository.post_repository.Categories"

	builder := wherePosts(r.sb.Select("p.category", "COUNT(*)").From("posts p"), f).
		Where(sq.NotEq{"p.category": ""}).
		GroupBy("p.category").
		OrderBy("COUNT(*) DESC", "p.category ASC")

	facets, err := r.facets(ctx, builder)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return facets, nil
}

func (r *PostRepo) Tags(ctx context.Context, f query.Filter) ([]models.Facet, error) {
	const op = "repository.post_repository.Tags"

	builder := wherePosts(r.sb.Select("t.tag", "COUNT(*)").From("posts p CROSS JOIN LATERAL unnest(p.tags) AS t(tag)"), f).
		GroupBy("t.tag").
		OrderBy("COUNT(*) DESC", "t.tag ASC")

	facets, err := r.facets(ctx, builder)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return facets, nil
}

func (r *PostRepo) facets(ctx context.Context, builder sq.SelectBuilder) ([]models.Facet, error) {
	sqlQuery, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sqlQuery, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	facets := []models.Facet{}
	for rows.Next() {
		var f models.Facet
		if err := rows.Scan(&f.Name, &f.Count); err != nil {
			return nil, err
		}
		facets = append(facets, f)
	}

	return facets, rows.Err()
}
