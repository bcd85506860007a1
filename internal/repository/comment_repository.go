package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"quill/internal/domain/models"
	"quill/internal/storage"
	"quill/internal/storage/postgresql"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

type CommentRepo struct {
	db *pgxpool.Pool
	sb sq.StatementBuilderType
}

func NewCommentRepository(db *pgxpool.Pool) *CommentRepo {
	return &CommentRepo{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *CommentRepo) selectComments() sq.SelectBuilder {
	return r.sb.Select(
		"c.id", "c.post_id", "c.author_id", "c.parent_id", "c.content", "c.created_at",
		"(SELECT COUNT(*) FROM comment_likes cl WHERE cl.comment_id = c.id) AS like_count",
		"u.id", "u.name", "u.avatar", "u.role",
	).
		From("comments c").
		LeftJoin("users u ON u.id = c.author_id")
}

func scanComment(row scanner) (models.Comment, error) {
	var (
		comment  models.Comment
		parentID uuid.NullUUID
		authorID uuid.NullUUID
		name     sql.NullString
		avatar   sql.NullString
		role     sql.NullString
	)

	err := row.Scan(
		&comment.ID,
		&comment.PostID,
		&comment.AuthorID,
		&parentID,
		&comment.Content,
		&comment.CreatedAt,
		&comment.LikeCount,
		&authorID,
		&name,
		&avatar,
		&role,
	)
	if err != nil {
		return models.Comment{}, err
	}

	if parentID.Valid {
		comment.ParentID = &parentID.UUID
	}
	if authorID.Valid {
		comment.Author = &models.Author{
			ID:     authorID.UUID,
			Name:   name.String,
			Avatar: avatar.String,
			Role:   models.Role(role.String),
		}
	}

	return comment, nil
}

// FindByPost returns every comment of a post, replies included, with authors
// resolved. A comment whose author no longer exists has a nil Author.
func (r *CommentRepo) FindByPost(ctx context.Context, postID uuid.UUID) ([]models.Comment, error) {
	const op = "repository.comment_repository.FindByPost"

	sqlQuery, args, err := r.selectComments().
		Where(sq.Eq{"c.post_id": postID.String()}).
		OrderBy("c.created_at ASC", "c.id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := r.db.Query(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var comments []models.Comment
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		comments = append(comments, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return comments, nil
}

func (r *CommentRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Comment, error) {
	const op = "repository.comment_repository.FindByID"

	sqlQuery, args, err := r.selectComments().
		Where(sq.Eq{"c.id": id.String()}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	comment, err := scanComment(r.db.QueryRow(ctx, sqlQuery, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrCommentNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &comment, nil
}

func (r *CommentRepo) Create(ctx context.Context, comment models.Comment) (*models.Comment, error) {
	const op = "repository.comment_repository.Create"

	var parentID interface{}
	if comment.ParentID != nil {
		parentID = comment.ParentID.String()
	}

	sqlQuery, args, err := r.sb.Insert("comments").
		Columns("post_id", "author_id", "parent_id", "content").
		Values(comment.PostID.String(), comment.AuthorID.String(), parentID, comment.Content).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var id uuid.UUID
	if err := r.db.QueryRow(ctx, sqlQuery, args...).Scan(&id); err != nil {
		if postgresql.IsForeignKeyViolation(err) {
			if comment.ParentID != nil {
				return nil, fmt.Errorf("%s: %w", op, storage.ErrCommentNotFound)
			}
			return nil, fmt.Errorf("%s: %w", op, storage.ErrPostNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return r.FindByID(ctx, id)
}

// Count is the comment-count rollup for a post. It is computed on every call
// and never stored on the post.
func (r *CommentRepo) Count(ctx context.Context, postID uuid.UUID) (int, error) {
	const op = "repository.comment_repository.Count"

	sqlQuery, args, err := r.sb.Select("COUNT(*)").
		From("comments").
		Where(sq.Eq{"post_id": postID.String()}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	var count int
	if err := r.db.QueryRow(ctx, sqlQuery, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return count, nil
}

func (r *CommentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const op = "repository.comment_repository.Delete"

	sqlQuery, args, err := r.sb.Delete("comments").
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
		return fmt.Errorf("%s: %w", op, storage.ErrCommentNotFound)
	}

	return nil
}

func (r *CommentRepo) ToggleLike(ctx context.Context, id, userID uuid.UUID) (models.LikeState, error) {
	const op = "repository.comment_repository.ToggleLike"

	state, err := toggleMembership(ctx, r.db, r.sb, membership{
		parentTable: "comments",
		table:       "comment_likes",
		column:      "comment_id",
		notFound:    storage.ErrCommentNotFound,
	}, id, userID)
	if err != nil {
		return models.LikeState{}, fmt.Errorf("%s: %w", op, err)
	}

	return state, nil
}
