package repository

import (
	"context"
	"errors"

	"quill/internal/domain/models"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// membership describes a like set stored as (parent id, user id) rows.
type membership struct {
	parentTable string
	table       string
	column      string
	notFound    error
}

// toggleMembership removes the user from the set if present and adds it
// otherwise, inside one transaction that holds a row lock on the parent.
func toggleMembership(ctx context.Context, db *pgxpool.Pool, sb sq.StatementBuilderType, m membership, id, userID uuid.UUID) (models.LikeState, error) {
	tx, err := db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return models.LikeState{}, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	lockQuery, lockArgs, err := sb.Select("id").
		From(m.parentTable).
		Where(sq.Eq{"id": id.String()}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return models.LikeState{}, err
	}

	var locked uuid.UUID
	if err := tx.QueryRow(ctx, lockQuery, lockArgs...).Scan(&locked); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.LikeState{}, m.notFound
		}
		return models.LikeState{}, err
	}

	member := sq.Eq{m.column: id.String(), "user_id": userID.String()}

	delQuery, delArgs, err := sb.Delete(m.table).Where(member).ToSql()
	if err != nil {
		return models.LikeState{}, err
	}

	result, err := tx.Exec(ctx, delQuery, delArgs...)
	if err != nil {
		return models.LikeState{}, err
	}

	liked := result.RowsAffected() == 0
	if liked {
		insQuery, insArgs, err := sb.Insert(m.table).
			Columns(m.column, "user_id").
			Values(id.String(), userID.String()).
			ToSql()
		if err != nil {
			return models.LikeState{}, err
		}
		if _, err := tx.Exec(ctx, insQuery, insArgs...); err != nil {
			return models.LikeState{}, err
		}
	}

	countQuery, countArgs, err := sb.Select("COUNT(*)").
		From(m.table).
		Where(sq.Eq{m.column: id.String()}).
		ToSql()
	if err != nil {
		return models.LikeState{}, err
	}

	var count int
	if err := tx.QueryRow(ctx, countQuery, countArgs...).Scan(&count); err != nil {
		return models.LikeState{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return models.LikeState{}, err
	}

	return models.LikeState{Liked: liked, Count: count}, nil
}
