package repository

import (
	redisapp "quill/internal/storage/redis"

	"github.com/jackc/pgx/v4/pgxpool"
)

type Repository struct {
	db       *pgxpool.Pool
	Posts    PostRepository
	Comments CommentRepository
	Saved    SavedRepository
}

func NewRepository(db *pgxpool.Pool, client *redisapp.Client) *Repository {
	return &Repository{
		db:       db,
		Posts:    NewPostRepository(db),
		Comments: NewCommentRepository(db),
		Saved:    NewRedisSavedRepo(client),
	}
}

func (r *Repository) Close() {
	r.db.Close()
}
