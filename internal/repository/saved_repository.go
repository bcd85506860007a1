package repository

import (
	"context"
	"fmt"

	redisapp "quill/internal/storage/redis"

	"github.com/google/uuid"
)

// toggleScript flips membership server-side so the add-or-remove decision is
// always taken against the current set.
const toggleScript = `
if redis.call('SISMEMBER', KEYS[1], ARGV[1]) == 1 then
	redis.call('SREM', KEYS[1], ARGV[1])
	return 0
end
redis.call('SADD', KEYS[1], ARGV[1])
return 1
`

type RedisSavedRepo struct {
	Client *redisapp.Client
}

func NewRedisSavedRepo(client *redisapp.Client) *RedisSavedRepo {
	return &RedisSavedRepo{Client: client}
}

func (r *RedisSavedRepo) Toggle(ctx context.Context, userID, postID uuid.UUID) (bool, error) {
	const op = "repository.saved_repository.Toggle"

	saved, err := r.Client.Eval(ctx, toggleScript, []string{savedKey(userID)}, postID.String()).Int()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return saved == 1, nil
}

func (r *RedisSavedRepo) IsSaved(ctx context.Context, userID, postID uuid.UUID) (bool, error) {
	const op = "repository.saved_repository.IsSaved"

	ok, err := r.Client.SIsMember(ctx, savedKey(userID), postID.String()).Result()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return ok, nil
}

// List returns the saved post ids. Ids that do not parse are skipped.
func (r *RedisSavedRepo) List(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	const op = "repository.saved_repository.List"

	members, err := r.Client.SMembers(ctx, savedKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ids := make([]uuid.UUID, 0, len(members))
	for _, m := range members {
		id, err := uuid.Parse(m)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}

	return ids, nil
}

func savedKey(userID uuid.UUID) string {
	return "saved:" + userID.String()
}
