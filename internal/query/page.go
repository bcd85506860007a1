package query

import (
	"context"
	"fmt"

	"quill/internal/domain/models"
)

const (
	DefaultLimit = 12
	MaxLimit     = 100
)

// Source is the storage side a Paginator reads from.
type Source interface {
	Find(ctx context.Context, f Filter, s Sort, skip, limit int) ([]models.Post, error)
	Count(ctx context.Context, f Filter) (int, error)
}

type Paginator struct {
	defaultLimit int
	maxLimit     int
}

func NewPaginator(defaultLimit, maxLimit int) *Paginator {
	if defaultLimit < 1 {
		defaultLimit = DefaultLimit
	}
	if maxLimit < defaultLimit {
		maxLimit = max(MaxLimit, defaultLimit)
	}
	return &Paginator{defaultLimit: defaultLimit, maxLimit: maxLimit}
}

// Bounds clamps page to >= 1 and limit to [1, max], substituting the default for a missing limit.
func (p *Paginator) Bounds(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = p.defaultLimit
	}
	if limit > p.maxLimit {
		limit = p.maxLimit
	}
	return page, limit
}

func Skip(page, limit int) int {
	return (page - 1) * limit
}

func TotalPages(total, limit int) int {
	if total <= 0 || limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// Paginate issues the page read and the count as two independent queries over
// the same predicate. Under concurrent writes the two may disagree.
func (p *Paginator) Paginate(ctx context.Context, src Source, q Query, page, limit int) (*models.PostPage, error) {
	const op = "query.Paginator.Paginate"

	page, limit = p.Bounds(page, limit)

	items, err := src.Find(ctx, q.Filter, q.Sort, Skip(page, limit), limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	total, err := src.Count(ctx, q.Filter)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if items == nil {
		items = []models.Post{}
	}

	return &models.PostPage{
		Items:      items,
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: TotalPages(total, limit),
	}, nil
}
