package repository

import (
	"quill/internal/query"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// wherePosts applies a query.Filter to a select over "posts p".
func wherePosts(b sq.SelectBuilder, f query.Filter) sq.SelectBuilder {
	if pred := postPredicate(f); len(pred) > 0 {
		return b.Where(pred)
	}
	return b
}

func postPredicate(f query.Filter) sq.And {
	where := sq.And{}

	if f.Status != "" {
		where = append(where, sq.Eq{"p.status": string(f.Status)})
	}
	if !f.PublishedBefore.IsZero() {
		where = append(where, sq.LtOrEq{"p.published_at": f.PublishedBefore})
	}
	if f.Search != "" {
		where = append(where, sq.Expr("to_tsvector('simple', p.search_text) @@ plainto_tsquery('simple', ?)", f.Search))
	}
	if f.Category != "" {
		where = append(where, sq.Eq{"p.category": f.Category})
	}
	if f.AuthorID != uuid.Nil {
		where = append(where, sq.Eq{"p.author_id": f.AuthorID.String()})
	}
	if f.ExcludeID != uuid.Nil {
		where = append(where, sq.NotEq{"p.id": f.ExcludeID.String()})
	}
	if f.IDs != nil {
		ids := make([]string, 0, len(f.IDs))
		for _, id := range f.IDs {
			ids = append(ids, id.String())
		}
		where = append(where, sq.Eq{"p.id": ids})
	}
	if f.Related != nil {
		where = append(where, relatedPredicate(*f.Related))
	}

	return where
}

func relatedPredicate(r query.Related) sq.Sqlizer {
	either := sq.Or{}
	if r.Category != "" {
		either = append(either, sq.Eq{"p.category": r.Category})
	}
	if len(r.Tags) > 0 {
		either = append(either, sq.Expr("p.tags && ?", pq.Array(r.Tags)))
	}
	if len(either) == 0 {
		return sq.Expr("FALSE")
	}
	return either
}

// orderBy is the ORDER BY for a sort key; id breaks ties.
func orderBy(s query.Sort) []string {
	switch s {
	case query.SortOldest:
		return []string{"p.published_at ASC", "p.id ASC"}
	case query.SortPopular:
		return []string{"p.views DESC", "p.id ASC"}
	default:
		return []string{"p.published_at DESC", "p.id ASC"}
	}
}
