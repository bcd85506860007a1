// Package query turns reader-facing listing parameters into a normalized
// post predicate, a sort key and page bounds.
package query

import (
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"quill/internal/domain/models"
)

type Sort string

const (
	SortLatest  Sort = "latest"
	SortOldest  Sort = "oldest"
	SortPopular Sort = "popular"
)

// ParseSort maps a raw sort key to a known one. Unknown keys fall back to SortLatest.
func ParseSort(raw string) Sort {
	switch Sort(strings.ToLower(strings.TrimSpace(raw))) {
	case SortOldest:
		return SortOldest
	case SortPopular:
		return SortPopular
	default:
		return SortLatest
	}
}

// Less orders two posts by the sort key, breaking ties by id ascending.
func (s Sort) Less(a, b models.Post) bool {
	switch s {
	case SortPopular:
		if a.Views != b.Views {
			return a.Views > b.Views
		}
	case SortOldest:
		at, bt := publishedAt(a), publishedAt(b)
		if !at.Equal(bt) {
			return at.Before(bt)
		}
	default:
		at, bt := publishedAt(a), publishedAt(b)
		if !at.Equal(bt) {
			return at.After(bt)
		}
	}

	return a.ID.String() < b.ID.String()
}

func publishedAt(p models.Post) time.Time {
	if p.PublishedAt == nil {
		return time.Time{}
	}
	return *p.PublishedAt
}

// Related is the "same category OR overlapping tags" disjunction.
type Related struct {
	Category string
	Tags     []string
}

// Filter is a conjunction of constraints over posts. Zero-valued fields impose no constraint.
type Filter struct {
	Status          models.PostStatus
	PublishedBefore time.Time
	Search          string
	Category        string
	AuthorID        uuid.UUID
	ExcludeID       uuid.UUID
	IDs             []uuid.UUID
	Related         *Related
}

// Match evaluates the filter against a single post.
func (f Filter) Match(p models.Post) bool {
	if f.Status != "" && p.Status != f.Status {
		return false
	}
	if !f.PublishedBefore.IsZero() && (p.PublishedAt == nil || p.PublishedAt.After(f.PublishedBefore)) {
		return false
	}
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.AuthorID != uuid.Nil && p.AuthorID != f.AuthorID {
		return false
	}
	if f.ExcludeID != uuid.Nil && p.ID == f.ExcludeID {
		return false
	}
	if f.IDs != nil && !slices.Contains(f.IDs, p.ID) {
		return false
	}
	if f.Related != nil && !f.Related.match(p) {
		return false
	}
	if f.Search != "" && !MatchTerms(f.Search, p.SearchText) {
		return false
	}

	return true
}

func (r Related) match(p models.Post) bool {
	if r.Category != "" && p.Category == r.Category {
		return true
	}
	for _, tag := range r.Tags {
		if slices.Contains(p.Tags, tag) {
			return true
		}
	}
	return false
}

// Terms splits text into lower-cased word tokens.
func Terms(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// MatchTerms reports whether every term of the search query occurs as a word in text.
// Matching is boolean: there is no scoring.
func MatchTerms(search, text string) bool {
	terms := Terms(search)
	if len(terms) == 0 {
		return true
	}

	words := make(map[string]struct{})
	for _, w := range Terms(text) {
		words[w] = struct{}{}
	}
	for _, t := range terms {
		if _, ok := words[t]; !ok {
			return false
		}
	}
	return true
}

// Params are the raw listing parameters as received from a reader.
type Params struct {
	Search   string
	Category string
	Author   string
	Sort     string
	Page     int
	Limit    int
}

type Query struct {
	Filter Filter
	Sort   Sort
}

type Builder struct {
	now func() time.Time
}

func NewBuilder(now func() time.Time) *Builder {
	if now == nil {
		now = time.Now
	}
	return &Builder{now: now}
}

// Public builds the predicate for reader listings: only published posts whose
// publish time has passed, plus the optional search, category and author constraints.
func (b *Builder) Public(p Params) (Query, error) {
	const op = "query.Builder.Public"

	f := b.Visible()
	// a search with no word tokens is no search at all
	f.Search = strings.Join(Terms(p.Search), " ")
	f.Category = strings.TrimSpace(p.Category)

	if author := strings.TrimSpace(p.Author); author != "" {
		id, err := uuid.Parse(author)
		if err != nil {
			return Query{}, fmt.Errorf("%s: author %q: %w", op, author, models.ErrInvalidInput)
		}
		f.AuthorID = id
	}

	return Query{Filter: f, Sort: ParseSort(p.Sort)}, nil
}

// Visible is the base constraint every reader-facing query starts from.
func (b *Builder) Visible() Filter {
	return Filter{
		Status:          models.StatusPublished,
		PublishedBefore: b.now(),
	}
}

// RelatedTo builds the predicate for posts topically adjacent to p.
func (b *Builder) RelatedTo(p models.Post) Filter {
	f := b.Visible()
	f.ExcludeID = p.ID
	f.Related = &Related{
		Category: p.Category,
		Tags:     slices.Clone(p.Tags),
	}
	return f
}

// Saved restricts the visible posts to the given ids.
func (b *Builder) Saved(ids []uuid.UUID) Filter {
	f := b.Visible()
	f.IDs = ids
	if f.IDs == nil {
		f.IDs = []uuid.UUID{}
	}
	return f
}
