package query

import (
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quill/internal/domain/models"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func published(title, category string, tags []string, at time.Time) models.Post {
	return models.Post{
		ID:          uuid.New(),
		Title:       title,
		Category:    category,
		Tags:        tags,
		Status:      models.StatusPublished,
		PublishedAt: &at,
		SearchText:  title,
	}
}

func TestParseSort(t *testing.T) {
	tests := []struct {
		raw  string
		want Sort
	}{
		{"", SortLatest},
		{"latest", SortLatest},
		{"oldest", SortOldest},
		{"POPULAR", SortPopular},
		{"random", SortLatest},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseSort(tt.raw))
		})
	}
}

func TestSort_Less(t *testing.T) {
	older := published("a", "", nil, fixedNow.Add(-time.Hour))
	newer := published("b", "", nil, fixedNow)
	older.Views, newer.Views = 10, 3

	assert.True(t, SortLatest.Less(newer, older))
	assert.True(t, SortOldest.Less(older, newer))
	assert.True(t, SortPopular.Less(older, newer))

	t.Run("ties break by id ascending", func(t *testing.T) {
		a := published("a", "", nil, fixedNow)
		b := published("b", "", nil, fixedNow)
		a.ID = uuid.MustParse("00000000-0000-0000-0000-000000000001")
		b.ID = uuid.MustParse("00000000-0000-0000-0000-000000000002")

		for _, s := range []Sort{SortLatest, SortOldest, SortPopular} {
			assert.True(t, s.Less(a, b), s)
			assert.False(t, s.Less(b, a), s)
		}
	})
}

func TestBuilder_Public(t *testing.T) {
	b := NewBuilder(func() time.Time { return fixedNow })
	author := uuid.New()

	q, err := b.Public(Params{
		Search:   "  golang  ",
		Category: "Tech",
		Author:   author.String(),
		Sort:     "popular",
	})
	require.NoError(t, err)

	assert.Equal(t, models.StatusPublished, q.Filter.Status)
	assert.Equal(t, fixedNow, q.Filter.PublishedBefore)
	assert.Equal(t, "golang", q.Filter.Search)
	assert.Equal(t, "Tech", q.Filter.Category)
	assert.Equal(t, author, q.Filter.AuthorID)
	assert.Equal(t, SortPopular, q.Sort)

	t.Run("absent fields impose nothing", func(t *testing.T) {
		q, err := b.Public(Params{})
		require.NoError(t, err)
		assert.Empty(t, q.Filter.Search)
		assert.Empty(t, q.Filter.Category)
		assert.Equal(t, uuid.Nil, q.Filter.AuthorID)
		assert.Equal(t, SortLatest, q.Sort)
	})

	t.Run("search is reduced to word tokens", func(t *testing.T) {
		q, err := b.Public(Params{Search: "Go, Rust!"})
		require.NoError(t, err)
		assert.Equal(t, "go rust", q.Filter.Search)

		q, err = b.Public(Params{Search: "!!! ..."})
		require.NoError(t, err)
		assert.Empty(t, q.Filter.Search)
	})

	t.Run("malformed author", func(t *testing.T) {
		_, err := b.Public(Params{Author: "not-a-uuid"})
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})
}

func TestFilter_Match(t *testing.T) {
	b := NewBuilder(func() time.Time { return fixedNow })
	visible := b.Visible()

	post := published("Concurrency in Go", "Tech", []string{"go"}, fixedNow.Add(-time.Minute))

	draft := post
	draft.Status = models.StatusDraft

	scheduled := post
	future := fixedNow.Add(time.Hour)
	scheduled.PublishedAt = &future

	assert.True(t, visible.Match(post))
	assert.False(t, visible.Match(draft))
	assert.False(t, visible.Match(scheduled))

	t.Run("search is a boolean all-terms match", func(t *testing.T) {
		f := visible
		f.Search = "go concurrency"
		assert.True(t, f.Match(post))

		f.Search = "go generics"
		assert.False(t, f.Match(post))

		f.Search = "conc"
		assert.False(t, f.Match(post), "partial words do not match")
	})

	t.Run("category and author are exact", func(t *testing.T) {
		f := visible
		f.Category = "tech"
		assert.False(t, f.Match(post))

		f.Category = "Tech"
		f.AuthorID = uuid.New()
		assert.False(t, f.Match(post))
	})

	t.Run("ids", func(t *testing.T) {
		f := b.Saved(nil)
		assert.False(t, f.Match(post))

		f = b.Saved([]uuid.UUID{post.ID})
		assert.True(t, f.Match(post))
	})
}

func TestBuilder_RelatedTo(t *testing.T) {
	b := NewBuilder(func() time.Time { return fixedNow })
	base := fixedNow.Add(-24 * time.Hour)

	a := published("A", "Tech", []string{"go", "rust"}, base)
	bp := published("B", "Tech", nil, base.Add(time.Hour))
	c := published("C", "Food", []string{"rust"}, base.Add(2*time.Hour))
	d := published("D", "Tech", nil, base.Add(3*time.Hour))
	d.Status = models.StatusDraft
	e := published("E", "Travel", []string{"python"}, base.Add(4*time.Hour))

	f := b.RelatedTo(a)

	var got []models.Post
	for _, p := range []models.Post{a, bp, c, d, e} {
		if f.Match(p) {
			got = append(got, p)
		}
	}
	sort.Slice(got, func(i, j int) bool { return SortLatest.Less(got[i], got[j]) })

	require.Len(t, got, 2)
	assert.Equal(t, "C", got[0].Title)
	assert.Equal(t, "B", got[1].Title)

	t.Run("no category and no tags matches nothing", func(t *testing.T) {
		lonely := published("L", "", nil, base)
		f := b.RelatedTo(lonely)
		uncategorized := published("U", "", nil, base)
		assert.False(t, f.Match(uncategorized))
	})
}
