package repository_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"quill/internal/domain/models"
	"quill/internal/query"
	"quill/internal/repository"
	"quill/internal/storage"
	"quill/internal/storage/postgresql/postgrestest"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCtx = context.Background()

var (
	_ repository.PostRepository    = (*repository.PostRepo)(nil)
	_ repository.CommentRepository = (*repository.CommentRepo)(nil)
	_ repository.SavedRepository   = (*repository.RedisSavedRepo)(nil)
)

func insertUser(t *testing.T, pool *pgxpool.Pool, name string) models.Author {
	t.Helper()

	author := models.Author{ID: uuid.New(), Name: name, Role: models.RoleUser}
	_, err := pool.Exec(testCtx, `INSERT INTO users (id, name, role) VALUES ($1, $2, $3)`,
		author.ID.String(), author.Name, string(author.Role))
	require.NoError(t, err)
	return author
}

func insertPost(t *testing.T, repo *repository.PostRepo, p models.Post) uuid.UUID {
	t.Helper()

	if p.Slug == "" {
		p.Slug = p.Title
	}
	if p.Content == "" {
		p.Content = "<p>" + p.Title + "</p>"
	}
	if p.SearchText == "" {
		p.SearchText = p.Title
	}
	id, err := repo.Create(testCtx, p)
	require.NoError(t, err)
	return id
}

func publishedAt(at time.Time) models.Post {
	return models.Post{Status: models.StatusPublished, PublishedAt: &at, AuthorID: uuid.New()}
}

func TestPostRepo_Integration(t *testing.T) {
	pool := postgrestest.Start(t)
	repo := repository.NewPostRepository(pool)
	builder := query.NewBuilder(nil)

	base := time.Now().Add(-48 * time.Hour).UTC().Truncate(time.Second)
	author := insertUser(t, pool, "Alice")

	a := publishedAt(base)
	a.Title, a.Category, a.Tags, a.AuthorID = "alpha", "Tech", []string{"go", "rust"}, author.ID
	aID := insertPost(t, repo, a)

	b := publishedAt(base.Add(time.Hour))
	b.Title, b.Category = "bravo", "Tech"
	bID := insertPost(t, repo, b)

	c := publishedAt(base.Add(2 * time.Hour))
	c.Title, c.Category, c.Tags = "charlie", "Food", []string{"rust"}
	cID := insertPost(t, repo, c)

	d := models.Post{Title: "delta", Category: "Tech", Status: models.StatusDraft, AuthorID: uuid.New()}
	insertPost(t, repo, d)

	e := publishedAt(base.Add(3 * time.Hour))
	e.Title, e.Category, e.Tags = "echo", "Travel", []string{"python"}
	insertPost(t, repo, e)

	t.Run("find by slug resolves author and like count", func(t *testing.T) {
		p, err := repo.FindBySlug(testCtx, "alpha")
		require.NoError(t, err)
		assert.Equal(t, aID, p.ID)
		require.NotNil(t, p.Author)
		assert.Equal(t, "Alice", p.Author.Name)
		assert.ElementsMatch(t, []string{"go", "rust"}, p.Tags)
		assert.Equal(t, 0, p.LikeCount)

		_, err = repo.FindBySlug(testCtx, "missing")
		assert.ErrorIs(t, err, storage.ErrPostNotFound)
	})

	t.Run("duplicate slug", func(t *testing.T) {
		_, err := repo.Create(testCtx, models.Post{Title: "x", Slug: "alpha", Content: "x", AuthorID: uuid.New()})
		assert.ErrorIs(t, err, storage.ErrSlugExists)
	})

	t.Run("related posts", func(t *testing.T) {
		src, err := repo.FindByID(testCtx, aID)
		require.NoError(t, err)

		related, err := repo.Find(testCtx, builder.RelatedTo(*src), query.SortLatest, 0, 3)
		require.NoError(t, err)
		require.Len(t, related, 2)
		assert.Equal(t, cID, related[0].ID)
		assert.Equal(t, bID, related[1].ID)
	})

	t.Run("pagination", func(t *testing.T) {
		q, err := builder.Public(query.Params{})
		require.NoError(t, err)

		total, err := repo.Count(testCtx, q.Filter)
		require.NoError(t, err)
		assert.Equal(t, 4, total)

		page, err := repo.Find(testCtx, q.Filter, q.Sort, 2, 2)
		require.NoError(t, err)
		require.Len(t, page, 2)
		assert.Equal(t, bID, page[0].ID)
		assert.Equal(t, aID, page[1].ID)
	})

	t.Run("search and category", func(t *testing.T) {
		q, err := builder.Public(query.Params{Search: "charlie", Category: "Food"})
		require.NoError(t, err)

		posts, err := repo.Find(testCtx, q.Filter, q.Sort, 0, 10)
		require.NoError(t, err)
		require.Len(t, posts, 1)
		assert.Equal(t, cID, posts[0].ID)
	})

	t.Run("popular ordering", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			require.NoError(t, repo.IncrementViews(testCtx, bID))
		}

		q, err := builder.Public(query.Params{Sort: "popular"})
		require.NoError(t, err)

		posts, err := repo.Find(testCtx, q.Filter, q.Sort, 0, 1)
		require.NoError(t, err)
		require.Len(t, posts, 1)
		assert.Equal(t, bID, posts[0].ID)
		assert.EqualValues(t, 3, posts[0].Views)
	})

	t.Run("facets", func(t *testing.T) {
		cats, err := repo.Categories(testCtx, builder.Visible())
		require.NoError(t, err)
		assert.Equal(t, models.Facet{Name: "Tech", Count: 2}, cats[0])

		tags, err := repo.Tags(testCtx, builder.Visible())
		require.NoError(t, err)
		assert.Equal(t, models.Facet{Name: "rust", Count: 2}, tags[0])
	})

	t.Run("publish keeps the first timestamp", func(t *testing.T) {
		id := insertPost(t, repo, models.Post{Title: "foxtrot", AuthorID: uuid.New()})

		first := time.Now().Add(-time.Hour).UTC().Truncate(time.Second)
		require.NoError(t, repo.SetStatus(testCtx, id, models.StatusPublished, first))
		require.NoError(t, repo.SetStatus(testCtx, id, models.StatusDraft, first))
		require.NoError(t, repo.SetStatus(testCtx, id, models.StatusPublished, time.Now()))

		p, err := repo.FindByID(testCtx, id)
		require.NoError(t, err)
		require.NotNil(t, p.PublishedAt)
		assert.True(t, first.Equal(*p.PublishedAt))
	})

	t.Run("update", func(t *testing.T) {
		title := "bravo two"
		require.NoError(t, repo.Update(testCtx, bID, models.PostPatch{Title: &title, Tags: []string{"go"}}))

		p, err := repo.FindByID(testCtx, bID)
		require.NoError(t, err)
		assert.Equal(t, title, p.Title)
		assert.Equal(t, []string{"go"}, p.Tags)

		assert.ErrorIs(t, repo.Update(testCtx, uuid.New(), models.PostPatch{Title: &title}), storage.ErrPostNotFound)
	})
}

func TestPostRepo_ToggleLikeUnderContention(t *testing.T) {
	pool := postgrestest.Start(t)
	repo := repository.NewPostRepository(pool)

	id := insertPost(t, repo, publishedAt(time.Now().Add(-time.Hour)))
	user := uuid.New()

	state, err := repo.ToggleLike(testCtx, id, user)
	require.NoError(t, err)
	assert.Equal(t, models.LikeState{Liked: true, Count: 1}, state)

	state, err = repo.ToggleLike(testCtx, id, user)
	require.NoError(t, err)
	assert.Equal(t, models.LikeState{Liked: false, Count: 0}, state)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.ToggleLike(testCtx, id, user)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	liked, err := repo.IsLiked(testCtx, id, user)
	require.NoError(t, err)
	assert.False(t, liked, "an even number of toggles leaves the user out of the set")

	_, err = repo.ToggleLike(testCtx, uuid.New(), user)
	assert.ErrorIs(t, err, storage.ErrPostNotFound)
}

func TestCommentRepo_Integration(t *testing.T) {
	pool := postgrestest.Start(t)
	posts := repository.NewPostRepository(pool)
	comments := repository.NewCommentRepository(pool)

	postID := insertPost(t, posts, publishedAt(time.Now().Add(-time.Hour)))
	alice := insertUser(t, pool, "Alice")

	root, err := comments.Create(testCtx, models.Comment{PostID: postID, AuthorID: alice.ID, Content: "root"})
	require.NoError(t, err)
	require.NotNil(t, root.Author)
	assert.Equal(t, "Alice", root.Author.Name)

	reply, err := comments.Create(testCtx, models.Comment{PostID: postID, AuthorID: uuid.New(), Content: "reply", ParentID: &root.ID})
	require.NoError(t, err)
	assert.Nil(t, reply.Author, "authors without a user record stay unresolved")
	require.NotNil(t, reply.ParentID)
	assert.Equal(t, root.ID, *reply.ParentID)

	n, err := comments.Count(testCtx, postID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	state, err := comments.ToggleLike(testCtx, root.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LikeState{Liked: true, Count: 1}, state)

	all, err := comments.FindByPost(testCtx, postID)
	require.NoError(t, err)
	require.Len(t, all, 2)

	_, err = comments.Create(testCtx, models.Comment{PostID: uuid.New(), AuthorID: alice.ID, Content: "orphan"})
	assert.ErrorIs(t, err, storage.ErrPostNotFound)

	require.NoError(t, comments.Delete(testCtx, root.ID))
	n, err = comments.Count(testCtx, postID)
	require.NoError(t, err)
	assert.Equal(t, 0, n, "replies cascade with their parent")
}
