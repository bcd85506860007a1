// Package memory is an in-process storage backend with the same semantics as
// the postgres and redis repositories. Every mutation happens under one lock,
// which gives the single-document atomicity the services rely on.
package memory

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"quill/internal/domain/models"
)

type set map[uuid.UUID]struct{}

// toggle flips membership and reports the new state.
func (s set) toggle(id uuid.UUID) bool {
	if _, ok := s[id]; ok {
		delete(s, id)
		return false
	}
	s[id] = struct{}{}
	return true
}

type Database struct {
	mu  sync.RWMutex
	now func() time.Time

	posts        map[uuid.UUID]models.Post
	slugs        map[string]uuid.UUID
	postLikes    map[uuid.UUID]set
	comments     map[uuid.UUID]models.Comment
	commentLikes map[uuid.UUID]set
	users        map[uuid.UUID]models.Author
	saved        map[uuid.UUID]set
}

func New() *Database {
	return NewWithClock(time.Now)
}

func NewWithClock(now func() time.Time) *Database {
	return &Database{
		now:          now,
		posts:        make(map[uuid.UUID]models.Post),
		slugs:        make(map[string]uuid.UUID),
		postLikes:    make(map[uuid.UUID]set),
		comments:     make(map[uuid.UUID]models.Comment),
		commentLikes: make(map[uuid.UUID]set),
		users:        make(map[uuid.UUID]models.Author),
		saved:        make(map[uuid.UUID]set),
	}
}

func (db *Database) Posts() *PostRepo {
	return &PostRepo{db: db}
}

func (db *Database) Comments() *CommentRepo {
	return &CommentRepo{db: db}
}

func (db *Database) Saved() *SavedRepo {
	return &SavedRepo{db: db}
}

// PutUser registers or replaces a user record used to resolve authors.
func (db *Database) PutUser(a models.Author) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.users[a.ID] = a
}

// DeleteUser removes a user record; authored content stays but no longer resolves an author.
func (db *Database) DeleteUser(id uuid.UUID) {
	db.mu.Lock()
	defer db.mu.Unlock()

	delete(db.users, id)
}

func (db *Database) author(id uuid.UUID) *models.Author {
	a, ok := db.users[id]
	if !ok {
		return nil
	}
	return &a
}

// resolvePost returns a copy of a stored post with its joins filled in. Caller holds the lock.
func (db *Database) resolvePost(p models.Post) models.Post {
	p.Tags = slices.Clone(p.Tags)
	if p.Tags == nil {
		p.Tags = []string{}
	}
	if p.PublishedAt != nil {
		at := *p.PublishedAt
		p.PublishedAt = &at
	}
	p.Author = db.author(p.AuthorID)
	p.LikeCount = len(db.postLikes[p.ID])
	return p
}

func (db *Database) resolveComment(c models.Comment) models.Comment {
	if c.ParentID != nil {
		parent := *c.ParentID
		c.ParentID = &parent
	}
	c.Author = db.author(c.AuthorID)
	c.LikeCount = len(db.commentLikes[c.ID])
	return c
}
