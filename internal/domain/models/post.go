package models

import (
	"time"

	"github.com/google/uuid"
)

type PostStatus string

const (
	StatusDraft     PostStatus = "draft"
	StatusPublished PostStatus = "published"
)

type Post struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	Title         string     `db:"title" json:"title"`
	Slug          string     `db:"slug" json:"slug"`
	Excerpt       string     `db:"excerpt" json:"excerpt,omitempty"`
	Content       string     `db:"content" json:"content"`
	SearchText    string     `db:"search_text" json:"-"`
	Category      string     `db:"category" json:"category,omitempty"`
	Tags          []string   `db:"tags" json:"tags"`
	FeaturedImage string     `db:"featured_image" json:"featured_image,omitempty"`
	AuthorID      uuid.UUID  `db:"author_id" json:"author_id"`
	Author        *Author    `json:"author,omitempty"`
	Status        PostStatus `db:"status" json:"status"`
	Views         int64      `db:"views" json:"views"`
	LikeCount     int        `json:"like_count"`
	ReadTime      int        `db:"read_time" json:"read_time"`
	PublishedAt   *time.Time `db:"published_at" json:"published_at,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// IsVisible reports whether readers may see the post at the given moment.
func (p Post) IsVisible(now time.Time) bool {
	return p.Status == StatusPublished && p.PublishedAt != nil && !p.PublishedAt.After(now)
}

// PostPatch carries the fields an edit changes. Nil fields are left untouched.
type PostPatch struct {
	Title         *string
	Slug          *string
	Excerpt       *string
	Content       *string
	SearchText    *string
	Category      *string
	Tags          []string
	FeaturedImage *string
	ReadTime      *int
}

func (p PostPatch) IsEmpty() bool {
	return p.Title == nil && p.Slug == nil && p.Excerpt == nil && p.Content == nil &&
		p.SearchText == nil && p.Category == nil && p.Tags == nil &&
		p.FeaturedImage == nil && p.ReadTime == nil
}

type PostPage struct {
	Items      []Post `json:"items"`
	Page       int    `json:"page"`
	Limit      int    `json:"limit"`
	Total      int    `json:"total"`
	TotalPages int    `json:"total_pages"`
}

// LikeState is the outcome of a like toggle.
type LikeState struct {
	Liked bool `json:"liked"`
	Count int  `json:"count"`
}

// Facet is a distinct category or tag value with the number of visible posts carrying it.
type Facet struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type PostDetail struct {
	Post          Post   `json:"post"`
	Related       []Post `json:"related"`
	CommentsCount int    `json:"comments_count"`
	LikeCount     int    `json:"like_count"`
	IsLiked       bool   `json:"is_liked"`
	IsSaved       bool   `json:"is_saved"`
}
