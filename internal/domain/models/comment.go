package models

import (
	"time"

	"github.com/google/uuid"
)

type Comment struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	PostID    uuid.UUID  `db:"post_id" json:"post_id"`
	AuthorID  uuid.UUID  `db:"author_id" json:"author_id"`
	Author    *Author    `json:"author,omitempty"`
	Content   string     `db:"content" json:"content"`
	ParentID  *uuid.UUID `db:"parent_id" json:"parent_id,omitempty"`
	LikeCount int        `json:"like_count"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

func (c Comment) IsReply() bool {
	return c.ParentID != nil
}

// CommentNode is a top-level comment with its direct replies.
type CommentNode struct {
	Comment
	Replies []Comment `json:"replies"`
}
