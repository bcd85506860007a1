package storage

import "errors"

var (
	ErrPostNotFound    = errors.New("post not found")
	ErrCommentNotFound = errors.New("comment not found")
	ErrSlugExists      = errors.New("slug already exists")
)
