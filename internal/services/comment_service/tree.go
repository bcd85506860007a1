package services

import (
	"slices"

	"quill/internal/domain/models"

	"github.com/google/uuid"
)

// BuildTree assembles the comments of one post into top-level threads.
//
// Top-level comments come newest first, replies under each thread oldest
// first. Comments whose author could not be resolved are left out, and so is
// any reply whose parent is not a rendered top-level comment: threads are one
// level deep.
func BuildTree(comments []models.Comment) []models.CommentNode {
	var roots []models.CommentNode
	var replies []models.Comment

	for _, c := range comments {
		if c.Author == nil {
			continue
		}
		if c.IsReply() {
			replies = append(replies, c)
			continue
		}
		roots = append(roots, models.CommentNode{Comment: c, Replies: []models.Comment{}})
	}

	slices.SortFunc(roots, func(a, b models.CommentNode) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return compareIDs(a.Comment, b.Comment)
	})

	slices.SortFunc(replies, func(a, b models.Comment) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return compareIDs(a, b)
	})

	index := make(map[uuid.UUID]int, len(roots))
	for i, root := range roots {
		index[root.ID] = i
	}

	for _, r := range replies {
		if i, ok := index[*r.ParentID]; ok {
			roots[i].Replies = append(roots[i].Replies, r)
		}
	}

	if roots == nil {
		return []models.CommentNode{}
	}
	return roots
}

func compareIDs(a, b models.Comment) int {
	return slices.Compare(a.ID[:], b.ID[:])
}
