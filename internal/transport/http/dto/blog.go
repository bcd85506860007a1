package dto

import (
	"quill/internal/domain/models"
	"quill/internal/query"
)

// ListPostsRequest is bound from the query string of GET /posts.
type ListPostsRequest struct {
	Search   string `query:"search" validate:"omitempty,max=200"`
	Category string `query:"category" validate:"omitempty,max=100"`
	Author   string `query:"author" validate:"omitempty,uuid"`
	Sort     string `query:"sort"`
	Page     int    `query:"page"`
	Limit    int    `query:"limit" validate:"omitempty,min=1"`
}

func (r ListPostsRequest) Params() query.Params {
	return query.Params{
		Search:   r.Search,
		Category: r.Category,
		Author:   r.Author,
		Sort:     r.Sort,
		Page:     r.Page,
		Limit:    r.Limit,
	}
}

type PageRequest struct {
	Page  int `query:"page"`
	Limit int `query:"limit" validate:"omitempty,min=1"`
}

type CreatePostRequest struct {
	Title         string   `json:"title" validate:"required,min=3,max=255"`
	Slug          string   `json:"slug,omitempty" validate:"omitempty,slug,max=255"`
	Excerpt       string   `json:"excerpt,omitempty" validate:"omitempty,max=500"`
	Content       string   `json:"content" validate:"required"`
	Category      string   `json:"category,omitempty" validate:"omitempty,max=100"`
	Tags          []string `json:"tags,omitempty" validate:"omitempty,max=20,dive,required,max=50"`
	FeaturedImage string   `json:"featured_image,omitempty" validate:"omitempty,url"`
	Publish       bool     `json:"publish,omitempty"`
}

// UpdatePostRequest carries only the fields to change. An explicit empty slug
// asks for it to be derived again from the title.
type UpdatePostRequest struct {
	Title         *string  `json:"title,omitempty" validate:"omitempty,min=3,max=255"`
	Slug          *string  `json:"slug,omitempty" validate:"omitempty,slug,max=255"`
	Excerpt       *string  `json:"excerpt,omitempty" validate:"omitempty,max=500"`
	Content       *string  `json:"content,omitempty" validate:"omitempty,min=1"`
	Category      *string  `json:"category,omitempty" validate:"omitempty,max=100"`
	Tags          []string `json:"tags,omitempty" validate:"omitempty,max=20,dive,required,max=50"`
	FeaturedImage *string  `json:"featured_image,omitempty" validate:"omitempty,url"`
}

type ToggleSaveResponse struct {
	Saved bool `json:"saved"`
}

type FacetListResponse struct {
	Items []models.Facet `json:"items"`
}
