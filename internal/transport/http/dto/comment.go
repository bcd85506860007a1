package dto

import (
	"github.com/google/uuid"
)

type CreateCommentRequest struct {
	Content  string     `json:"content" validate:"required,max=5000"`
	ParentID *uuid.UUID `json:"parent_id,omitempty"`
}
