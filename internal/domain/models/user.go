package models

import (
	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Author is the public projection of a user record joined onto posts and comments.
type Author struct {
	ID     uuid.UUID `db:"id" json:"id"`
	Name   string    `db:"name" json:"name"`
	Avatar string    `db:"avatar" json:"avatar,omitempty"`
	Role   Role      `db:"role" json:"role"`
}

// Identity is the caller established by the authentication layer.
type Identity struct {
	UserID uuid.UUID
	Role   Role
}

func (i Identity) IsAnonymous() bool {
	return i.UserID == uuid.Nil
}

func (i Identity) CanModify(ownerID uuid.UUID) bool {
	return !i.IsAnonymous() && (i.Role == RoleAdmin || i.UserID == ownerID)
}
