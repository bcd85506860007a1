package models

import "errors"

var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrUnauthorized   = errors.New("authentication required")
	ErrForbidden      = errors.New("not allowed")
	ErrParentNotFound = errors.New("parent comment not found")
)
