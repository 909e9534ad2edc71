package entity

import (
	"errors"
)

var (
	ErrUnknownType  = errors.New("unknown entity type")
	ErrMissingID    = errors.New("entity id is required")
	ErrEmptyPayload = errors.New("entity payload is empty")
	ErrNotFound     = errors.New("entity not found")
)
