package server

import (
	"errors"

	"github.com/fentz26/aitracker/internal/store"
)

// Sentinel errors for Progress Store operations.
var (
	ErrNotFound        = errors.New("no progress data found")
	ErrInvalidDocument = store.ErrInvalidDocument
	ErrInvalidLog      = errors.New("invalid daily log")
	ErrInvalidUser     = errors.New("invalid user_id")
)
