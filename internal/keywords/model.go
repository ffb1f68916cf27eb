// Package keywords manages signup keywords — the inbound tokens
// (e.g. "JOIN") that enroll a sender into a list and trigger an
// auto-response.
package keywords

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound     = errors.New("keywords: not found")
	ErrConflict     = errors.New("keywords: keyword already in use")
	ErrInvalidInput = errors.New("keywords: invalid input")
)

// SignupKeyword is a normalized inbound token mapped to a list and an
// auto-response body.
type SignupKeyword struct {
	ID           uuid.UUID
	Keyword      string // stored uppercased and trimmed
	ListID       *uuid.UUID
	AutoResponse string
	IsActive     bool
	CreatedAt    time.Time
}
