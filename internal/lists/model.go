// Package lists manages named subscriber lists and their memberships, used
// both for signup-keyword audiences and for ad hoc broadcast targeting.
package lists

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound     = errors.New("lists: not found")
	ErrConflict     = errors.New("lists: name already exists")
	ErrInvalidInput = errors.New("lists: invalid input")
	ErrInUse        = errors.New("lists: list is referenced by a signup keyword")
)

// SubscriberList is a named, admin-managed grouping of subscribers.
type SubscriberList struct {
	ID          uuid.UUID
	Name        string
	Description string
	CreatedAt   time.Time
}

// Membership links a subscriber to a list.
type Membership struct {
	ListID       uuid.UUID
	SubscriberID uuid.UUID
	AddedAt      time.Time
}
