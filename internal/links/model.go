// Package links persists shortened links created by link tokenization and
// the clicks recorded against them.
package links

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("links: not found")
	ErrConflict = errors.New("links: short code already exists")
)

// Link is a shortened URL rewritten into an outbound broadcast body.
type Link struct {
	ID          uuid.UUID
	BroadcastID uuid.UUID
	ShortCode   string
	TargetURL   string
	CreatedAt   time.Time
}

// Click is one recorded visit to a short link.
type Click struct {
	ID           uuid.UUID
	LinkID       uuid.UUID
	SubscriberID *uuid.UUID
	ClickedAt    time.Time
}
