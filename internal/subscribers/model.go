// Package subscribers persists and manages the subscriber roster —
// community members who have opted in (or out) of SMS broadcasts.
package subscribers

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Sentinel errors classified by the HTTP layer into status codes.
var (
	ErrNotFound     = errors.New("subscribers: not found")
	ErrConflict     = errors.New("subscribers: phone number already exists")
	ErrInvalidInput = errors.New("subscribers: invalid input")
)

// Subscriber is a community member tracked by phone number.
type Subscriber struct {
	ID                uuid.UUID
	PhoneNumber       string // canonical +1XXXXXXXXXX
	IsActive          bool
	JoinedAt          time.Time
	LastReadAt        *time.Time
	JoinedViaKeyword  *string
	NotifierThreadRef *string
}

// HasUnread reports whether mostRecentInboundAt postdates the subscriber's
// read watermark, per the InboxProjector unread predicate.
func (s Subscriber) HasUnread(mostRecentInboundAt time.Time) bool {
	if mostRecentInboundAt.IsZero() {
		return false
	}
	if s.LastReadAt == nil {
		return true
	}
	return mostRecentInboundAt.After(*s.LastReadAt)
}
