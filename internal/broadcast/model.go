// Package broadcast resolves audiences, tokenizes links, and fans a
// message out to every recipient via the SMS gateway.
package broadcast

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput  = errors.New("broadcast: invalid input")
	ErrEmptyAudience = errors.New("broadcast: resolved audience is empty")
)

// TargetType distinguishes an include list from an exclude list.
type TargetType string

const (
	TargetInclude TargetType = "include"
	TargetExclude TargetType = "exclude"
)

// Broadcast is the header row for one fan-out run.
type Broadcast struct {
	ID         uuid.UUID
	Name       *string
	Message    string // the operator draft, not the link-rewritten body
	SentCount  int
	TotalCost  float64
	TargetAll  bool
	CreatedAt  time.Time
}

// Target records one include/exclude list bound to a broadcast.
type Target struct {
	BroadcastID uuid.UUID
	ListID      uuid.UUID
	Type        TargetType
}
