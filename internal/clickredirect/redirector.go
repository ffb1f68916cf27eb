// Package clickredirect resolves a short code to its original URL and
// records the click before the caller issues a redirect.
package clickredirect

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/RabowNicholas/sanctuary-sms-tool/pkg/logging"
)

var ErrNotFound = errors.New("clickredirect: short code not found")

// LinkLookup is the minimal shape the redirector needs of a link.
type LinkLookup struct {
	ID        uuid.UUID
	TargetURL string
}

// Store is the subset of link persistence the redirector depends on.
type Store interface {
	FindByShortCode(ctx context.Context, code string) (*LinkLookup, error)
	RecordClick(ctx context.Context, linkID uuid.UUID, subscriberID *uuid.UUID) error
}

const NotFoundHTML = `<!DOCTYPE html><html><head><title>Link not found</title></head>` +
	`<body><h1>This link is no longer valid.</h1></body></html>`

// Redirector resolves short codes to target URLs.
type Redirector struct {
	store  Store
	logger *logging.Logger
}

func New(store Store, logger *logging.Logger) *Redirector {
	return &Redirector{store: store, logger: logger}
}

// Resolve looks up code and best-effort records a click, returning the
// target URL to redirect to. ErrNotFound means the caller should respond
// with NotFoundHTML instead of redirecting.
func (r *Redirector) Resolve(ctx context.Context, code string, subscriberID *uuid.UUID) (string, error) {
	link, err := r.store.FindByShortCode(ctx, code)
	if err != nil {
		return "", ErrNotFound
	}

	if err := r.store.RecordClick(ctx, link.ID, subscriberID); err != nil {
		r.logger.With("short_code", code).Warn("clickredirect: failed to record click", "error", err)
	}

	return link.TargetURL, nil
}
