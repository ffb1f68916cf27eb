// Package notifier defines the boundary between the core and the
// chat-notification sink used for operator-facing alerts about inbound
// conversations and subscriber lifecycle events.
package notifier

import "context"

// Notifier posts a formatted notice, optionally threaded against a prior
// post, and returns the thread reference a caller can persist for
// subsequent posts in the same conversation.
type Notifier interface {
	Post(ctx context.Context, text string, threadRef *string) (string, error)
}
