// Package inbox computes unread counts and conversation previews from the
// message log and the subscriber read-state watermark.
package inbox

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/RabowNicholas/sanctuary-sms-tool/internal/phoneutil"
)

// Filter selects which conversations List returns.
type Filter string

const (
	FilterAll    Filter = "all"
	FilterUnread Filter = "unread"
	FilterRead   Filter = "read"
)

// Conversation is one row of the inbox listing.
type Conversation struct {
	SubscriberID  uuid.UUID
	PhoneNumber   string
	PhoneDisplay  string
	HasUnread     bool
	PreviewText   string
	PreviewAt     time.Time
}

// SubscriberView is the minimal subscriber shape the projector needs.
type SubscriberView struct {
	ID          uuid.UUID
	PhoneNumber string
	LastReadAt  *time.Time
}

// MessagePreview is the most recent message (either direction) for one
// subscriber.
type MessagePreview struct {
	SubscriberID uuid.UUID
	Body         string
	CreatedAt    time.Time
}

// Store is the subset of repository reads/writes InboxProjector depends on.
type Store interface {
	ListActiveSubscribers(ctx context.Context, search string, limit, offset int) ([]SubscriberView, error)
	MostRecentMessagePreviews(ctx context.Context, subscriberIDs []uuid.UUID) (map[uuid.UUID]MessagePreview, error)
	MostRecentInboundAt(ctx context.Context, subscriberID uuid.UUID) (time.Time, error)
	CountActiveSubscribersWithUnread(ctx context.Context) (int, error)
	CountActiveSubscribers(ctx context.Context) (int, error)
	SetLastReadAt(ctx context.Context, subscriberID uuid.UUID, at *time.Time) error
	SetLastReadAtForAllActive(ctx context.Context, at time.Time) error
}

// Cache fronts GetStats with a short-lived cached value so a busy dashboard
// polling /api/dashboard/stats doesn't recompute the unread count on every
// request. A cache that never hits (e.g. backed by no Redis client) is a
// valid, always-correct implementation.
type Cache interface {
	GetStats(ctx context.Context) (Stats, bool)
	SetStats(ctx context.Context, stats Stats)
	Invalidate(ctx context.Context)
}

// noopCache never caches, so Projector works identically with or without a
// real cache wired in.
type noopCache struct{}

func (noopCache) GetStats(ctx context.Context) (Stats, bool) { return Stats{}, false }
func (noopCache) SetStats(ctx context.Context, stats Stats)  {}
func (noopCache) Invalidate(ctx context.Context)             {}

// Projector implements the InboxProjector operations.
type Projector struct {
	store Store
	cache Cache
}

func New(store Store) *Projector {
	return &Projector{store: store, cache: noopCache{}}
}

// NewWithCache builds a Projector whose GetStats result is fronted by cache.
func NewWithCache(store Store, cache Cache) *Projector {
	if cache == nil {
		cache = noopCache{}
	}
	return &Projector{store: store, cache: cache}
}

// HasUnread reports whether an inbound message postdates the subscriber's
// read watermark.
func HasUnread(lastReadAt *time.Time, mostRecentInboundAt time.Time) bool {
	if mostRecentInboundAt.IsZero() {
		return false
	}
	if lastReadAt == nil {
		return true
	}
	return mostRecentInboundAt.After(*lastReadAt)
}

// UnreadCount returns the number of active subscribers with at least one
// unread inbound message.
func (p *Projector) UnreadCount(ctx context.Context) (int, error) {
	n, err := p.store.CountActiveSubscribersWithUnread(ctx)
	if err != nil {
		return 0, fmt.Errorf("inbox: unread count: %w", err)
	}
	return n, nil
}

// Stats is the inbox summary surfaced at GET /api/inbox/stats.
type Stats struct {
	UnreadCount       int
	TotalConversations int
}

func (p *Projector) GetStats(ctx context.Context) (Stats, error) {
	if cached, ok := p.cache.GetStats(ctx); ok {
		return cached, nil
	}

	unread, err := p.store.CountActiveSubscribersWithUnread(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("inbox: stats unread: %w", err)
	}
	total, err := p.store.CountActiveSubscribers(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("inbox: stats total: %w", err)
	}
	stats := Stats{UnreadCount: unread, TotalConversations: total}
	p.cache.SetStats(ctx, stats)
	return stats, nil
}

// List returns conversations matching filter and search, paginated.
func (p *Projector) List(ctx context.Context, filter Filter, search string, limit, offset int) ([]Conversation, error) {
	subs, err := p.store.ListActiveSubscribers(ctx, search, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("inbox: list subscribers: %w", err)
	}

	ids := make([]uuid.UUID, len(subs))
	for i, s := range subs {
		ids[i] = s.ID
	}
	previews, err := p.store.MostRecentMessagePreviews(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("inbox: message previews: %w", err)
	}

	out := make([]Conversation, 0, len(subs))
	for _, s := range subs {
		mostRecentInbound, err := p.store.MostRecentInboundAt(ctx, s.ID)
		if err != nil {
			return nil, fmt.Errorf("inbox: most recent inbound: %w", err)
		}
		unread := HasUnread(s.LastReadAt, mostRecentInbound)

		if filter == FilterUnread && !unread {
			continue
		}
		if filter == FilterRead && unread {
			continue
		}

		conv := Conversation{
			SubscriberID: s.ID,
			PhoneNumber:  s.PhoneNumber,
			PhoneDisplay: phoneutil.Display(s.PhoneNumber),
			HasUnread:    unread,
		}
		if preview, ok := previews[s.ID]; ok {
			conv.PreviewText = preview.Body
			conv.PreviewAt = preview.CreatedAt
		}
		out = append(out, conv)
	}
	return out, nil
}

// MarkRead closes the unread window for a subscriber.
func (p *Projector) MarkRead(ctx context.Context, subscriberID uuid.UUID) error {
	now := time.Now().UTC()
	if err := p.store.SetLastReadAt(ctx, subscriberID, &now); err != nil {
		return fmt.Errorf("inbox: mark read: %w", err)
	}
	p.cache.Invalidate(ctx)
	return nil
}

// MarkUnread reopens the unread window for a subscriber.
func (p *Projector) MarkUnread(ctx context.Context, subscriberID uuid.UUID) error {
	if err := p.store.SetLastReadAt(ctx, subscriberID, nil); err != nil {
		return fmt.Errorf("inbox: mark unread: %w", err)
	}
	p.cache.Invalidate(ctx)
	return nil
}

// MarkAllRead closes the unread window for every active subscriber.
func (p *Projector) MarkAllRead(ctx context.Context) error {
	if err := p.store.SetLastReadAtForAllActive(ctx, time.Now().UTC()); err != nil {
		return fmt.Errorf("inbox: mark all read: %w", err)
	}
	p.cache.Invalidate(ctx)
	return nil
}

// InvalidateStats drops any cached stats snapshot. Callers that record a new
// inbound message outside of MarkRead/MarkUnread (the webhook handler) use
// this so the next GetStats reflects the new unread conversation.
func (p *Projector) InvalidateStats(ctx context.Context) {
	p.cache.Invalidate(ctx)
}
