package messages

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/RabowNicholas/sanctuary-sms-tool/internal/store"
)

// Repository persists messages in Postgres.
type Repository struct {
	pool store.Pool
}

func NewRepository(pool store.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) querier(q store.Querier) store.Querier {
	if q != nil {
		return q
	}
	return r.pool
}

const selectMessageSQL = `
	SELECT id, subscriber_id, broadcast_id, direction, body, status, provider_message_id, segment_count, created_at
	FROM messages`

// Create inserts a message, defaulting ID/CreatedAt when unset.
func (r *Repository) Create(ctx context.Context, q store.Querier, m *Message) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	_, err := r.querier(q).Exec(ctx, `
		INSERT INTO messages (id, subscriber_id, broadcast_id, direction, body, status, provider_message_id, segment_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		m.ID, m.SubscriberID, m.BroadcastID, m.Direction, m.Body, m.Status, m.ProviderMessageID, m.SegmentCount, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("messages: create: %w", err)
	}
	return nil
}

// UpdateStatusByProviderID sets the delivery status of the message with
// the given provider message id. Returns ErrNotFound if no such message
// has been recorded — callers treat that as a silent no-op per the
// reconciler's tolerant-of-unknown-ids contract.
func (r *Repository) UpdateStatusByProviderID(ctx context.Context, providerMessageID string, status DeliveryStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE messages SET status = $2 WHERE provider_message_id = $1`,
		providerMessageID, status,
	)
	if err != nil {
		return fmt.Errorf("messages: update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListBySubscriber returns a subscriber's message history, most recent
// first, paginated.
func (r *Repository) ListBySubscriber(ctx context.Context, subscriberID uuid.UUID, limit, offset int) ([]Message, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx,
		selectMessageSQL+` WHERE subscriber_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		subscriberID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("messages: list by subscriber: %w", err)
	}
	return scanAll(rows)
}

// ListRecent returns the most recent n messages across all subscribers,
// for the admin dashboard feed.
func (r *Repository) ListRecent(ctx context.Context, n int) ([]Message, error) {
	if n <= 0 {
		n = 20
	}
	rows, err := r.pool.Query(ctx, selectMessageSQL+` ORDER BY created_at DESC LIMIT $1`, n)
	if err != nil {
		return nil, fmt.Errorf("messages: list recent: %w", err)
	}
	return scanAll(rows)
}

// MostRecentInboundAt returns the timestamp of the subscriber's most
// recent inbound message, the zero time if they have never written in.
func (r *Repository) MostRecentInboundAt(ctx context.Context, subscriberID uuid.UUID) (time.Time, error) {
	var ts time.Time
	err := r.pool.QueryRow(ctx,
		`SELECT created_at FROM messages WHERE subscriber_id = $1 AND direction = $2 ORDER BY created_at DESC LIMIT 1`,
		subscriberID, Inbound,
	).Scan(&ts)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("messages: most recent inbound: %w", err)
	}
	return ts, nil
}

// Preview is the most recent message (either direction) for one
// subscriber, the shape the inbox listing renders.
type Preview struct {
	SubscriberID uuid.UUID
	Body         string
	CreatedAt    time.Time
}

// MostRecentMessagePreviews returns, for each of subscriberIDs, its single
// most recent message (either direction). Subscribers with no messages are
// simply absent from the result map.
func (r *Repository) MostRecentMessagePreviews(ctx context.Context, subscriberIDs []uuid.UUID) (map[uuid.UUID]Preview, error) {
	if len(subscriberIDs) == 0 {
		return map[uuid.UUID]Preview{}, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT ON (subscriber_id) subscriber_id, body, created_at
		FROM messages
		WHERE subscriber_id = ANY($1)
		ORDER BY subscriber_id, created_at DESC`,
		subscriberIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("messages: most recent previews: %w", err)
	}
	defer rows.Close()

	out := map[uuid.UUID]Preview{}
	for rows.Next() {
		var p Preview
		if err := rows.Scan(&p.SubscriberID, &p.Body, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("messages: scan preview: %w", err)
		}
		out[p.SubscriberID] = p
	}
	return out, rows.Err()
}

func scanAll(rows pgx.Rows) ([]Message, error) {
	defer rows.Close()
	out := []Message{}
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.SubscriberID, &m.BroadcastID, &m.Direction, &m.Body, &m.Status, &m.ProviderMessageID, &m.SegmentCount, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("messages: scan: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
