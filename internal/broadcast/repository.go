package broadcast

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/RabowNicholas/sanctuary-sms-tool/internal/store"
)

// Repository persists broadcast headers and targets in Postgres.
type Repository struct {
	pool store.Pool
}

func NewRepository(pool store.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a broadcast header. Callers treat failure as
// non-fatal: the send proceeds without an analytics envelope.
func (r *Repository) Create(ctx context.Context, b *Broadcast) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO broadcasts (id, name, message, sent_count, total_cost, target_all, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		b.ID, b.Name, b.Message, b.SentCount, b.TotalCost, b.TargetAll, b.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("broadcast: create header: %w", err)
	}
	return nil
}

// UpdateSentCount persists the final attempted-recipient count.
func (r *Repository) UpdateSentCount(ctx context.Context, id uuid.UUID, sentCount int) error {
	_, err := r.pool.Exec(ctx, `UPDATE broadcasts SET sent_count = $2 WHERE id = $1`, id, sentCount)
	if err != nil {
		return fmt.Errorf("broadcast: update sent count: %w", err)
	}
	return nil
}

// ListRecent returns the n most recent broadcasts, most recent first, for
// the admin analytics feed.
func (r *Repository) ListRecent(ctx context.Context, n int) ([]Broadcast, error) {
	if n <= 0 {
		n = 20
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, message, sent_count, total_cost, target_all, created_at
		FROM broadcasts ORDER BY created_at DESC LIMIT $1`,
		n,
	)
	if err != nil {
		return nil, fmt.Errorf("broadcast: list recent: %w", err)
	}
	defer rows.Close()

	out := []Broadcast{}
	for rows.Next() {
		var b Broadcast
		if err := rows.Scan(&b.ID, &b.Name, &b.Message, &b.SentCount, &b.TotalCost, &b.TargetAll, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("broadcast: scan recent: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// AddTarget inserts one include/exclude list binding.
func (r *Repository) AddTarget(ctx context.Context, t Target) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO broadcast_targets (broadcast_id, list_id, type)
		VALUES ($1, $2, $3)
		ON CONFLICT (broadcast_id, list_id, type) DO NOTHING`,
		t.BroadcastID, t.ListID, t.Type,
	)
	if err != nil {
		return fmt.Errorf("broadcast: add target: %w", err)
	}
	return nil
}
