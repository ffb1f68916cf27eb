package links

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/RabowNicholas/sanctuary-sms-tool/internal/store"
)

// Repository persists links and clicks in Postgres.
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

// Create inserts a link, returning ErrConflict if the short code is
// already taken so the caller can retry with a new one.
func (r *Repository) Create(ctx context.Context, q store.Querier, l *Link) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	_, err := r.querier(q).Exec(ctx, `
		INSERT INTO links (id, broadcast_id, short_code, target_url, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		l.ID, l.BroadcastID, l.ShortCode, l.TargetURL, l.CreatedAt,
	)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("links: create: %w", err)
	}
	return nil
}

// FindByShortCode looks up a link by its short code.
func (r *Repository) FindByShortCode(ctx context.Context, code string) (*Link, error) {
	var l Link
	err := r.pool.QueryRow(ctx, `
		SELECT id, broadcast_id, short_code, target_url, created_at
		FROM links WHERE short_code = $1`,
		code,
	).Scan(&l.ID, &l.BroadcastID, &l.ShortCode, &l.TargetURL, &l.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("links: find by short code: %w", err)
	}
	return &l, nil
}

// RecordClick inserts a click row, optionally attributed to a subscriber.
// Failures are the caller's to decide whether to surface or swallow — the
// redirector treats this as best-effort and never blocks a redirect on it.
func (r *Repository) RecordClick(ctx context.Context, linkID uuid.UUID, subscriberID *uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO link_clicks (id, link_id, subscriber_id, clicked_at) VALUES ($1, $2, $3, $4)`,
		uuid.New(), linkID, subscriberID, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("links: record click: %w", err)
	}
	return nil
}

// ClickCountsByBroadcast returns the number of clicks recorded against
// each link belonging to broadcastID, keyed by short code.
func (r *Repository) ClickCountsByBroadcast(ctx context.Context, broadcastID uuid.UUID) (map[string]int, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT l.short_code, count(c.id)
		FROM links l
		LEFT JOIN link_clicks c ON c.link_id = l.id
		WHERE l.broadcast_id = $1
		GROUP BY l.short_code`,
		broadcastID,
	)
	if err != nil {
		return nil, fmt.Errorf("links: click counts: %w", err)
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var code string
		var count int
		if err := rows.Scan(&code, &count); err != nil {
			return nil, fmt.Errorf("links: scan click count: %w", err)
		}
		out[code] = count
	}
	return out, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
