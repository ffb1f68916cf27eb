package lists

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

// Repository persists lists and list memberships in Postgres.
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

// Create inserts a new list.
func (r *Repository) Create(ctx context.Context, l *SubscriberList) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO subscriber_lists (id, name, description, created_at)
		VALUES ($1, $2, $3, $4)`,
		l.ID, l.Name, l.Description, l.CreatedAt,
	)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("lists: create: %w", err)
	}
	return nil
}

// Update renames or redescribes an existing list.
func (r *Repository) Update(ctx context.Context, l *SubscriberList) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE subscriber_lists SET name = $2, description = $3 WHERE id = $1`,
		l.ID, l.Name, l.Description,
	)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("lists: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a list, refusing if a signup keyword still references it.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	var inUse bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM signup_keywords WHERE list_id = $1)`, id,
	).Scan(&inUse)
	if err != nil {
		return fmt.Errorf("lists: check keyword reference: %w", err)
	}
	if inUse {
		return ErrInUse
	}

	tag, err := r.pool.Exec(ctx, `DELETE FROM subscriber_lists WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("lists: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID returns a single list by id.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*SubscriberList, error) {
	var l SubscriberList
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, description, created_at FROM subscriber_lists WHERE id = $1`, id,
	).Scan(&l.ID, &l.Name, &l.Description, &l.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lists: get: %w", err)
	}
	return &l, nil
}

// ListAll returns every list ordered by name.
func (r *Repository) ListAll(ctx context.Context) ([]SubscriberList, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, description, created_at FROM subscriber_lists ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("lists: list all: %w", err)
	}
	defer rows.Close()

	out := []SubscriberList{}
	for rows.Next() {
		var l SubscriberList
		if err := rows.Scan(&l.ID, &l.Name, &l.Description, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("lists: scan: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// AddMember idempotently enrolls a subscriber in a list.
func (r *Repository) AddMember(ctx context.Context, q store.Querier, listID, subscriberID uuid.UUID) error {
	_, err := r.querier(q).Exec(ctx, `
		INSERT INTO list_memberships (list_id, subscriber_id, added_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (list_id, subscriber_id) DO NOTHING`,
		listID, subscriberID, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("lists: add member: %w", err)
	}
	return nil
}

// RemoveMember removes a subscriber from a list.
func (r *Repository) RemoveMember(ctx context.Context, listID, subscriberID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM list_memberships WHERE list_id = $1 AND subscriber_id = $2`,
		listID, subscriberID,
	)
	if err != nil {
		return fmt.Errorf("lists: remove member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SubscriberIDsInLists returns the union of active subscriber ids belonging
// to any of the given lists, used by the broadcast engine's INCLUDE set.
func (r *Repository) SubscriberIDsInLists(ctx context.Context, listIDs []uuid.UUID) ([]uuid.UUID, error) {
	if len(listIDs) == 0 {
		return []uuid.UUID{}, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT s.id
		FROM subscribers s
		JOIN list_memberships m ON m.subscriber_id = s.id
		WHERE m.list_id = ANY($1) AND s.is_active = true`,
		listIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("lists: subscriber ids in lists: %w", err)
	}
	defer rows.Close()

	out := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("lists: scan subscriber id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
