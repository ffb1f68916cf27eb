package subscribers

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

// Repository persists subscribers in Postgres.
type Repository struct {
	pool store.Pool
}

// NewRepository builds a Repository backed by pool.
func NewRepository(pool store.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListFilter controls Repository.List.
type ListFilter struct {
	Search     string // matched against phone number, case-insensitive substring
	ActiveOnly bool
	ListID     *uuid.UUID
	Limit      int
	Offset     int
}

func (r *Repository) querier(q store.Querier) store.Querier {
	if q != nil {
		return q
	}
	return r.pool
}

// Create inserts a new subscriber.
func (r *Repository) Create(ctx context.Context, q store.Querier, s *Subscriber) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.JoinedAt.IsZero() {
		s.JoinedAt = time.Now().UTC()
	}
	err := r.querier(q).QueryRow(ctx, `
		INSERT INTO subscribers (id, phone_number, is_active, joined_at, last_read_at, joined_via_keyword, notifier_thread_ref)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		s.ID, s.PhoneNumber, s.IsActive, s.JoinedAt, s.LastReadAt, s.JoinedViaKeyword, s.NotifierThreadRef,
	).Scan(&s.ID)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("subscribers: create: %w", err)
	}
	return nil
}

// Update persists every mutable field of s.
func (r *Repository) Update(ctx context.Context, q store.Querier, s *Subscriber) error {
	tag, err := r.querier(q).Exec(ctx, `
		UPDATE subscribers
		SET is_active = $2, last_read_at = $3, joined_via_keyword = $4, notifier_thread_ref = $5
		WHERE id = $1`,
		s.ID, s.IsActive, s.LastReadAt, s.JoinedViaKeyword, s.NotifierThreadRef,
	)
	if err != nil {
		return fmt.Errorf("subscribers: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// FindByPhone returns the subscriber with the given canonical phone number,
// or ErrNotFound.
func (r *Repository) FindByPhone(ctx context.Context, phone string) (*Subscriber, error) {
	return r.scanOne(r.querier(nil).QueryRow(ctx, selectSubscriberSQL+" WHERE phone_number = $1", phone))
}

// GetByID returns the subscriber with the given id, or ErrNotFound.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Subscriber, error) {
	return r.scanOne(r.querier(nil).QueryRow(ctx, selectSubscriberSQL+" WHERE id = $1", id))
}

const selectSubscriberSQL = `
	SELECT id, phone_number, is_active, joined_at, last_read_at, joined_via_keyword, notifier_thread_ref
	FROM subscribers`

func (r *Repository) scanOne(row pgx.Row) (*Subscriber, error) {
	var s Subscriber
	err := row.Scan(&s.ID, &s.PhoneNumber, &s.IsActive, &s.JoinedAt, &s.LastReadAt, &s.JoinedViaKeyword, &s.NotifierThreadRef)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("subscribers: scan: %w", err)
	}
	return &s, nil
}

// ListAllActive returns every active subscriber ordered by joinedAt asc —
// the default broadcast INCLUDE set when targeting everyone.
func (r *Repository) ListAllActive(ctx context.Context) ([]Subscriber, error) {
	rows, err := r.querier(nil).Query(ctx, selectSubscriberSQL+` WHERE is_active = true ORDER BY joined_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("subscribers: list active: %w", err)
	}
	return scanAll(rows)
}

// List returns a page of subscribers for the admin roster view, plus the
// total row count matching filter (for pagination).
func (r *Repository) List(ctx context.Context, f ListFilter) ([]Subscriber, int, error) {
	where := "WHERE 1=1"
	args := []any{}
	argN := 1
	if f.ActiveOnly {
		where += " AND is_active = true"
	}
	if f.Search != "" {
		where += fmt.Sprintf(" AND phone_number ILIKE $%d", argN)
		args = append(args, "%"+f.Search+"%")
		argN++
	}
	if f.ListID != nil {
		where += fmt.Sprintf(" AND id IN (SELECT subscriber_id FROM list_memberships WHERE list_id = $%d)", argN)
		args = append(args, *f.ListID)
		argN++
	}

	var total int
	if err := r.querier(nil).QueryRow(ctx, "SELECT count(*) FROM subscribers "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("subscribers: count: %w", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	query := selectSubscriberSQL + " " + where + fmt.Sprintf(" ORDER BY joined_at DESC LIMIT $%d OFFSET $%d", argN, argN+1)
	args = append(args, limit, f.Offset)

	rows, err := r.querier(nil).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("subscribers: list: %w", err)
	}
	list, err := scanAll(rows)
	return list, total, err
}

// MarkRead sets the subscriber's read watermark to now, closing the
// unread window InboxProjector evaluates.
func (r *Repository) MarkRead(ctx context.Context, subscriberID uuid.UUID) error {
	return r.SetLastReadAt(ctx, subscriberID, timePtr(time.Now().UTC()))
}

// SetLastReadAt sets (or, with a nil at, clears) the subscriber's read
// watermark.
func (r *Repository) SetLastReadAt(ctx context.Context, subscriberID uuid.UUID, at *time.Time) error {
	tag, err := r.querier(nil).Exec(ctx, `UPDATE subscribers SET last_read_at = $2 WHERE id = $1`, subscriberID, at)
	if err != nil {
		return fmt.Errorf("subscribers: set last read at: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetLastReadAtForAllActive closes the unread window for every active
// subscriber at once, backing markAllRead.
func (r *Repository) SetLastReadAtForAllActive(ctx context.Context, at time.Time) error {
	_, err := r.querier(nil).Exec(ctx, `UPDATE subscribers SET last_read_at = $1 WHERE is_active = true`, at)
	if err != nil {
		return fmt.Errorf("subscribers: set last read at for all active: %w", err)
	}
	return nil
}

// ListActiveSubscribers returns a page of active subscribers ordered by
// joinedAt desc, optionally filtered by a phone-number substring — the
// source rows InboxProjector.List builds conversation previews from.
func (r *Repository) ListActiveSubscribers(ctx context.Context, search string, limit, offset int) ([]Subscriber, error) {
	if limit <= 0 {
		limit = 50
	}
	where := "WHERE is_active = true"
	args := []any{}
	argN := 1
	if search != "" {
		where += fmt.Sprintf(" AND phone_number ILIKE $%d", argN)
		args = append(args, "%"+search+"%")
		argN++
	}
	query := selectSubscriberSQL + " " + where + fmt.Sprintf(" ORDER BY joined_at DESC LIMIT $%d OFFSET $%d", argN, argN+1)
	args = append(args, limit, offset)

	rows, err := r.querier(nil).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("subscribers: list active: %w", err)
	}
	return scanAll(rows)
}

// CountActiveSubscribers returns the total number of active subscribers.
func (r *Repository) CountActiveSubscribers(ctx context.Context) (int, error) {
	var n int
	err := r.querier(nil).QueryRow(ctx, `SELECT count(*) FROM subscribers WHERE is_active = true`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("subscribers: count active: %w", err)
	}
	return n, nil
}

// CountActiveSubscribersWithUnread returns the number of active
// subscribers with at least one inbound message postdating their read
// watermark, computed directly in SQL per the InboxProjector predicate.
func (r *Repository) CountActiveSubscribersWithUnread(ctx context.Context) (int, error) {
	var n int
	err := r.querier(nil).QueryRow(ctx, `
		SELECT count(*)
		FROM subscribers s
		WHERE s.is_active = true
		AND EXISTS (
			SELECT 1 FROM messages m
			WHERE m.subscriber_id = s.id
			AND m.direction = 'inbound'
			AND m.created_at > COALESCE(s.last_read_at, 'epoch'::timestamptz)
		)`,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("subscribers: count active with unread: %w", err)
	}
	return n, nil
}

func timePtr(t time.Time) *time.Time { return &t }

func scanAll(rows pgx.Rows) ([]Subscriber, error) {
	defer rows.Close()
	var out []Subscriber
	for rows.Next() {
		var s Subscriber
		if err := rows.Scan(&s.ID, &s.PhoneNumber, &s.IsActive, &s.JoinedAt, &s.LastReadAt, &s.JoinedViaKeyword, &s.NotifierThreadRef); err != nil {
			return nil, fmt.Errorf("subscribers: scan row: %w", err)
		}
		out = append(out, s)
	}
	if out == nil {
		out = []Subscriber{}
	}
	return out, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
