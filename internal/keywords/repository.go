package keywords

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

// Repository persists signup keywords in Postgres.
type Repository struct {
	pool store.Pool
}

func NewRepository(pool store.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new keyword.
func (r *Repository) Create(ctx context.Context, k *SignupKeyword) error {
	if k.ID == uuid.Nil {
		k.ID = uuid.New()
	}
	if k.CreatedAt.IsZero() {
		k.CreatedAt = time.Now().UTC()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO signup_keywords (id, keyword, list_id, auto_response, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		k.ID, k.Keyword, k.ListID, k.AutoResponse, k.IsActive, k.CreatedAt,
	)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("keywords: create: %w", err)
	}
	return nil
}

// Update persists every mutable field of k, rejecting if another row now
// owns the keyword text.
func (r *Repository) Update(ctx context.Context, k *SignupKeyword) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE signup_keywords
		SET keyword = $2, list_id = $3, auto_response = $4, is_active = $5
		WHERE id = $1`,
		k.ID, k.Keyword, k.ListID, k.AutoResponse, k.IsActive,
	)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("keywords: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a keyword.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM signup_keywords WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("keywords: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// FindByKeyword looks up an active keyword by its normalized text,
// returning ErrNotFound if absent or inactive.
func (r *Repository) FindByKeyword(ctx context.Context, keyword string) (*SignupKeyword, error) {
	var k SignupKeyword
	err := r.pool.QueryRow(ctx, `
		SELECT id, keyword, list_id, auto_response, is_active, created_at
		FROM signup_keywords
		WHERE keyword = $1 AND is_active = true`,
		keyword,
	).Scan(&k.ID, &k.Keyword, &k.ListID, &k.AutoResponse, &k.IsActive, &k.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("keywords: find by keyword: %w", err)
	}
	return &k, nil
}

// FindByKeywordExcludingID looks up any row (active or not) with the given
// keyword text other than id, used to validate update-time uniqueness.
func (r *Repository) FindByKeywordExcludingID(ctx context.Context, keyword string, id uuid.UUID) (*SignupKeyword, error) {
	var k SignupKeyword
	err := r.pool.QueryRow(ctx, `
		SELECT id, keyword, list_id, auto_response, is_active, created_at
		FROM signup_keywords
		WHERE keyword = $1 AND id != $2`,
		keyword, id,
	).Scan(&k.ID, &k.Keyword, &k.ListID, &k.AutoResponse, &k.IsActive, &k.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("keywords: find by keyword excluding id: %w", err)
	}
	return &k, nil
}

// ListAll returns every keyword ordered by keyword text.
func (r *Repository) ListAll(ctx context.Context) ([]SignupKeyword, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, keyword, list_id, auto_response, is_active, created_at
		FROM signup_keywords ORDER BY keyword ASC`)
	if err != nil {
		return nil, fmt.Errorf("keywords: list all: %w", err)
	}
	defer rows.Close()

	out := []SignupKeyword{}
	for rows.Next() {
		var k SignupKeyword
		if err := rows.Scan(&k.ID, &k.Keyword, &k.ListID, &k.AutoResponse, &k.IsActive, &k.CreatedAt); err != nil {
			return nil, fmt.Errorf("keywords: scan: %w", err)
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
