package appconfig

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/RabowNicholas/sanctuary-sms-tool/internal/store"
)

// Repository persists the app_config singleton row.
type Repository struct {
	pool store.Pool
}

func NewRepository(pool store.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetOrSeed returns the current settings row, inserting a seed row built
// from defaultWelcome when no row exists yet.
func (r *Repository) GetOrSeed(ctx context.Context, defaultWelcome string) (*AppConfig, error) {
	cfg, err := r.get(ctx)
	if errors.Is(err, pgx.ErrNoRows) {
		seeded := Defaults(defaultWelcome)
		if err := r.insert(ctx, &seeded); err != nil {
			return nil, err
		}
		return &seeded, nil
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func (r *Repository) get(ctx context.Context) (*AppConfig, error) {
	var c AppConfig
	err := r.pool.QueryRow(ctx, `
		SELECT welcome_message, opt_out_message, help_message, updated_at
		FROM app_config WHERE id = $1`,
		singletonID,
	).Scan(&c.WelcomeMessage, &c.OptOutMessage, &c.HelpMessage, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *Repository) insert(ctx context.Context, c *AppConfig) error {
	c.UpdatedAt = time.Now().UTC()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO app_config (id, welcome_message, opt_out_message, help_message, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING`,
		singletonID, c.WelcomeMessage, c.OptOutMessage, c.HelpMessage, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("appconfig: seed: %w", err)
	}
	return nil
}

// Update overwrites the settings row with c.
func (r *Repository) Update(ctx context.Context, c *AppConfig) error {
	c.UpdatedAt = time.Now().UTC()
	_, err := r.pool.Exec(ctx, `
		UPDATE app_config
		SET welcome_message = $2, opt_out_message = $3, help_message = $4, updated_at = $5
		WHERE id = $1`,
		singletonID, c.WelcomeMessage, c.OptOutMessage, c.HelpMessage, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("appconfig: update: %w", err)
	}
	return nil
}
