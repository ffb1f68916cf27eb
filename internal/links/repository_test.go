package links

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"
)

func TestRepositoryCreateConflict(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRepository(mock)
	l := &Link{BroadcastID: uuid.New(), ShortCode: "AB12CD34", TargetURL: "https://example.com"}

	mock.ExpectExec("INSERT INTO links").
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err = repo.Create(context.Background(), nil, l)
	require.ErrorIs(t, err, ErrConflict)
}

func TestRepositoryFindByShortCodeNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRepository(mock)

	mock.ExpectQuery("SELECT (.|\n)* FROM links").
		WithArgs("ZZZZZZZZ").
		WillReturnRows(pgxmock.NewRows([]string{"id", "broadcast_id", "short_code", "target_url", "created_at"}))

	_, err = repo.FindByShortCode(context.Background(), "ZZZZZZZZ")
	require.ErrorIs(t, err, ErrNotFound)
}
