package keywords

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"
)

func TestRepositoryCreate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRepository(mock)
	k := &SignupKeyword{Keyword: "JOIN", AutoResponse: "Welcome!", IsActive: true}

	mock.ExpectExec("INSERT INTO signup_keywords").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Create(context.Background(), k))
	require.NotEqual(t, uuid.Nil, k.ID)
}

func TestRepositoryCreateConflict(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRepository(mock)
	k := &SignupKeyword{Keyword: "JOIN", IsActive: true}

	mock.ExpectExec("INSERT INTO signup_keywords").
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err = repo.Create(context.Background(), k)
	require.ErrorIs(t, err, ErrConflict)
}

func TestRepositoryUpdateNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRepository(mock)
	k := &SignupKeyword{ID: uuid.New(), Keyword: "JOIN", IsActive: true}

	mock.ExpectExec("UPDATE signup_keywords").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err = repo.Update(context.Background(), k)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRepositoryDelete(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRepository(mock)
	id := uuid.New()

	mock.ExpectExec("DELETE FROM signup_keywords").
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	require.NoError(t, repo.Delete(context.Background(), id))
}

func TestRepositoryFindByKeywordNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRepository(mock)

	mock.ExpectQuery("SELECT id, keyword, list_id, auto_response, is_active, created_at").
		WithArgs("STOP").
		WillReturnRows(pgxmock.NewRows([]string{"id", "keyword", "list_id", "auto_response", "is_active", "created_at"}))

	_, err = repo.FindByKeyword(context.Background(), "STOP")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRepositoryListAllEmpty(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRepository(mock)

	mock.ExpectQuery("SELECT id, keyword, list_id, auto_response, is_active, created_at").
		WillReturnRows(pgxmock.NewRows([]string{"id", "keyword", "list_id", "auto_response", "is_active", "created_at"}))

	out, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	require.Empty(t, out)
}
