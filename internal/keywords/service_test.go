package keywords

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"
)

func alwaysExists(ctx context.Context, id uuid.UUID) (bool, error) { return true, nil }

func TestServiceCreateNormalizesKeyword(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRepository(mock)
	svc := NewService(repo, alwaysExists)

	listID := uuid.New()
	k := &SignupKeyword{Keyword: "  join  ", AutoResponse: "Welcome!", ListID: &listID}

	mock.ExpectQuery("SELECT (.|\n)* FROM signup_keywords").
		WillReturnRows(pgxmock.NewRows([]string{"id", "keyword", "list_id", "auto_response", "is_active", "created_at"}))
	mock.ExpectExec("INSERT INTO signup_keywords").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, svc.Create(context.Background(), k))
	require.Equal(t, "JOIN", k.Keyword)
}

func TestServiceCreateRejectsEmptyAutoResponse(t *testing.T) {
	svc := NewService(nil, alwaysExists)
	listID := uuid.New()
	k := &SignupKeyword{Keyword: "JOIN", AutoResponse: "  ", ListID: &listID}
	err := svc.Create(context.Background(), k)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestServiceCreateAllowsNilList(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRepository(mock)
	svc := NewService(repo, alwaysExists)
	k := &SignupKeyword{Keyword: "JOIN", AutoResponse: "hi"}

	mock.ExpectQuery("SELECT (.|\n)* FROM signup_keywords").
		WillReturnRows(pgxmock.NewRows([]string{"id", "keyword", "list_id", "auto_response", "is_active", "created_at"}))
	mock.ExpectExec("INSERT INTO signup_keywords").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, svc.Create(context.Background(), k))
}

func TestServiceCreateRejectsNonexistentList(t *testing.T) {
	notFound := func(ctx context.Context, id uuid.UUID) (bool, error) { return false, nil }
	svc := NewService(nil, notFound)
	listID := uuid.New()
	k := &SignupKeyword{Keyword: "JOIN", AutoResponse: "hi", ListID: &listID}
	err := svc.Create(context.Background(), k)
	require.ErrorIs(t, err, ErrInvalidInput)
}
