package lists

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"
)

func TestRepositoryCreate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRepository(mock)
	l := &SubscriberList{Name: "Donors"}

	mock.ExpectExec("INSERT INTO subscriber_lists").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Create(context.Background(), l))
	require.NotEqual(t, uuid.Nil, l.ID)
}

func TestRepositoryDeleteRejectedWhenReferencedByKeyword(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRepository(mock)
	id := uuid.New()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	err = repo.Delete(context.Background(), id)
	require.ErrorIs(t, err, ErrInUse)
}

func TestRepositoryAddMemberIdempotent(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRepository(mock)
	listID, subID := uuid.New(), uuid.New()

	mock.ExpectExec("INSERT INTO list_memberships").
		WithArgs(listID, subID, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.AddMember(context.Background(), nil, listID, subID))
}

func TestRepositorySubscriberIDsInListsEmpty(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRepository(mock)
	ids, err := repo.SubscriberIDsInLists(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, ids)
}
