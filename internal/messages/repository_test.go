package messages

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
	m := &Message{SubscriberID: uuid.New(), Direction: Inbound, Body: "hi", Status: StatusReceived}

	mock.ExpectExec("INSERT INTO messages").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Create(context.Background(), nil, m))
	require.NotEqual(t, uuid.Nil, m.ID)
}

func TestRepositoryUpdateStatusByProviderIDNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRepository(mock)

	mock.ExpectExec("UPDATE messages SET status").
		WithArgs("SM123", StatusDelivered).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err = repo.UpdateStatusByProviderID(context.Background(), "SM123", StatusDelivered)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRepositoryMostRecentInboundAtNoMessages(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRepository(mock)
	subID := uuid.New()

	mock.ExpectQuery("SELECT created_at FROM messages").
		WithArgs(subID, Inbound).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}))

	ts, err := repo.MostRecentInboundAt(context.Background(), subID)
	require.NoError(t, err)
	require.True(t, ts.IsZero())
}
