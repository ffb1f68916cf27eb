package subscribers

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"
)

func TestServiceImportRejectsInvalidFormat(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRepository(mock)
	svc := NewService(repo, mock, nil)

	results, err := svc.Import(context.Background(), []string{"123"}, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, ImportRejectedInvalid, results[0].Outcome)
}

func TestServiceImportRejectsOversizedBatch(t *testing.T) {
	svc := NewService(nil, nil, nil)
	huge := make([]string, MaxBulkImport+1)
	_, err := svc.Import(context.Background(), huge, nil)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestServiceImportSkipsDuplicate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRepository(mock)
	svc := NewService(repo, mock, nil)

	mock.ExpectQuery("SELECT (.|\n)* FROM subscribers WHERE phone_number = \\$1").
		WithArgs("+15551234567").
		WillReturnRows(pgxmock.NewRows([]string{"id", "phone_number", "is_active", "joined_at", "last_read_at", "joined_via_keyword", "notifier_thread_ref"}).
			AddRow(uuid.New(), "+15551234567", true, time.Now().UTC(), nil, nil, nil))

	results, err := svc.Import(context.Background(), []string{"5551234567"}, nil)
	require.NoError(t, err)
	require.Equal(t, ImportSkippedDuplicate, results[0].Outcome)
}

func TestServiceImportAddsNewSubscriber(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRepository(mock)
	svc := NewService(repo, mock, nil)

	mock.ExpectQuery("SELECT (.|\n)* FROM subscribers WHERE phone_number = \\$1").
		WithArgs("+15551234567").
		WillReturnRows(pgxmock.NewRows([]string{"id", "phone_number", "is_active", "joined_at", "last_read_at", "joined_via_keyword", "notifier_thread_ref"}))

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO subscribers").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(uuid.New()))
	mock.ExpectCommit()

	results, err := svc.Import(context.Background(), []string{"5551234567"}, nil)
	require.NoError(t, err)
	require.Equal(t, ImportAdded, results[0].Outcome)
}
