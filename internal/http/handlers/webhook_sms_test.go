package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/RabowNicholas/sanctuary-sms-tool/internal/gateway"
	"github.com/RabowNicholas/sanctuary-sms-tool/internal/inbound"
	"github.com/RabowNicholas/sanctuary-sms-tool/internal/inbox"
	"github.com/RabowNicholas/sanctuary-sms-tool/internal/keywords"
	"github.com/RabowNicholas/sanctuary-sms-tool/internal/messages"
	"github.com/RabowNicholas/sanctuary-sms-tool/internal/observability/metrics"
	"github.com/RabowNicholas/sanctuary-sms-tool/internal/phonelock"
	"github.com/RabowNicholas/sanctuary-sms-tool/internal/subscribers"
	"github.com/RabowNicholas/sanctuary-sms-tool/internal/wiring"
	"github.com/RabowNicholas/sanctuary-sms-tool/pkg/logging"
)

type fakeGateway struct {
	sent []string
}

func (g *fakeGateway) Send(ctx context.Context, to, body string) (gateway.SendResult, error) {
	g.sent = append(g.sent, to+":"+body)
	return gateway.SendResult{}, nil
}

var _ gateway.SMSGateway = (*fakeGateway)(nil)

func newTestHandlers(t *testing.T) (*Handlers, pgxmock.PgxPoolIface) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	subsRepo := subscribers.NewRepository(mock)
	keywordsRepo := keywords.NewRepository(mock)
	messagesRepo := messages.NewRepository(mock)

	processor := inbound.New(
		&wiring.SubscriberRepo{Repo: subsRepo},
		noopEnroller{},
		&wiring.ActiveKeywordLister{Repo: keywordsRepo},
		"Welcome! Reply STOP to unsubscribe.",
	)

	h := &Handlers{
		Subscribers: subsRepo,
		Keywords:    keywordsRepo,
		Messages:    messagesRepo,
		Inbound:     processor,
		Inbox:       inbox.New(nil),
		Gateway:     &fakeGateway{},
		Locker:      phonelock.New(nil),
		Logger:      logging.New("error"),
		Metrics:     metrics.New(prometheus.NewRegistry()),
	}
	return h, mock
}

type noopEnroller struct{}

func (noopEnroller) EnrollIfSet(ctx context.Context, listID *uuid.UUID, subscriberID uuid.UUID, joinedVia string) error {
	return nil
}

func TestHandleSMSWebhookMissingFieldsReturns400(t *testing.T) {
	h, _ := newTestHandlers(t)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/sms", strings.NewReader(url.Values{
		"From": {"+15551234567"},
	}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()

	h.HandleSMSWebhook(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleSMSWebhookNewOptInWelcomesSubscriber(t *testing.T) {
	h, mock := newTestHandlers(t)

	mock.ExpectQuery("SELECT id, keyword, list_id, auto_response, is_active, created_at").
		WithArgs("JOIN").
		WillReturnRows(pgxmock.NewRows([]string{"id", "keyword", "list_id", "auto_response", "is_active", "created_at"}).
			AddRow(uuid.New(), "JOIN", nil, "Welcome to Sanctuary!", true, time.Now()))

	mock.ExpectQuery("SELECT id, phone_number, is_active, joined_at, last_read_at, joined_via_keyword, notifier_thread_ref").
		WillReturnRows(pgxmock.NewRows([]string{"id", "phone_number", "is_active", "joined_at", "last_read_at", "joined_via_keyword", "notifier_thread_ref"}))

	mock.ExpectQuery("INSERT INTO subscribers").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(uuid.New()))

	mock.ExpectQuery("SELECT id, phone_number, is_active, joined_at, last_read_at, joined_via_keyword, notifier_thread_ref").
		WillReturnRows(pgxmock.NewRows([]string{"id", "phone_number", "is_active", "joined_at", "last_read_at", "joined_via_keyword", "notifier_thread_ref"}).
			AddRow(uuid.New(), "+15551234567", true, time.Now(), nil, strPtr("JOIN"), nil))

	mock.ExpectExec("INSERT INTO messages").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	// the welcome auto-reply send, persisted as an OUTBOUND message row
	mock.ExpectExec("INSERT INTO messages").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	mock.ExpectExec("UPDATE subscribers SET last_read_at").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	req := httptest.NewRequest(http.MethodPost, "/webhooks/sms", strings.NewReader(url.Values{
		"From":      {"+15551234567"},
		"To":        {"+15559999999"},
		"Body":      {"JOIN"},
		"MessageSid": {"SM123"},
	}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()

	h.HandleSMSWebhook(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "Welcome")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleSMSWebhookInvalidFromReturnsEmptyTwiML(t *testing.T) {
	h, _ := newTestHandlers(t)
	locker := phonelock.New(nil)
	h.Locker = locker

	// A From that does not normalize to a phone number is answered with
	// empty TwiML before the lock is taken or anything is processed; lock
	// contention is covered by internal/phonelock's own tests.
	req := httptest.NewRequest(http.MethodPost, "/webhooks/sms", strings.NewReader(url.Values{
		"From": {"not-a-phone-number"},
		"To":   {"+15559999999"},
		"Body": {"hello"},
	}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()

	h.HandleSMSWebhook(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "<Response>")
}
