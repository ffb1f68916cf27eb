package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"

	"github.com/RabowNicholas/sanctuary-sms-tool/internal/broadcast"
	"github.com/RabowNicholas/sanctuary-sms-tool/internal/observability/metrics"
	"github.com/RabowNicholas/sanctuary-sms-tool/internal/subscribers"
	"github.com/RabowNicholas/sanctuary-sms-tool/pkg/logging"
)

type fakeAudience struct{ recipients []broadcast.Recipient }

func (f *fakeAudience) ResolveAudience(ctx context.Context, targetAll bool, targetListIDs, excludeListIDs []uuid.UUID) ([]broadcast.Recipient, error) {
	return f.recipients, nil
}

type fakeBroadcastGateway struct{}

func (fakeBroadcastGateway) Send(ctx context.Context, to, body string) (broadcast.SendResult, error) {
	return broadcast.SendResult{ProviderMessageID: "SM-" + to}, nil
}

type passthroughTokenizer struct{}

func (passthroughTokenizer) Tokenize(ctx context.Context, body string, broadcastID uuid.UUID, approved map[string]bool) (string, []broadcast.TokenizedLink) {
	return body, nil
}

type noopRecorder struct{}

func (noopRecorder) RecordOutbound(ctx context.Context, subscriberID, broadcastID uuid.UUID, body string, providerMessageID *string, status string) error {
	return nil
}

type noopBroadcastRepo struct{}

func (noopBroadcastRepo) Create(ctx context.Context, b *broadcast.Broadcast) error {
	b.ID = uuid.New()
	return nil
}
func (noopBroadcastRepo) AddTarget(ctx context.Context, t broadcast.Target) error { return nil }
func (noopBroadcastRepo) UpdateSentCount(ctx context.Context, id uuid.UUID, sentCount int) error {
	return nil
}

// counterValue walks a registry's gathered families for the named counter
// carrying the given label set. Used here instead of testutil.ToFloat64
// because the Metrics struct keeps its CounterVecs unexported.
func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if labelPairsMatch(m.GetLabel(), labels) {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func labelPairsMatch(pairs []*dto.LabelPair, want map[string]string) bool {
	if len(pairs) != len(want) {
		return false
	}
	for _, p := range pairs {
		if want[p.GetName()] != p.GetValue() {
			return false
		}
	}
	return true
}

// TestHandleBroadcastReportsRecipientOutcomeExactlyOnce guards against the
// handler double-reporting broadcast metrics on top of the engine's own
// per-recipient observation callback: one "sent" increment per recipient
// actually sent to, not one extra per dispatch.
func TestHandleBroadcastReportsRecipientOutcomeExactlyOnce(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	recipients := []broadcast.Recipient{
		{SubscriberID: uuid.New(), PhoneNumber: "+15551111111"},
		{SubscriberID: uuid.New(), PhoneNumber: "+15552222222"},
	}
	engine := broadcast.New(
		&fakeAudience{recipients: recipients},
		fakeBroadcastGateway{},
		passthroughTokenizer{},
		noopRecorder{},
		noopBroadcastRepo{},
		0.0083,
		4,
		m.ObserveBroadcastRecipient,
		logging.New("error"),
	)

	h := &Handlers{
		Broadcast: engine,
		Metrics:   m,
		Logger:    logging.New("error"),
	}

	body := bytes.NewBufferString(`{"message":"hello everyone","targetAll":true}`)
	req := httptest.NewRequest(http.MethodPost, "/api/broadcast", body)
	w := httptest.NewRecorder()

	h.HandleBroadcast(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"sentTo":2`)
	require.Equal(t, float64(2), counterValue(t, registry, "sanctuary_broadcast_recipients_total", map[string]string{"outcome": "sent"}))
	require.Equal(t, float64(0), counterValue(t, registry, "sanctuary_broadcast_recipients_total", map[string]string{"outcome": "failed"}))
}

func TestHandleBroadcastTestSendsToSingleRecipient(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	engine := broadcast.New(
		&fakeAudience{},
		fakeBroadcastGateway{},
		passthroughTokenizer{},
		noopRecorder{},
		noopBroadcastRepo{},
		0.0083,
		4,
		m.ObserveBroadcastRecipient,
		logging.New("error"),
	)

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	mock.ExpectQuery("SELECT id, phone_number, is_active, joined_at, last_read_at, joined_via_keyword, notifier_thread_ref").
		WithArgs("+15553334444").
		WillReturnError(subscribers.ErrNotFound)

	h := &Handlers{
		Broadcast:   engine,
		Subscribers: subscribers.NewRepository(mock),
		Metrics:     m,
		Logger:      logging.New("error"),
	}

	body := bytes.NewBufferString(`{"message":"test send","toPhoneNumber":"+15553334444"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/broadcast/test", body)
	w := httptest.NewRecorder()

	h.HandleBroadcastTest(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"sentTo":1`)
	require.Equal(t, float64(1), counterValue(t, registry, "sanctuary_broadcast_recipients_total", map[string]string{"outcome": "sent"}))
}

func TestHandleBroadcastTestMissingPhoneNumberReturns400(t *testing.T) {
	h := &Handlers{
		Broadcast: broadcast.New(&fakeAudience{}, fakeBroadcastGateway{}, passthroughTokenizer{}, noopRecorder{}, noopBroadcastRepo{}, 0.0083, 4, nil, logging.New("error")),
		Metrics:   metrics.New(prometheus.NewRegistry()),
		Logger:    logging.New("error"),
	}

	body := bytes.NewBufferString(`{"message":"test send"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/broadcast/test", body)
	w := httptest.NewRecorder()

	h.HandleBroadcastTest(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}
