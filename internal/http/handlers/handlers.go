// Package handlers implements the HTTP surface: inbound/delivery
// webhooks, the short-link redirect, broadcast dispatch, and the admin
// CRUD surfaces over subscribers, lists, keywords, settings, and the
// inbox.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/RabowNicholas/sanctuary-sms-tool/internal/appconfig"
	"github.com/RabowNicholas/sanctuary-sms-tool/internal/broadcast"
	"github.com/RabowNicholas/sanctuary-sms-tool/internal/clickredirect"
	"github.com/RabowNicholas/sanctuary-sms-tool/internal/delivery"
	"github.com/RabowNicholas/sanctuary-sms-tool/internal/gateway"
	"github.com/RabowNicholas/sanctuary-sms-tool/internal/inbound"
	"github.com/RabowNicholas/sanctuary-sms-tool/internal/inbox"
	"github.com/RabowNicholas/sanctuary-sms-tool/internal/keywords"
	"github.com/RabowNicholas/sanctuary-sms-tool/internal/links"
	"github.com/RabowNicholas/sanctuary-sms-tool/internal/lists"
	"github.com/RabowNicholas/sanctuary-sms-tool/internal/messages"
	"github.com/RabowNicholas/sanctuary-sms-tool/internal/notifier"
	"github.com/RabowNicholas/sanctuary-sms-tool/internal/observability/metrics"
	"github.com/RabowNicholas/sanctuary-sms-tool/internal/phonelock"
	"github.com/RabowNicholas/sanctuary-sms-tool/internal/store"
	"github.com/RabowNicholas/sanctuary-sms-tool/internal/subscribers"
	"github.com/RabowNicholas/sanctuary-sms-tool/pkg/logging"
)

// Handlers bundles every dependency the HTTP surface dispatches into. It
// is constructed once at startup and its methods are registered onto the
// chi router.
type Handlers struct {
	Subscribers   *subscribers.Repository
	SubscriberSvc *subscribers.Service
	Lists         *lists.Repository
	Keywords      *keywords.Repository
	KeywordSvc    *keywords.Service
	Messages      *messages.Repository
	AppConfig     *appconfig.Repository
	Links         *links.Repository

	Inbound       *inbound.Processor
	Broadcast     *broadcast.Engine
	BroadcastRepo *broadcast.Repository
	Reconciler    *delivery.Reconciler
	Redirector    *clickredirect.Redirector
	Inbox         *inbox.Projector

	Gateway  gateway.SMSGateway
	Notifier notifier.Notifier
	Pool     store.Pool
	Locker   *phonelock.Locker

	Logger  *logging.Logger
	Metrics *metrics.Metrics

	PublicBaseURL          string
	WebhookBaseURL         string // origin the webhook was registered against, for signature verification
	AdminPhoneNumber       string
	EnableSMSNotifications bool
	WebhookSignatureVerify bool
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// statusFor classifies a domain sentinel error into an HTTP status per the
// shared {NotFound:404, Conflict:409, InvalidInput:400} taxonomy.
func statusFor(err error) int {
	switch {
	case errors.Is(err, subscribers.ErrNotFound),
		errors.Is(err, lists.ErrNotFound),
		errors.Is(err, keywords.ErrNotFound),
		errors.Is(err, links.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, subscribers.ErrConflict),
		errors.Is(err, lists.ErrConflict),
		errors.Is(err, keywords.ErrConflict),
		errors.Is(err, lists.ErrInUse):
		return http.StatusConflict
	case errors.Is(err, subscribers.ErrInvalidInput),
		errors.Is(err, lists.ErrInvalidInput),
		errors.Is(err, keywords.ErrInvalidInput),
		errors.Is(err, broadcast.ErrInvalidInput),
		errors.Is(err, broadcast.ErrEmptyAudience):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
