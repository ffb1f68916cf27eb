package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/RabowNicholas/sanctuary-sms-tool/internal/gateway"
	"github.com/RabowNicholas/sanctuary-sms-tool/internal/keywordrouter"
	"github.com/RabowNicholas/sanctuary-sms-tool/internal/messages"
	"github.com/RabowNicholas/sanctuary-sms-tool/internal/phoneutil"
	"github.com/RabowNicholas/sanctuary-sms-tool/internal/subscribers"
)

// twimlEmpty is the bare response Twilio expects when there is nothing to
// say back to the sender.
const twimlEmpty = `<?xml version="1.0" encoding="UTF-8"?><Response></Response>`

func twiml(text string) string {
	if text == "" {
		return twimlEmpty
	}
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?><Response><Message>%s</Message></Response>`, escapeXML(text))
}

func escapeXML(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '&':
			out = append(out, []byte("&amp;")...)
		case '<':
			out = append(out, []byte("&lt;")...)
		case '>':
			out = append(out, []byte("&gt;")...)
		default:
			out = append(out, s[i])
		}
	}
	return string(out)
}

func writeTwiML(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

// HandleSMSWebhook processes POST /api/webhooks/sms. A malformed request
// (missing From, To or Body) gets a 400 JSON error, and a failed signature
// check (when verification is enabled) gets a 401. Once a request is
// accepted, it answers 200 with TwiML even on internal failure, so the
// provider never retries an inbound delivery it already accepted.
func (h *Handlers) HandleSMSWebhook(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		h.Metrics.ObserveWebhookLatency("sms", time.Since(start).Seconds())
	}()

	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	from := r.FormValue("From")
	to := r.FormValue("To")
	body := r.FormValue("Body")
	providerMessageID := r.FormValue("MessageSid")

	if from == "" || to == "" || body == "" {
		writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	if h.WebhookSignatureVerify {
		if verifier, ok := h.Gateway.(gateway.SignatureVerifier); ok {
			webhookURL := h.WebhookBaseURL + r.URL.Path
			if !verifier.VerifySignature(r.Header.Get("X-Twilio-Signature"), webhookURL, r.PostForm) {
				writeError(w, http.StatusUnauthorized, "invalid signature")
				return
			}
		}
	}

	ctx := r.Context()
	fromPhone, err := phoneutil.Normalize(from)
	if err != nil {
		writeTwiML(w, twimlEmpty)
		return
	}

	lockHandle, acquired, err := h.Locker.Acquire(ctx, fromPhone)
	if err != nil {
		h.Logger.With("error", err).Warn("webhooks: failed to acquire phone lock")
	} else if !acquired {
		// A webhook for this number is already in flight; Twilio will not
		// retry a 200, so this is almost always a provider-side duplicate
		// delivery rather than a genuine second message.
		writeTwiML(w, twimlEmpty)
		return
	} else {
		defer func() {
			if err := h.Locker.Release(ctx, lockHandle); err != nil {
				h.Logger.With("error", err).Warn("webhooks: failed to release phone lock")
			}
		}()
	}

	lookup := h.keywordLookup(ctx)
	routed := keywordrouter.Route(body, lookup)
	h.Metrics.ObserveInbound(intentLabel(routed.Intent))

	decision, err := h.Inbound.Process(ctx, fromPhone, routed)
	if err != nil {
		h.Logger.With("error", err).Warn("webhooks: inbound processing failed")
		writeTwiML(w, twimlEmpty)
		return
	}

	sub, lookupErr := h.Subscribers.FindByPhone(ctx, fromPhone)
	if lookupErr == nil && sub != nil {
		in := &messages.Message{
			SubscriberID:      sub.ID,
			Direction:         messages.Inbound,
			Body:              body,
			Status:            messages.StatusReceived,
			ProviderMessageID: strPtr(providerMessageID),
			SegmentCount:      segmentsFor(body),
		}
		if err := h.Messages.Create(ctx, nil, in); err != nil {
			h.Logger.With("error", err).Warn("webhooks: failed to log inbound message")
		} else {
			h.Inbox.InvalidateStats(ctx)
		}
	}

	if decision.Notify != nil && h.EnableSMSNotifications && h.Notifier != nil {
		threadRef, err := h.Notifier.Post(ctx, decision.Notify.Text, decision.Notify.ThreadRef)
		if err != nil {
			h.Logger.With("error", err).Warn("webhooks: failed to post notification")
		} else if decision.Notify.ThreadRef == nil && threadRef != "" && sub != nil {
			if err := h.adoptThreadRef(ctx, sub, threadRef); err != nil {
				h.Logger.With("error", err).Warn("webhooks: failed to adopt notifier thread ref")
			}
		}
	}

	if routed.Intent == keywordrouter.Conversational && decision.Notify != nil && h.AdminPhoneNumber != "" && h.EnableSMSNotifications {
		deepLink := h.PublicBaseURL
		if sub != nil {
			deepLink = fmt.Sprintf("%s/inbox/%s", h.PublicBaseURL, sub.ID)
		}
		courtesy := fmt.Sprintf("New message from %s: %s", fromPhone, deepLink)
		if _, err := h.Gateway.Send(ctx, h.AdminPhoneNumber, courtesy); err != nil {
			h.Logger.With("error", err).Warn("webhooks: failed to send admin courtesy sms")
		}
	}

	if decision.AutoReply != "" {
		result, err := h.Gateway.Send(ctx, fromPhone, decision.AutoReply)
		if err != nil {
			h.Logger.With("error", err).Warn("webhooks: failed to send auto-reply")
		} else {
			h.Metrics.ObserveOutbound("sent")
			if sub != nil {
				out := &messages.Message{
					SubscriberID:      sub.ID,
					Direction:         messages.Outbound,
					Body:              decision.AutoReply,
					Status:            messages.StatusSent,
					ProviderMessageID: strPtr(result.ProviderMessageID),
					SegmentCount:      segmentsFor(decision.AutoReply),
				}
				if err := h.Messages.Create(ctx, nil, out); err != nil {
					h.Logger.With("error", err).Warn("webhooks: failed to log auto-reply message")
				} else {
					h.Inbox.InvalidateStats(ctx)
				}
			}
		}

		if decision.MarkReadNow && sub != nil {
			if err := h.Subscribers.MarkRead(ctx, sub.ID); err != nil {
				h.Logger.With("error", err).Warn("webhooks: failed to mark read")
			}
		}

		writeTwiML(w, twiml(decision.AutoReply))
		return
	}

	if decision.MarkReadNow && sub != nil {
		if err := h.Subscribers.MarkRead(ctx, sub.ID); err != nil {
			h.Logger.With("error", err).Warn("webhooks: failed to mark read")
		}
	}

	writeTwiML(w, twimlEmpty)
}

// adoptThreadRef records threadRef as the subscriber's notifier thread
// reference on first write, mirroring inbound.Processor.AdoptThreadRef's
// first-write-wins contract against the concrete repository.
func (h *Handlers) adoptThreadRef(ctx context.Context, sub *subscribers.Subscriber, threadRef string) error {
	if sub.NotifierThreadRef != nil {
		return nil
	}
	sub.NotifierThreadRef = &threadRef
	return h.Subscribers.Update(ctx, nil, sub)
}

func intentLabel(i keywordrouter.Intent) string {
	switch i {
	case keywordrouter.OptIn:
		return "opt_in"
	case keywordrouter.OptOut:
		return "opt_out"
	default:
		return "conversational"
	}
}

func segmentsFor(body string) int {
	const segmentSize = 160
	if len(body) == 0 {
		return 1
	}
	n := len(body) / segmentSize
	if len(body)%segmentSize != 0 {
		n++
	}
	return n
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (h *Handlers) keywordLookup(ctx context.Context) keywordrouter.Lookup {
	return func(normalized string) (keywordrouter.Keyword, bool) {
		k, err := h.Keywords.FindByKeyword(ctx, normalized)
		if err != nil {
			return keywordrouter.Keyword{}, false
		}
		return keywordrouter.Keyword{Text: k.Keyword, AutoResponse: k.AutoResponse, ListID: k.ListID}, true
	}
}
