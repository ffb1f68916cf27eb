package handlers

import (
	"net/http"
	"time"

	"github.com/RabowNicholas/sanctuary-sms-tool/internal/delivery"
)

// HandleDeliveryStatusWebhook processes POST /api/webhooks/delivery-status,
// the provider's asynchronous report of an outbound send's final status.
func (h *Handlers) HandleDeliveryStatusWebhook(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		h.Metrics.ObserveWebhookLatency("delivery_status", time.Since(start).Seconds())
	}()

	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	sid := r.FormValue("MessageSid")
	status := r.FormValue("MessageStatus")
	if sid == "" || status == "" {
		writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	cb := delivery.Callback{
		ProviderMessageID: sid,
		ProviderStatus:    status,
		ErrorCode:         r.FormValue("ErrorCode"),
		ErrorMessage:      r.FormValue("ErrorMessage"),
	}

	if err := h.Reconciler.Apply(r.Context(), cb); err != nil {
		h.Logger.With("error", err).Warn("webhooks: delivery status reconciliation failed")
	} else {
		h.Metrics.ObserveOutbound(status)
	}

	w.WriteHeader(http.StatusOK)
}
