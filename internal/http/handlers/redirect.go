package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/RabowNicholas/sanctuary-sms-tool/internal/clickredirect"
)

// HandleRedirect processes GET /sanctuary/{code}, resolving a short link
// and recording the click before redirecting the browser.
func (h *Handlers) HandleRedirect(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	var subscriberID *uuid.UUID
	if raw := r.URL.Query().Get("sid"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			subscriberID = &id
		}
	}

	target, err := h.Redirector.Resolve(r.Context(), code, subscriberID)
	if err != nil {
		if errors.Is(err, clickredirect.ErrNotFound) {
			w.Header().Set("Content-Type", "text/html")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(clickredirect.NotFoundHTML))
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to resolve link")
		return
	}

	h.Metrics.ObserveClick()
	http.Redirect(w, r, target, http.StatusPermanentRedirect)
}
