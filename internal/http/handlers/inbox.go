package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/RabowNicholas/sanctuary-sms-tool/internal/inbox"
)

type conversationView struct {
	SubscriberID uuid.UUID `json:"subscriberId"`
	PhoneNumber  string    `json:"phoneNumber"`
	PhoneDisplay string    `json:"phoneDisplay"`
	HasUnread    bool      `json:"hasUnread"`
	PreviewText  string    `json:"previewText"`
	PreviewAt    string    `json:"previewAt,omitempty"`
}

// HandleInboxList processes GET /api/inbox.
func (h *Handlers) HandleInboxList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := inbox.Filter(q.Get("filter"))
	if filter == "" {
		filter = inbox.FilterAll
	}
	limit := atoiDefault(q.Get("limit"), 50)
	offset := atoiDefault(q.Get("offset"), 0)

	convs, err := h.Inbox.List(r.Context(), filter, q.Get("search"), limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list inbox")
		return
	}

	out := make([]conversationView, len(convs))
	for i, c := range convs {
		view := conversationView{
			SubscriberID: c.SubscriberID,
			PhoneNumber:  c.PhoneNumber,
			PhoneDisplay: c.PhoneDisplay,
			HasUnread:    c.HasUnread,
			PreviewText:  c.PreviewText,
		}
		if !c.PreviewAt.IsZero() {
			view.PreviewAt = c.PreviewAt.Format("2006-01-02T15:04:05Z07:00")
		}
		out[i] = view
	}
	writeJSON(w, http.StatusOK, map[string]any{"conversations": out})
}

// HandleInboxStats processes GET /api/inbox/stats.
func (h *Handlers) HandleInboxStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Inbox.GetStats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load inbox stats")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"unreadCount":        stats.UnreadCount,
		"totalConversations": stats.TotalConversations,
	})
}

// HandleMarkRead processes POST /api/conversations/{id}/mark-read.
func (h *Handlers) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid conversation id")
		return
	}
	if err := h.Inbox.MarkRead(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to mark read")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// HandleMarkUnread processes POST /api/conversations/{id}/mark-unread.
func (h *Handlers) HandleMarkUnread(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid conversation id")
		return
	}
	if err := h.Inbox.MarkUnread(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to mark unread")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// HandleMarkAllRead processes POST /api/conversations/mark-all-read.
func (h *Handlers) HandleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	if err := h.Inbox.MarkAllRead(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to mark all read")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func atoiDefault(raw string, def int) int {
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
