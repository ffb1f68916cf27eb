package handlers

import "net/http"

// HandleDashboardStats processes GET /api/dashboard/stats.
func (h *Handlers) HandleDashboardStats(w http.ResponseWriter, r *http.Request) {
	activeCount, err := h.Subscribers.CountActiveSubscribers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load dashboard stats")
		return
	}
	inboxStats, err := h.Inbox.GetStats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load dashboard stats")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"activeSubscribers":  activeCount,
		"unreadCount":        inboxStats.UnreadCount,
		"totalConversations": inboxStats.TotalConversations,
	})
}

// HandleDashboardMessages processes GET /api/dashboard/messages: a recent
// cross-subscriber activity feed for the admin home screen.
func (h *Handlers) HandleDashboardMessages(w http.ResponseWriter, r *http.Request) {
	n := atoiDefault(r.URL.Query().Get("limit"), 20)
	recent, err := h.Messages.ListRecent(r.Context(), n)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load recent messages")
		return
	}
	out := make([]messageView, len(recent))
	for i, m := range recent {
		out[i] = toMessageView(m)
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": out})
}
