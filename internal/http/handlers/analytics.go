package handlers

import (
	"fmt"
	"net/http"
)

type broadcastAnalyticsView struct {
	ID           string         `json:"id"`
	CampaignName string         `json:"campaignName"`
	SentTo       int            `json:"sentTo"`
	TotalCost    string         `json:"totalCost"`
	TargetAll    bool           `json:"targetAll"`
	CreatedAt    string         `json:"createdAt"`
	ClickCounts  map[string]int `json:"clickCounts"`
}

// HandleAnalytics processes GET /api/analytics: broadcast send history
// with per-link click counts.
func (h *Handlers) HandleAnalytics(w http.ResponseWriter, r *http.Request) {
	n := atoiDefault(r.URL.Query().Get("limit"), 20)
	recent, err := h.BroadcastRepo.ListRecent(r.Context(), n)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load analytics")
		return
	}

	out := make([]broadcastAnalyticsView, len(recent))
	for i, b := range recent {
		name := ""
		if b.Name != nil {
			name = *b.Name
		}
		clicks, err := h.Links.ClickCountsByBroadcast(r.Context(), b.ID)
		if err != nil {
			h.Logger.With("error", err).Warn("analytics: failed to load click counts")
			clicks = map[string]int{}
		}
		out[i] = broadcastAnalyticsView{
			ID:           b.ID.String(),
			CampaignName: name,
			SentTo:       b.SentCount,
			TotalCost:    fmt.Sprintf("%.2f", b.TotalCost),
			TargetAll:    b.TargetAll,
			CreatedAt:    b.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
			ClickCounts:  clicks,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"broadcasts": out})
}
