package handlers

import "net/http"

type settingsView struct {
	WelcomeMessage string `json:"welcomeMessage"`
	OptOutMessage  string `json:"optOutMessage"`
	HelpMessage    string `json:"helpMessage"`
	UpdatedAt      string `json:"updatedAt"`
}

// HandleSettingsGet processes GET /api/settings.
func (h *Handlers) HandleSettingsGet(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.AppConfig.GetOrSeed(r.Context(), defaultWelcomeMessage)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}
	writeJSON(w, http.StatusOK, settingsView{
		WelcomeMessage: cfg.WelcomeMessage,
		OptOutMessage:  cfg.OptOutMessage,
		HelpMessage:    cfg.HelpMessage,
		UpdatedAt:      cfg.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	})
}

// HandleSettingsUpdate processes PUT /api/settings.
func (h *Handlers) HandleSettingsUpdate(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.AppConfig.GetOrSeed(r.Context(), defaultWelcomeMessage)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}
	var req struct {
		WelcomeMessage *string `json:"welcomeMessage"`
		OptOutMessage  *string `json:"optOutMessage"`
		HelpMessage    *string `json:"helpMessage"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.WelcomeMessage != nil {
		cfg.WelcomeMessage = *req.WelcomeMessage
	}
	if req.OptOutMessage != nil {
		cfg.OptOutMessage = *req.OptOutMessage
	}
	if req.HelpMessage != nil {
		cfg.HelpMessage = *req.HelpMessage
	}
	if err := h.AppConfig.Update(r.Context(), cfg); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update settings")
		return
	}
	writeJSON(w, http.StatusOK, settingsView{
		WelcomeMessage: cfg.WelcomeMessage,
		OptOutMessage:  cfg.OptOutMessage,
		HelpMessage:    cfg.HelpMessage,
		UpdatedAt:      cfg.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	})
}

const defaultWelcomeMessage = "Welcome! Reply STOP at any time to unsubscribe."
