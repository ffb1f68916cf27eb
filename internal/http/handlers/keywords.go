package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/RabowNicholas/sanctuary-sms-tool/internal/keywords"
)

type keywordView struct {
	ID           uuid.UUID  `json:"id"`
	Keyword      string     `json:"keyword"`
	ListID       *uuid.UUID `json:"listId"`
	AutoResponse string     `json:"autoResponse"`
	IsActive     bool       `json:"isActive"`
}

func toKeywordView(k keywords.SignupKeyword) keywordView {
	return keywordView{ID: k.ID, Keyword: k.Keyword, ListID: k.ListID, AutoResponse: k.AutoResponse, IsActive: k.IsActive}
}

type keywordRequest struct {
	Keyword      string     `json:"keyword"`
	ListID       *uuid.UUID `json:"listId"`
	AutoResponse string     `json:"autoResponse"`
	IsActive     *bool      `json:"isActive"`
}

// HandleKeywordsList processes GET /api/keywords.
func (h *Handlers) HandleKeywordsList(w http.ResponseWriter, r *http.Request) {
	all, err := h.Keywords.ListAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list keywords")
		return
	}
	out := make([]keywordView, len(all))
	for i, k := range all {
		out[i] = toKeywordView(k)
	}
	writeJSON(w, http.StatusOK, map[string]any{"keywords": out})
}

// HandleKeywordsCreate processes POST /api/keywords.
func (h *Handlers) HandleKeywordsCreate(w http.ResponseWriter, r *http.Request) {
	var req keywordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	k := &keywords.SignupKeyword{Keyword: req.Keyword, ListID: req.ListID, AutoResponse: req.AutoResponse, IsActive: true}
	if req.IsActive != nil {
		k.IsActive = *req.IsActive
	}
	if err := h.KeywordSvc.Create(r.Context(), k); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, toKeywordView(*k))
}

// HandleKeywordsUpdate processes PUT /api/keywords/{id}.
func (h *Handlers) HandleKeywordsUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid keyword id")
		return
	}
	var req keywordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	k := &keywords.SignupKeyword{ID: id, Keyword: req.Keyword, ListID: req.ListID, AutoResponse: req.AutoResponse}
	if req.IsActive != nil {
		k.IsActive = *req.IsActive
	}
	if err := h.KeywordSvc.Update(r.Context(), k); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toKeywordView(*k))
}

// HandleKeywordsDelete processes DELETE /api/keywords/{id}.
func (h *Handlers) HandleKeywordsDelete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid keyword id")
		return
	}
	if err := h.Keywords.Delete(r.Context(), id); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
