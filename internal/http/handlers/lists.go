package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/RabowNicholas/sanctuary-sms-tool/internal/lists"
)

type listView struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
}

func toListView(l lists.SubscriberList) listView {
	return listView{ID: l.ID, Name: l.Name, Description: l.Description}
}

type listRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// HandleListsList processes GET /api/lists.
func (h *Handlers) HandleListsList(w http.ResponseWriter, r *http.Request) {
	all, err := h.Lists.ListAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list lists")
		return
	}
	out := make([]listView, len(all))
	for i, l := range all {
		out[i] = toListView(l)
	}
	writeJSON(w, http.StatusOK, map[string]any{"lists": out})
}

// HandleListsCreate processes POST /api/lists.
func (h *Handlers) HandleListsCreate(w http.ResponseWriter, r *http.Request) {
	var req listRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	l := &lists.SubscriberList{Name: req.Name, Description: req.Description}
	if err := h.Lists.Create(r.Context(), l); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, toListView(*l))
}

// HandleListsUpdate processes PUT /api/lists/{id}.
func (h *Handlers) HandleListsUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid list id")
		return
	}
	var req listRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	l := &lists.SubscriberList{ID: id, Name: req.Name, Description: req.Description}
	if err := h.Lists.Update(r.Context(), l); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toListView(*l))
}

// HandleListsDelete processes DELETE /api/lists/{id}.
func (h *Handlers) HandleListsDelete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid list id")
		return
	}
	if err := h.Lists.Delete(r.Context(), id); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// HandleListMembersAdd processes POST /api/lists/{id}/members.
func (h *Handlers) HandleListMembersAdd(w http.ResponseWriter, r *http.Request) {
	listID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid list id")
		return
	}
	var req struct {
		SubscriberID uuid.UUID `json:"subscriberId"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.Lists.AddMember(r.Context(), nil, listID, req.SubscriberID); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// HandleListMembersRemove processes DELETE /api/lists/{id}/members/{subscriberId}.
func (h *Handlers) HandleListMembersRemove(w http.ResponseWriter, r *http.Request) {
	listID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid list id")
		return
	}
	subscriberID, err := uuid.Parse(chi.URLParam(r, "subscriberId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid subscriber id")
		return
	}
	if err := h.Lists.RemoveMember(r.Context(), listID, subscriberID); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
