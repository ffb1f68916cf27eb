package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/RabowNicholas/sanctuary-sms-tool/internal/messages"
	"github.com/RabowNicholas/sanctuary-sms-tool/internal/phoneutil"
	"github.com/RabowNicholas/sanctuary-sms-tool/internal/subscribers"
)

type subscriberView struct {
	ID           uuid.UUID `json:"id"`
	PhoneNumber  string    `json:"phoneNumber"`
	PhoneDisplay string    `json:"phoneDisplay"`
	IsActive     bool      `json:"isActive"`
	JoinedAt     string    `json:"joinedAt"`
}

func toSubscriberView(s subscribers.Subscriber) subscriberView {
	return subscriberView{
		ID:           s.ID,
		PhoneNumber:  s.PhoneNumber,
		PhoneDisplay: phoneutil.Display(s.PhoneNumber),
		IsActive:     s.IsActive,
		JoinedAt:     s.JoinedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// HandleSubscribersList processes GET /api/subscribers.
func (h *Handlers) HandleSubscribersList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var listID *uuid.UUID
	if raw := q.Get("listId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid listId")
			return
		}
		listID = &id
	}
	filter := subscribers.ListFilter{
		Search:     q.Get("search"),
		ActiveOnly: q.Get("activeOnly") == "true",
		ListID:     listID,
		Limit:      atoiDefault(q.Get("limit"), 50),
		Offset:     atoiDefault(q.Get("offset"), 0),
	}
	list, total, err := h.Subscribers.List(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list subscribers")
		return
	}
	out := make([]subscriberView, len(list))
	for i, s := range list {
		out[i] = toSubscriberView(s)
	}
	writeJSON(w, http.StatusOK, map[string]any{"subscribers": out, "total": total})
}

// HandleSubscriberCreate processes POST /api/subscribers.
func (h *Handlers) HandleSubscriberCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PhoneNumber string     `json:"phoneNumber"`
		ListID      *uuid.UUID `json:"listId"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	phone, err := phoneutil.Normalize(req.PhoneNumber)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid phone number")
		return
	}
	via := "manual"
	sub := &subscribers.Subscriber{PhoneNumber: phone, IsActive: true, JoinedViaKeyword: &via}
	if err := h.Subscribers.Create(r.Context(), nil, sub); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	if req.ListID != nil {
		if err := h.Lists.AddMember(r.Context(), nil, *req.ListID, sub.ID); err != nil {
			h.Logger.With("error", err).Warn("subscribers: failed to enroll new subscriber in list")
		}
	}
	writeJSON(w, http.StatusCreated, toSubscriberView(*sub))
}

// HandleSubscribersBulkImport processes POST /api/subscribers/bulk.
func (h *Handlers) HandleSubscribersBulkImport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PhoneNumbers []string   `json:"phoneNumbers"`
		ListID       *uuid.UUID `json:"listId"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	results, err := h.SubscriberSvc.Import(r.Context(), req.PhoneNumbers, req.ListID)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

// HandleSubscriberGet processes GET /api/subscribers/{id}.
func (h *Handlers) HandleSubscriberGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid subscriber id")
		return
	}
	sub, err := h.Subscribers.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toSubscriberView(*sub))
}

// HandleSubscriberUpdate processes PUT /api/subscribers/{id}.
func (h *Handlers) HandleSubscriberUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid subscriber id")
		return
	}
	sub, err := h.Subscribers.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	var req struct {
		IsActive *bool `json:"isActive"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.IsActive != nil {
		sub.IsActive = *req.IsActive
	}
	if err := h.Subscribers.Update(r.Context(), nil, sub); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toSubscriberView(*sub))
}

type messageView struct {
	ID        uuid.UUID `json:"id"`
	Direction string    `json:"direction"`
	Body      string    `json:"body"`
	Status    string    `json:"status"`
	CreatedAt string    `json:"createdAt"`
}

func toMessageView(m messages.Message) messageView {
	return messageView{
		ID:        m.ID,
		Direction: string(m.Direction),
		Body:      m.Body,
		Status:    string(m.Status),
		CreatedAt: m.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// HandleSubscriberMessages processes GET /api/subscribers/{id}/messages.
func (h *Handlers) HandleSubscriberMessages(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid subscriber id")
		return
	}
	q := r.URL.Query()
	list, err := h.Messages.ListBySubscriber(r.Context(), id, atoiDefault(q.Get("limit"), 50), atoiDefault(q.Get("offset"), 0))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list messages")
		return
	}
	out := make([]messageView, len(list))
	for i, m := range list {
		out[i] = toMessageView(m)
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": out})
}

// HandleSubscriberReply processes POST /api/subscribers/{id}/reply, an
// operator-initiated outbound message outside of a broadcast.
func (h *Handlers) HandleSubscriberReply(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid subscriber id")
		return
	}
	sub, err := h.Subscribers.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	var req struct {
		Body string `json:"body"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Body == "" {
		writeError(w, http.StatusBadRequest, "body is required")
		return
	}

	result, err := h.Gateway.Send(r.Context(), sub.PhoneNumber, req.Body)
	if err != nil {
		writeError(w, http.StatusBadGateway, "failed to send reply")
		return
	}

	out := &messages.Message{
		SubscriberID:      sub.ID,
		Direction:         messages.Outbound,
		Body:              req.Body,
		Status:            messages.StatusSent,
		ProviderMessageID: strPtr(result.ProviderMessageID),
		SegmentCount:      segmentsFor(req.Body),
	}
	if err := h.Messages.Create(r.Context(), nil, out); err != nil {
		h.Logger.With("error", err).Warn("subscribers: failed to log reply message")
	}
	if err := h.Inbox.MarkRead(r.Context(), sub.ID); err != nil {
		h.Logger.With("error", err).Warn("subscribers: failed to mark conversation read after reply")
	}

	writeJSON(w, http.StatusOK, toMessageView(*out))
}
