package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/RabowNicholas/sanctuary-sms-tool/internal/broadcast"
	"github.com/RabowNicholas/sanctuary-sms-tool/internal/phoneutil"
)

type broadcastRequest struct {
	Message        string   `json:"message"`
	CampaignName   *string  `json:"campaignName"`
	ApprovedLinks  []string `json:"approvedLinks"`
	TargetAll      bool     `json:"targetAll"`
	TargetListIDs  []string `json:"targetListIds"`
	ExcludeListIDs []string `json:"excludeListIds"`
	ToPhoneNumber  string   `json:"toPhoneNumber"` // /api/broadcast/test only
}

type broadcastResponse struct {
	Success      bool                        `json:"success"`
	BroadcastID  uuid.UUID                   `json:"broadcastId"`
	CampaignName *string                     `json:"campaignName"`
	SentTo       int                         `json:"sentTo"`
	Failed       int                         `json:"failed"`
	TotalCost    string                      `json:"totalCost"`
	SegmentCount int                         `json:"segmentCount"`
	LinksTracked int                         `json:"linksTracked"`
	TargetAll    bool                        `json:"targetAll"`
	TargetedLists []string                   `json:"targetedLists"`
	Results      []broadcast.RecipientResult `json:"results"`
	Errors       []string                    `json:"errors"`
}

// HandleBroadcast processes POST /api/broadcast.
func (h *Handlers) HandleBroadcast(w http.ResponseWriter, r *http.Request) {
	h.dispatchBroadcast(w, r, false)
}

// HandleBroadcastTest processes POST /api/broadcast/test: the same pipeline
// narrowed to a single explicit phone number, with the campaign name
// prefixed `[TEST]` so test sends are distinguishable in analytics.
func (h *Handlers) HandleBroadcastTest(w http.ResponseWriter, r *http.Request) {
	h.dispatchBroadcast(w, r, true)
}

func (h *Handlers) dispatchBroadcast(w http.ResponseWriter, r *http.Request, isTest bool) {
	var req broadcastRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	targetListIDs, err := parseUUIDs(req.TargetListIDs)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid targetListIds")
		return
	}
	excludeListIDs, err := parseUUIDs(req.ExcludeListIDs)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid excludeListIds")
		return
	}

	var approved map[string]bool
	if req.ApprovedLinks != nil {
		approved = make(map[string]bool, len(req.ApprovedLinks))
		for _, u := range req.ApprovedLinks {
			approved[u] = true
		}
	}

	campaignName := req.CampaignName
	if isTest {
		prefixed := "[TEST]"
		if campaignName != nil && *campaignName != "" {
			prefixed = fmt.Sprintf("[TEST] %s", *campaignName)
		}
		campaignName = &prefixed
	}

	engineReq := broadcast.Request{
		DraftMessage:   req.Message,
		CampaignName:   campaignName,
		ApprovedURLs:   approved,
		TargetAll:      req.TargetAll,
		TargetListIDs:  targetListIDs,
		ExcludeListIDs: excludeListIDs,
	}

	var summary broadcast.Summary
	if isTest {
		if req.ToPhoneNumber == "" {
			writeError(w, http.StatusBadRequest, "toPhoneNumber is required for a test send")
			return
		}
		phone, err := phoneutil.Normalize(req.ToPhoneNumber)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid toPhoneNumber")
			return
		}
		recipient := broadcast.Recipient{PhoneNumber: phone}
		if sub, err := h.Subscribers.FindByPhone(r.Context(), phone); err == nil {
			recipient.SubscriberID = sub.ID
		}
		summary, err = h.Broadcast.SendToRecipients(r.Context(), engineReq, []broadcast.Recipient{recipient})
		if err != nil {
			if errors.Is(err, broadcast.ErrInvalidInput) || errors.Is(err, broadcast.ErrEmptyAudience) {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "broadcast failed")
			return
		}
	} else {
		var err error
		summary, err = h.Broadcast.Send(r.Context(), engineReq)
		if err != nil {
			if errors.Is(err, broadcast.ErrInvalidInput) || errors.Is(err, broadcast.ErrEmptyAudience) {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "broadcast failed")
			return
		}
	}

	targetedLists := make([]string, len(summary.TargetedListIDs))
	for i, id := range summary.TargetedListIDs {
		targetedLists[i] = id.String()
	}

	writeJSON(w, http.StatusOK, broadcastResponse{
		Success:       true,
		BroadcastID:   summary.BroadcastID,
		CampaignName:  campaignName,
		SentTo:        summary.SentTo,
		Failed:        summary.Failed,
		TotalCost:     fmt.Sprintf("%.2f", summary.TotalCost),
		SegmentCount:  summary.SegmentCount,
		LinksTracked:  summary.LinksTracked,
		TargetAll:     summary.TargetAll,
		TargetedLists: targetedLists,
		Results:       summary.Results,
		Errors:        summary.Errors,
	})
}

func parseUUIDs(raw []string) ([]uuid.UUID, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make([]uuid.UUID, len(raw))
	for i, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, err
		}
		out[i] = id
	}
	return out, nil
}
