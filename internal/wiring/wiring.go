// Package wiring adapts the concrete repository and domain-stack packages
// (subscribers, lists, keywords, messages, links) to the small interfaces
// the core state machines (inbound, broadcast, clickredirect, inbox,
// delivery, linktokenizer) declare against themselves, so those packages
// never import each other directly.
package wiring

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/RabowNicholas/sanctuary-sms-tool/internal/broadcast"
	"github.com/RabowNicholas/sanctuary-sms-tool/internal/clickredirect"
	"github.com/RabowNicholas/sanctuary-sms-tool/internal/gateway"
	"github.com/RabowNicholas/sanctuary-sms-tool/internal/inbound"
	"github.com/RabowNicholas/sanctuary-sms-tool/internal/inbox"
	"github.com/RabowNicholas/sanctuary-sms-tool/internal/keywords"
	"github.com/RabowNicholas/sanctuary-sms-tool/internal/links"
	"github.com/RabowNicholas/sanctuary-sms-tool/internal/linktokenizer"
	"github.com/RabowNicholas/sanctuary-sms-tool/internal/lists"
	"github.com/RabowNicholas/sanctuary-sms-tool/internal/messages"
	"github.com/RabowNicholas/sanctuary-sms-tool/internal/subscribers"
)

// SubscriberRepo adapts *subscribers.Repository to inbound.Repo, translating
// between the two packages' Subscriber shapes and sentinel errors.
type SubscriberRepo struct {
	Repo *subscribers.Repository
}

func toInboundSubscriber(s *subscribers.Subscriber) *inbound.Subscriber {
	if s == nil {
		return nil
	}
	return &inbound.Subscriber{
		ID:                s.ID,
		PhoneNumber:       s.PhoneNumber,
		IsActive:          s.IsActive,
		JoinedViaKeyword:  s.JoinedViaKeyword,
		NotifierThreadRef: s.NotifierThreadRef,
	}
}

func fromInboundSubscriber(s *inbound.Subscriber) *subscribers.Subscriber {
	return &subscribers.Subscriber{
		ID:                s.ID,
		PhoneNumber:       s.PhoneNumber,
		IsActive:          s.IsActive,
		JoinedViaKeyword:  s.JoinedViaKeyword,
		NotifierThreadRef: s.NotifierThreadRef,
	}
}

func (a *SubscriberRepo) FindByPhone(ctx context.Context, phone string) (*inbound.Subscriber, error) {
	s, err := a.Repo.FindByPhone(ctx, phone)
	if errors.Is(err, subscribers.ErrNotFound) {
		return nil, inbound.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return toInboundSubscriber(s), nil
}

func (a *SubscriberRepo) Create(ctx context.Context, s *inbound.Subscriber) error {
	rec := fromInboundSubscriber(s)
	if err := a.Repo.Create(ctx, nil, rec); err != nil {
		return err
	}
	s.ID = rec.ID
	return nil
}

func (a *SubscriberRepo) Update(ctx context.Context, s *inbound.Subscriber) error {
	rec := fromInboundSubscriber(s)
	if err := a.Repo.Update(ctx, nil, rec); err != nil {
		if errors.Is(err, subscribers.ErrNotFound) {
			return inbound.ErrNotFound
		}
		return err
	}
	return nil
}

func (a *SubscriberRepo) MarkRead(ctx context.Context, subscriberID uuid.UUID) error {
	return a.Repo.MarkRead(ctx, subscriberID)
}

// ListEnroller adapts *lists.Repository to inbound.ListEnroller.
type ListEnroller struct {
	Repo *lists.Repository
}

func (a *ListEnroller) EnrollIfSet(ctx context.Context, listID *uuid.UUID, subscriberID uuid.UUID, joinedVia string) error {
	if listID == nil {
		return nil
	}
	return a.Repo.AddMember(ctx, nil, *listID, subscriberID)
}

// ActiveKeywordLister adapts *keywords.Repository to inbound.ActiveKeywordLister.
type ActiveKeywordLister struct {
	Repo *keywords.Repository
}

func (a *ActiveKeywordLister) ActiveKeywordTexts(ctx context.Context) ([]string, error) {
	all, err := a.Repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(all))
	for _, k := range all {
		if k.IsActive {
			out = append(out, k.Keyword)
		}
	}
	return out, nil
}

// AudienceResolver adapts subscribers+lists repositories to
// broadcast.AudienceResolver, implementing the include/exclude set algebra
// over active subscribers ordered by joinedAt asc.
type AudienceResolver struct {
	Subscribers *subscribers.Repository
	Lists       *lists.Repository
}

func (a *AudienceResolver) ResolveAudience(ctx context.Context, targetAll bool, targetListIDs, excludeListIDs []uuid.UUID) ([]broadcast.Recipient, error) {
	active, err := a.Subscribers.ListAllActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("wiring: list active subscribers: %w", err)
	}

	var include map[uuid.UUID]bool
	if !targetAll && len(targetListIDs) > 0 {
		ids, err := a.Lists.SubscriberIDsInLists(ctx, targetListIDs)
		if err != nil {
			return nil, fmt.Errorf("wiring: resolve include lists: %w", err)
		}
		include = make(map[uuid.UUID]bool, len(ids))
		for _, id := range ids {
			include[id] = true
		}
	}

	var exclude map[uuid.UUID]bool
	if len(excludeListIDs) > 0 {
		ids, err := a.Lists.SubscriberIDsInLists(ctx, excludeListIDs)
		if err != nil {
			return nil, fmt.Errorf("wiring: resolve exclude lists: %w", err)
		}
		exclude = make(map[uuid.UUID]bool, len(ids))
		for _, id := range ids {
			exclude[id] = true
		}
	}

	out := make([]broadcast.Recipient, 0, len(active))
	for _, s := range active {
		if include != nil && !include[s.ID] {
			continue
		}
		if exclude != nil && exclude[s.ID] {
			continue
		}
		out = append(out, broadcast.Recipient{SubscriberID: s.ID, PhoneNumber: s.PhoneNumber})
	}
	return out, nil
}

// BroadcastGateway adapts gateway.SMSGateway to broadcast.Gateway.
type BroadcastGateway struct {
	GW gateway.SMSGateway
}

func (a *BroadcastGateway) Send(ctx context.Context, to, body string) (broadcast.SendResult, error) {
	res, err := a.GW.Send(ctx, to, body)
	if err != nil {
		return broadcast.SendResult{}, err
	}
	return broadcast.SendResult{ProviderMessageID: res.ProviderMessageID}, nil
}

// LinkTokenizer adapts *linktokenizer.Tokenizer to broadcast.LinkTokenizer.
type LinkTokenizer struct {
	Tokenizer *linktokenizer.Tokenizer
}

func (a *LinkTokenizer) Tokenize(ctx context.Context, body string, broadcastID uuid.UUID, approved map[string]bool) (string, []broadcast.TokenizedLink) {
	rewritten, created := a.Tokenizer.Tokenize(ctx, body, broadcastID, approved)
	out := make([]broadcast.TokenizedLink, len(created))
	for i, c := range created {
		out[i] = broadcast.TokenizedLink{ShortCode: c.ShortCode, TargetURL: c.TargetURL}
	}
	return rewritten, out
}

// LinkCreator adapts *links.Repository to linktokenizer.LinkCreator.
type LinkCreator struct {
	Repo *links.Repository
}

func (a *LinkCreator) Create(ctx context.Context, l linktokenizer.Link) error {
	return a.Repo.Create(ctx, nil, &links.Link{
		ID:          l.ID,
		BroadcastID: l.BroadcastID,
		ShortCode:   l.ShortCode,
		TargetURL:   l.TargetURL,
	})
}

// IsLinkConflict classifies a links.Repository.Create error as a short
// code collision the linktokenizer should retry on.
func IsLinkConflict(err error) bool {
	return errors.Is(err, links.ErrConflict)
}

// MessageRecorder adapts *messages.Repository to broadcast.MessageRecorder.
type MessageRecorder struct {
	Repo *messages.Repository
}

func (a *MessageRecorder) RecordOutbound(ctx context.Context, subscriberID, broadcastID uuid.UUID, body string, providerMessageID *string, status string) error {
	return a.Repo.Create(ctx, nil, &messages.Message{
		SubscriberID:      subscriberID,
		BroadcastID:       &broadcastID,
		Direction:         messages.Outbound,
		Body:              body,
		Status:            messages.DeliveryStatus(status),
		ProviderMessageID: providerMessageID,
		SegmentCount:      segmentCount(body),
	})
}

func segmentCount(body string) int {
	const segmentSize = 160
	if len(body) == 0 {
		return 1
	}
	n := len(body) / segmentSize
	if len(body)%segmentSize != 0 {
		n++
	}
	return n
}

// ClickStore adapts *links.Repository to clickredirect.Store.
type ClickStore struct {
	Repo *links.Repository
}

func (a *ClickStore) FindByShortCode(ctx context.Context, code string) (*clickredirect.LinkLookup, error) {
	l, err := a.Repo.FindByShortCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return &clickredirect.LinkLookup{ID: l.ID, TargetURL: l.TargetURL}, nil
}

func (a *ClickStore) RecordClick(ctx context.Context, linkID uuid.UUID, subscriberID *uuid.UUID) error {
	return a.Repo.RecordClick(ctx, linkID, subscriberID)
}

// InboxStore adapts the subscribers and messages repositories to
// inbox.Store.
type InboxStore struct {
	Subscribers *subscribers.Repository
	Messages    *messages.Repository
}

func (a *InboxStore) ListActiveSubscribers(ctx context.Context, search string, limit, offset int) ([]inbox.SubscriberView, error) {
	subs, err := a.Subscribers.ListActiveSubscribers(ctx, search, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]inbox.SubscriberView, len(subs))
	for i, s := range subs {
		out[i] = inbox.SubscriberView{ID: s.ID, PhoneNumber: s.PhoneNumber, LastReadAt: s.LastReadAt}
	}
	return out, nil
}

func (a *InboxStore) MostRecentMessagePreviews(ctx context.Context, subscriberIDs []uuid.UUID) (map[uuid.UUID]inbox.MessagePreview, error) {
	previews, err := a.Messages.MostRecentMessagePreviews(ctx, subscriberIDs)
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]inbox.MessagePreview, len(previews))
	for id, p := range previews {
		out[id] = inbox.MessagePreview{SubscriberID: p.SubscriberID, Body: p.Body, CreatedAt: p.CreatedAt}
	}
	return out, nil
}

func (a *InboxStore) MostRecentInboundAt(ctx context.Context, subscriberID uuid.UUID) (time.Time, error) {
	return a.Messages.MostRecentInboundAt(ctx, subscriberID)
}

func (a *InboxStore) CountActiveSubscribersWithUnread(ctx context.Context) (int, error) {
	return a.Subscribers.CountActiveSubscribersWithUnread(ctx)
}

func (a *InboxStore) CountActiveSubscribers(ctx context.Context) (int, error) {
	return a.Subscribers.CountActiveSubscribers(ctx)
}

func (a *InboxStore) SetLastReadAt(ctx context.Context, subscriberID uuid.UUID, at *time.Time) error {
	return a.Subscribers.SetLastReadAt(ctx, subscriberID, at)
}

func (a *InboxStore) SetLastReadAtForAllActive(ctx context.Context, at time.Time) error {
	return a.Subscribers.SetLastReadAtForAllActive(ctx, at)
}
