// Package inbound implements the state machine that turns a classified
// inbound SMS into a Decision: what to reply, what to notify, and whether
// to close the subscriber's unread window.
package inbound

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/RabowNicholas/sanctuary-sms-tool/internal/keywordrouter"
	"github.com/RabowNicholas/sanctuary-sms-tool/internal/phoneutil"
)

// Subscriber is the minimal view InboundProcessor needs of a subscriber.
type Subscriber struct {
	ID                uuid.UUID
	PhoneNumber       string
	IsActive          bool
	JoinedViaKeyword  *string
	NotifierThreadRef *string
}

// Notification is a message the Decision asks the caller to post to the
// chat-notification sink.
type Notification struct {
	Text      string
	ThreadRef *string // nil means "start a new thread"
}

// Decision is the outcome of processing one inbound message.
type Decision struct {
	AutoReply   string // empty means no reply
	Notify      *Notification
	MarkReadNow bool
}

// Repo is the subset of subscriber persistence InboundProcessor depends on.
type Repo interface {
	FindByPhone(ctx context.Context, phone string) (*Subscriber, error)
	Create(ctx context.Context, s *Subscriber) error
	Update(ctx context.Context, s *Subscriber) error
	MarkRead(ctx context.Context, subscriberID uuid.UUID) error
}

// ListEnroller enrolls a subscriber into the list bound to a keyword.
type ListEnroller interface {
	EnrollIfSet(ctx context.Context, listID *uuid.UUID, subscriberID uuid.UUID, joinedVia string) error
}

// ActiveKeywordLister returns the text of every active keyword, used to
// compose "text X or Y to rejoin" prompts.
type ActiveKeywordLister interface {
	ActiveKeywordTexts(ctx context.Context) ([]string, error)
}

var ErrNotFound = errors.New("inbound: subscriber not found")

// Processor executes the InboundProcessor contract.
type Processor struct {
	repo     Repo
	enroller ListEnroller
	keywords ActiveKeywordLister
	defaultWelcome string
}

// New builds a Processor. defaultWelcome is used as the auto-reply when a
// matched keyword's autoResponse is empty.
func New(repo Repo, enroller ListEnroller, keywords ActiveKeywordLister, defaultWelcome string) *Processor {
	return &Processor{repo: repo, enroller: enroller, keywords: keywords, defaultWelcome: defaultWelcome}
}

// Process runs the state machine for one classified inbound message.
func (p *Processor) Process(ctx context.Context, fromPhone string, routed keywordrouter.Decision) (Decision, error) {
	switch routed.Intent {
	case keywordrouter.OptIn:
		return p.processOptIn(ctx, fromPhone, routed.Keyword)
	case keywordrouter.OptOut:
		return p.processOptOut(ctx, fromPhone)
	default:
		return p.processConversational(ctx, fromPhone, routed.RawBody)
	}
}

func (p *Processor) processOptIn(ctx context.Context, fromPhone string, kw keywordrouter.Keyword) (Decision, error) {
	reply := kw.AutoResponse
	if strings.TrimSpace(reply) == "" {
		reply = p.defaultWelcome
	}

	sub, err := p.repo.FindByPhone(ctx, fromPhone)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return Decision{}, fmt.Errorf("inbound: opt-in lookup: %w", err)
	}

	var notifyText string
	switch {
	case sub == nil:
		keywordCopy := kw.Text
		sub = &Subscriber{PhoneNumber: fromPhone, IsActive: true, JoinedViaKeyword: &keywordCopy}
		if err := p.repo.Create(ctx, sub); err != nil {
			return Decision{}, fmt.Errorf("inbound: opt-in create: %w", err)
		}
		notifyText = fmt.Sprintf("new subscriber joined via %s", kw.Text)

	case sub.IsActive:
		reply = "You're already subscribed."
		notifyText = ""

	default:
		keywordCopy := kw.Text
		sub.IsActive = true
		sub.JoinedViaKeyword = &keywordCopy
		if err := p.repo.Update(ctx, sub); err != nil {
			return Decision{}, fmt.Errorf("inbound: opt-in reactivate: %w", err)
		}
		notifyText = fmt.Sprintf("subscriber reactivated via %s", kw.Text)
	}

	if kw.ListID != nil && p.enroller != nil {
		if err := p.enroller.EnrollIfSet(ctx, kw.ListID, sub.ID, "keyword:"+kw.Text); err != nil {
			return Decision{}, fmt.Errorf("inbound: keyword list enrollment: %w", err)
		}
	}

	decision := Decision{AutoReply: reply, MarkReadNow: true}
	if notifyText != "" {
		decision.Notify = &Notification{Text: notifyText}
	}
	return decision, nil
}

func (p *Processor) processOptOut(ctx context.Context, fromPhone string) (Decision, error) {
	sub, err := p.repo.FindByPhone(ctx, fromPhone)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return Decision{}, fmt.Errorf("inbound: opt-out lookup: %w", err)
	}
	if sub == nil || !sub.IsActive {
		return Decision{AutoReply: "You're not currently subscribed."}, nil
	}

	sub.IsActive = false
	if err := p.repo.Update(ctx, sub); err != nil {
		return Decision{}, fmt.Errorf("inbound: opt-out deactivate: %w", err)
	}

	rejoinPrompt, err := p.rejoinPrompt(ctx)
	if err != nil {
		return Decision{}, err
	}

	return Decision{
		AutoReply: fmt.Sprintf("You've been unsubscribed. Text %s to rejoin.", rejoinPrompt),
		Notify:    &Notification{Text: "subscriber unsubscribed"},
	}, nil
}

func (p *Processor) processConversational(ctx context.Context, fromPhone, body string) (Decision, error) {
	sub, err := p.repo.FindByPhone(ctx, fromPhone)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return Decision{}, fmt.Errorf("inbound: conversational lookup: %w", err)
	}
	if sub == nil || !sub.IsActive {
		prompt, err := p.rejoinPrompt(ctx)
		if err != nil {
			return Decision{}, err
		}
		return Decision{AutoReply: fmt.Sprintf("Text %s to subscribe.", prompt)}, nil
	}

	threadRef := sub.NotifierThreadRef
	text := fmt.Sprintf("message from %s: %s", phoneutil.Display(fromPhone), body)
	return Decision{Notify: &Notification{Text: text, ThreadRef: threadRef}}, nil
}

func (p *Processor) rejoinPrompt(ctx context.Context) (string, error) {
	if p.keywords == nil {
		return "a keyword", nil
	}
	texts, err := p.keywords.ActiveKeywordTexts(ctx)
	if err != nil {
		return "", fmt.Errorf("inbound: listing active keywords: %w", err)
	}
	if len(texts) == 0 {
		return "a keyword", nil
	}
	return strings.Join(texts, " or "), nil
}

// AdoptThreadRef records threadRef as the subscriber's thread reference if
// it does not already have one (first-write-wins), as a best-effort
// follow-up to a Conversational decision with an empty prior ThreadRef.
func (p *Processor) AdoptThreadRef(ctx context.Context, sub *Subscriber, threadRef string) error {
	if sub.NotifierThreadRef != nil {
		return nil
	}
	sub.NotifierThreadRef = &threadRef
	return p.repo.Update(ctx, sub)
}
