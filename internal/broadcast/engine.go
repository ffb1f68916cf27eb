package broadcast

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/RabowNicholas/sanctuary-sms-tool/pkg/logging"
)

var tracer = otel.Tracer("sanctuary.internal.broadcast")

// Request is the input to a broadcast fan-out run.
type Request struct {
	DraftMessage   string
	CampaignName   *string
	ApprovedURLs   map[string]bool // nil means "shorten every URL found"
	TargetAll      bool
	TargetListIDs  []uuid.UUID
	ExcludeListIDs []uuid.UUID
}

// Recipient is one audience member to send to.
type Recipient struct {
	SubscriberID uuid.UUID
	PhoneNumber  string
}

// AudienceResolver computes the ordered send list for a request.
type AudienceResolver interface {
	ResolveAudience(ctx context.Context, targetAll bool, targetListIDs, excludeListIDs []uuid.UUID) ([]Recipient, error)
}

// SendResult is what the gateway returns for one recipient send.
type SendResult struct {
	ProviderMessageID string
	Err               error
}

// Gateway sends one SMS.
type Gateway interface {
	Send(ctx context.Context, to, body string) (SendResult, error)
}

// LinkTokenizer rewrites a draft and mints link rows for a broadcast.
type LinkTokenizer interface {
	Tokenize(ctx context.Context, body string, broadcastID uuid.UUID, approved map[string]bool) (string, []TokenizedLink)
}

// TokenizedLink mirrors linktokenizer.Created without importing that
// package, keeping the engine's dependency surface narrow.
type TokenizedLink struct {
	ShortCode string
	TargetURL string
}

// MessageRecorder persists one outbound Message row per attempted send.
type MessageRecorder interface {
	RecordOutbound(ctx context.Context, subscriberID, broadcastID uuid.UUID, body string, providerMessageID *string, status string) error
}

// BroadcastRepo is the subset of Repository the engine depends on.
type BroadcastRepo interface {
	Create(ctx context.Context, b *Broadcast) error
	AddTarget(ctx context.Context, t Target) error
	UpdateSentCount(ctx context.Context, id uuid.UUID, sentCount int) error
}

// RecipientOutcome observer, used for wiring Prometheus counters without
// this package importing the metrics package directly.
type RecipientOutcome func(outcome string)

// RecipientResult is one recipient's outcome, surfaced up to a small cap
// for the admin-facing broadcast response.
type RecipientResult struct {
	PhoneNumber string
	Status      string // "sent" or "failed"
}

// Summary is the result of a fan-out run.
type Summary struct {
	BroadcastID     uuid.UUID
	SentTo          int
	Failed          int
	TotalCost       float64
	SegmentCount    int
	LinksTracked    int
	TargetAll       bool
	TargetedListIDs []uuid.UUID
	Results         []RecipientResult // up to a small cap, per-recipient outcomes
	Errors          []string          // up to a small cap, per-recipient failure descriptions
}

const (
	segmentSize              = 160
	maxBodyLength            = 1600
	maxErrorsKept            = 5
	maxResultsKept           = 10
	defaultWorkerConcurrency = 10
	sendTimeout              = 10 * time.Second
)

// Engine implements the BroadcastEngine contract.
type Engine struct {
	audience  AudienceResolver
	gateway   Gateway
	tokenizer LinkTokenizer
	recorder  MessageRecorder
	repo      BroadcastRepo

	costPerSegment float64
	concurrency    int
	onOutcome      RecipientOutcome
	logger         *logging.Logger
}

// New builds an Engine. concurrency <= 0 falls back to a sane default.
func New(audience AudienceResolver, gateway Gateway, tokenizer LinkTokenizer, recorder MessageRecorder, repo BroadcastRepo, costPerSegment float64, concurrency int, onOutcome RecipientOutcome, logger *logging.Logger) *Engine {
	if concurrency <= 0 {
		concurrency = defaultWorkerConcurrency
	}
	return &Engine{
		audience:       audience,
		gateway:        gateway,
		tokenizer:      tokenizer,
		recorder:       recorder,
		repo:           repo,
		costPerSegment: costPerSegment,
		concurrency:    concurrency,
		onOutcome:      onOutcome,
		logger:         logger,
	}
}

// Send validates req, resolves the audience, tokenizes links, and fans the
// rewritten body out to every recipient via the bounded worker pool.
func (e *Engine) Send(ctx context.Context, req Request) (Summary, error) {
	if err := validate(req); err != nil {
		return Summary{}, err
	}

	recipients, err := e.audience.ResolveAudience(ctx, req.TargetAll, req.TargetListIDs, req.ExcludeListIDs)
	if err != nil {
		return Summary{}, fmt.Errorf("broadcast: resolve audience: %w", err)
	}
	if len(recipients) == 0 {
		return Summary{}, ErrEmptyAudience
	}

	return e.run(ctx, req, recipients)
}

// SendToRecipients runs the same tokenize-and-fan-out pipeline against an
// explicit recipient list, bypassing audience resolution — the path a test
// send uses to reach a single operator-supplied phone number.
func (e *Engine) SendToRecipients(ctx context.Context, req Request, recipients []Recipient) (Summary, error) {
	if strings.TrimSpace(req.DraftMessage) == "" {
		return Summary{}, fmt.Errorf("%w: message is required", ErrInvalidInput)
	}
	if len(req.DraftMessage) > maxBodyLength {
		return Summary{}, fmt.Errorf("%w: message exceeds %d characters", ErrInvalidInput, maxBodyLength)
	}
	if len(recipients) == 0 {
		return Summary{}, ErrEmptyAudience
	}
	return e.run(ctx, req, recipients)
}

func (e *Engine) run(ctx context.Context, req Request, recipients []Recipient) (Summary, error) {
	ctx, span := tracer.Start(ctx, "broadcast.fanout")
	defer span.End()
	span.SetAttributes(attribute.Int("sanctuary.recipient_count", len(recipients)))

	segments := segmentCount(req.DraftMessage)
	totalCost := float64(segments) * float64(len(recipients)) * e.costPerSegment

	b := &Broadcast{
		Name:      req.CampaignName,
		Message:   req.DraftMessage,
		TotalCost: totalCost,
		TargetAll: req.TargetAll,
	}
	headerOK := true
	if err := e.repo.Create(ctx, b); err != nil {
		headerOK = false
		e.logger.With("error", err).Warn("broadcast: failed to insert header, continuing without analytics tracking")
		b.ID = uuid.New() // still needed to key link tokenization and message rows
	}

	if headerOK {
		for _, id := range req.TargetListIDs {
			if err := e.repo.AddTarget(ctx, Target{BroadcastID: b.ID, ListID: id, Type: TargetInclude}); err != nil {
				e.logger.With("error", err).Warn("broadcast: failed to record include target")
			}
		}
		for _, id := range req.ExcludeListIDs {
			if err := e.repo.AddTarget(ctx, Target{BroadcastID: b.ID, ListID: id, Type: TargetExclude}); err != nil {
				e.logger.With("error", err).Warn("broadcast: failed to record exclude target")
			}
		}
	}

	body, links := e.tokenizer.Tokenize(ctx, req.DraftMessage, b.ID, req.ApprovedURLs)

	summary := Summary{
		BroadcastID:     b.ID,
		TotalCost:       round2(totalCost),
		SegmentCount:    segments,
		LinksTracked:    len(links),
		TargetAll:       req.TargetAll,
		TargetedListIDs: req.TargetListIDs,
	}

	sentTo, failed, results, errs := e.fanOut(ctx, recipients, b.ID, body)
	summary.SentTo = sentTo
	summary.Failed = failed
	summary.Results = results
	summary.Errors = errs

	if headerOK {
		if err := e.repo.UpdateSentCount(ctx, b.ID, sentTo+failed); err != nil {
			e.logger.With("error", err).Warn("broadcast: failed to persist final sent count")
		}
	}

	return summary, nil
}

func (e *Engine) fanOut(ctx context.Context, recipients []Recipient, broadcastID uuid.UUID, body string) (sentTo, failed int, results []RecipientResult, errs []string) {
	sem := make(chan struct{}, e.concurrency)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, recipient := range recipients {
		wg.Add(1)
		sem <- struct{}{}
		go func(rcpt Recipient) {
			defer wg.Done()
			defer func() { <-sem }()

			sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
			defer cancel()

			result, sendErr := e.gateway.Send(sendCtx, rcpt.PhoneNumber, body)

			mu.Lock()
			defer mu.Unlock()

			if sendErr != nil {
				failed++
				if len(errs) < maxErrorsKept {
					errs = append(errs, fmt.Sprintf("%s: %s", rcpt.PhoneNumber, sendErr.Error()))
				}
				if len(results) < maxResultsKept {
					results = append(results, RecipientResult{PhoneNumber: rcpt.PhoneNumber, Status: "failed"})
				}
				e.observe("failed")
				e.recordBestEffort(ctx, rcpt.SubscriberID, broadcastID, body, nil, "failed")
				return
			}

			sentTo++
			if len(results) < maxResultsKept {
				results = append(results, RecipientResult{PhoneNumber: rcpt.PhoneNumber, Status: "sent"})
			}
			e.observe("sent")
			providerID := result.ProviderMessageID
			e.recordBestEffort(ctx, rcpt.SubscriberID, broadcastID, body, &providerID, "sent")
		}(recipient)
	}

	wg.Wait()
	return sentTo, failed, results, errs
}

func (e *Engine) recordBestEffort(ctx context.Context, subscriberID, broadcastID uuid.UUID, body string, providerMessageID *string, status string) {
	if err := e.recorder.RecordOutbound(ctx, subscriberID, broadcastID, body, providerMessageID, status); err != nil {
		e.logger.With("error", err).Warn("broadcast: failed to log outbound message row")
	}
}

func (e *Engine) observe(outcome string) {
	if e.onOutcome != nil {
		e.onOutcome(outcome)
	}
}

func validate(req Request) error {
	if strings.TrimSpace(req.DraftMessage) == "" {
		return fmt.Errorf("%w: message is required", ErrInvalidInput)
	}
	if len(req.DraftMessage) > maxBodyLength {
		return fmt.Errorf("%w: message exceeds %d characters", ErrInvalidInput, maxBodyLength)
	}
	if !req.TargetAll && len(req.TargetListIDs) == 0 && len(req.ExcludeListIDs) == 0 {
		return fmt.Errorf("%w: must target all, or specify at least one target or exclude list", ErrInvalidInput)
	}
	return nil
}

func segmentCount(body string) int {
	if len(body) == 0 {
		return 1
	}
	return int(math.Ceil(float64(len(body)) / segmentSize))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
