// Package linktokenizer extracts URLs from a broadcast draft, mints short
// codes for approved ones, and rewrites the draft body.
package linktokenizer

import (
	"context"
	"crypto/rand"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/RabowNicholas/sanctuary-sms-tool/pkg/logging"
)

var urlPattern = regexp.MustCompile(`https?://[^\s]+`)

const (
	shortCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	shortCodeLength   = 8
	maxCollisionRetry = 10
)

// LinkCreator persists a Link row, returning a conflict-classifiable error
// the tokenizer can retry on.
type LinkCreator interface {
	Create(ctx context.Context, l Link) error
}

// Link is the minimal shape the tokenizer writes. broadcastId and the
// short code are mandatory; callers translate to their storage type.
type Link struct {
	ID          uuid.UUID
	BroadcastID uuid.UUID
	ShortCode   string
	TargetURL   string
}

// Created describes one link minted during tokenization.
type Created struct {
	ShortCode string
	TargetURL string
}

// Tokenizer rewrites drafts and persists link rows via creator.
type Tokenizer struct {
	creator  LinkCreator
	baseURL  string // e.g. https://example.com/sanctuary
	isConflict func(error) bool
	logger   *logging.Logger
}

// New builds a Tokenizer. isConflict classifies a Create error as a short
// code collision worth retrying; pass nil to never retry.
func New(creator LinkCreator, baseURL string, isConflict func(error) bool, logger *logging.Logger) *Tokenizer {
	return &Tokenizer{creator: creator, baseURL: baseURL, isConflict: isConflict, logger: logger}
}

// Tokenize extracts URLs from body, shortens the ones present in approved
// (or all URLs if approved is nil), and rewrites body accordingly. On any
// persistence failure it falls back to the original body with zero links,
// per the pipeline's analytics-downgrade-never-send-failure contract.
func (t *Tokenizer) Tokenize(ctx context.Context, body string, broadcastID uuid.UUID, approved map[string]bool) (string, []Created) {
	urls := extractURLs(body)
	if len(urls) == 0 {
		return body, nil
	}

	rewritten := body
	var created []Created
	for _, u := range urls {
		if approved != nil && !approved[u] {
			continue
		}

		code, err := t.allocate(ctx, broadcastID, u)
		if err != nil {
			t.logger.With("url", u).Warn("linktokenizer: failed to mint short code, leaving body unshortened", "error", err)
			return body, nil
		}

		rewritten = strings.ReplaceAll(rewritten, u, fmt.Sprintf("%s/%s", t.baseURL, code))
		created = append(created, Created{ShortCode: code, TargetURL: u})
	}
	return rewritten, created
}

func (t *Tokenizer) allocate(ctx context.Context, broadcastID uuid.UUID, targetURL string) (string, error) {
	var lastErr error
	for attempt := 0; attempt < maxCollisionRetry; attempt++ {
		code, err := randomCode()
		if err != nil {
			return "", err
		}
		err = t.creator.Create(ctx, Link{ID: uuid.New(), BroadcastID: broadcastID, ShortCode: code, TargetURL: targetURL})
		if err == nil {
			return code, nil
		}
		lastErr = err
		if t.isConflict == nil || !t.isConflict(err) {
			return "", err
		}
	}
	return "", fmt.Errorf("linktokenizer: exhausted %d short code attempts: %w", maxCollisionRetry, lastErr)
}

// extractURLs returns URLs in first-appearance order with duplicates removed.
func extractURLs(body string) []string {
	matches := urlPattern.FindAllString(body, -1)
	seen := make(map[string]bool, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}

func randomCode() (string, error) {
	buf := make([]byte, shortCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("linktokenizer: random code: %w", err)
	}
	out := make([]byte, shortCodeLength)
	for i, b := range buf {
		out[i] = shortCodeAlphabet[int(b)%len(shortCodeAlphabet)]
	}
	return string(out), nil
}
