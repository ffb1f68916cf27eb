package linktokenizer

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/google/uuid"
)

type fakeCreator struct {
	created []Link
	failN   int // fail the first N calls with a conflict error
}

var errConflict = errors.New("conflict")

func (f *fakeCreator) Create(ctx context.Context, l Link) error {
	if f.failN > 0 {
		f.failN--
		return errConflict
	}
	f.created = append(f.created, l)
	return nil
}

func isConflict(err error) bool { return errors.Is(err, errConflict) }

func TestTokenizeRewritesApprovedURL(t *testing.T) {
	creator := &fakeCreator{}
	tok := New(creator, "https://example.com/sanctuary", isConflict, nil)

	body := "See https://example.com/x for details"
	rewritten, created := tok.Tokenize(context.Background(), body, uuid.New(), map[string]bool{"https://example.com/x": true})

	re := regexp.MustCompile(`^See https://example\.com/sanctuary/[A-Za-z0-9]{8} for details$`)
	if !re.MatchString(rewritten) {
		t.Errorf("rewritten = %q, did not match expected pattern", rewritten)
	}
	if len(created) != 1 || created[0].TargetURL != "https://example.com/x" {
		t.Errorf("created = %+v", created)
	}
}

func TestTokenizeLeavesUnapprovedURLVerbatim(t *testing.T) {
	creator := &fakeCreator{}
	tok := New(creator, "https://example.com/sanctuary", isConflict, nil)

	body := "See https://example.com/x"
	rewritten, created := tok.Tokenize(context.Background(), body, uuid.New(), map[string]bool{})

	if rewritten != body {
		t.Errorf("rewritten = %q, want unchanged", rewritten)
	}
	if len(created) != 0 {
		t.Errorf("created = %+v, want none", created)
	}
}

func TestTokenizeDedupesRepeatedURL(t *testing.T) {
	creator := &fakeCreator{}
	tok := New(creator, "https://example.com/sanctuary", isConflict, nil)

	body := "https://example.com/x and again https://example.com/x"
	rewritten, created := tok.Tokenize(context.Background(), body, uuid.New(), nil)

	if len(created) != 1 {
		t.Fatalf("created = %+v, want exactly one link for a deduped URL", created)
	}
	if got := countOccurrences(rewritten, created[0].ShortCode); got != 2 {
		t.Errorf("short code appears %d times, want 2", got)
	}
}

func TestTokenizeRetriesOnCollision(t *testing.T) {
	creator := &fakeCreator{failN: 2}
	tok := New(creator, "https://example.com/sanctuary", isConflict, nil)

	_, created := tok.Tokenize(context.Background(), "https://example.com/x", uuid.New(), nil)
	if len(created) != 1 {
		t.Fatalf("expected tokenizer to retry past collisions, got %+v", created)
	}
}

func TestTokenizeFallsBackToOriginalBodyOnPersistenceFailure(t *testing.T) {
	creator := &fakeCreator{failN: maxCollisionRetry}
	tok := New(creator, "https://example.com/sanctuary", isConflict, nil)

	body := "See https://example.com/x"
	rewritten, created := tok.Tokenize(context.Background(), body, uuid.New(), nil)

	if rewritten != body {
		t.Errorf("rewritten = %q, want fallback to original", rewritten)
	}
	if created != nil {
		t.Errorf("created = %+v, want none", created)
	}
}

func countOccurrences(s, substr string) int {
	count := 0
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			count++
		}
	}
	return count
}
