package clickredirect

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

type fakeStore struct {
	links         map[string]*LinkLookup
	recordedLinks []uuid.UUID
}

func (f *fakeStore) FindByShortCode(ctx context.Context, code string) (*LinkLookup, error) {
	if l, ok := f.links[code]; ok {
		return l, nil
	}
	return nil, errors.New("not found")
}

func (f *fakeStore) RecordClick(ctx context.Context, linkID uuid.UUID, subscriberID *uuid.UUID) error {
	f.recordedLinks = append(f.recordedLinks, linkID)
	return nil
}

func TestResolveKnownCodeRedirectsAndRecordsClick(t *testing.T) {
	linkID := uuid.New()
	store := &fakeStore{links: map[string]*LinkLookup{
		"abc12345": {ID: linkID, TargetURL: "https://example.com/x"},
	}}
	r := New(store, nil)

	target, err := r.Resolve(context.Background(), "abc12345", nil)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if target != "https://example.com/x" {
		t.Errorf("target = %q", target)
	}
	if len(store.recordedLinks) != 1 || store.recordedLinks[0] != linkID {
		t.Errorf("recordedLinks = %v", store.recordedLinks)
	}
}

func TestResolveUnknownCodeReturnsNotFound(t *testing.T) {
	store := &fakeStore{links: map[string]*LinkLookup{}}
	r := New(store, nil)

	_, err := r.Resolve(context.Background(), "zzzzzzzz", nil)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
