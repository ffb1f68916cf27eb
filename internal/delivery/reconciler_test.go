package delivery

import (
	"context"
	"testing"

	"github.com/RabowNicholas/sanctuary-sms-tool/internal/messages"
)

type fakeUpdater struct {
	lastID     string
	lastStatus messages.DeliveryStatus
}

func (f *fakeUpdater) UpdateStatusByProviderID(ctx context.Context, providerMessageID string, status messages.DeliveryStatus) error {
	f.lastID = providerMessageID
	f.lastStatus = status
	return nil
}

func TestApplyMapsDeliveredStatus(t *testing.T) {
	updater := &fakeUpdater{}
	r := New(updater, nil)

	err := r.Apply(context.Background(), Callback{ProviderMessageID: "SM1", ProviderStatus: "delivered"})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if updater.lastStatus != messages.StatusDelivered {
		t.Errorf("status = %v, want DELIVERED", updater.lastStatus)
	}
}

func TestApplyMapsIntermediateStatusesToSent(t *testing.T) {
	updater := &fakeUpdater{}
	r := New(updater, nil)

	for _, s := range []string{"sent", "queued", "sending", "receiving", "accepted"} {
		if err := r.Apply(context.Background(), Callback{ProviderMessageID: "SM1", ProviderStatus: s}); err != nil {
			t.Fatalf("Apply(%q) error = %v", s, err)
		}
		if updater.lastStatus != messages.StatusSent {
			t.Errorf("status for %q = %v, want SENT", s, updater.lastStatus)
		}
	}
}

func TestApplyUnknownMessageIsSilentSuccess(t *testing.T) {
	r := New(notFoundUpdater{}, nil)
	if err := r.Apply(context.Background(), Callback{ProviderMessageID: "SM404", ProviderStatus: "delivered"}); err != nil {
		t.Errorf("Apply() error = %v, want nil", err)
	}
}

type notFoundUpdater struct{}

func (notFoundUpdater) UpdateStatusByProviderID(ctx context.Context, providerMessageID string, status messages.DeliveryStatus) error {
	return messages.ErrNotFound
}
