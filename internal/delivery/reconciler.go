// Package delivery reconciles telephony-provider delivery callbacks
// against previously-sent outbound messages.
package delivery

import (
	"context"
	"errors"
	"fmt"

	"github.com/RabowNicholas/sanctuary-sms-tool/internal/messages"
	"github.com/RabowNicholas/sanctuary-sms-tool/pkg/logging"
)

// Callback is one provider delivery-status report.
type Callback struct {
	ProviderMessageID string
	ProviderStatus    string
	ErrorCode         string
	ErrorMessage      string
}

// StatusUpdater applies a canonical delivery status to a message row.
type StatusUpdater interface {
	UpdateStatusByProviderID(ctx context.Context, providerMessageID string, status messages.DeliveryStatus) error
}

var statusMap = map[string]messages.DeliveryStatus{
	"delivered":  messages.StatusDelivered,
	"failed":     messages.StatusFailed,
	"undelivered": messages.StatusUndelivered,
	"sent":       messages.StatusSent,
	"queued":     messages.StatusSent,
	"sending":    messages.StatusSent,
	"receiving":  messages.StatusSent,
	"accepted":   messages.StatusSent,
}

// Reconciler applies Callbacks to the message log.
type Reconciler struct {
	updater StatusUpdater
	logger  *logging.Logger
}

func New(updater StatusUpdater, logger *logging.Logger) *Reconciler {
	return &Reconciler{updater: updater, logger: logger}
}

// Apply maps cb's provider status to a canonical status and updates the
// matching message row. A message that cannot be found (it may predate
// tracking) is treated as success, per the reconciler's tolerant contract.
func (r *Reconciler) Apply(ctx context.Context, cb Callback) error {
	status, ok := statusMap[cb.ProviderStatus]
	if !ok {
		r.logger.With("provider_status", cb.ProviderStatus).Warn("delivery: unrecognized provider status")
		return nil
	}

	err := r.updater.UpdateStatusByProviderID(ctx, cb.ProviderMessageID, status)
	if err != nil && errors.Is(err, messages.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("delivery: apply: %w", err)
	}

	if cb.ErrorCode != "" || cb.ErrorMessage != "" {
		r.logger.With(
			"provider_message_id", cb.ProviderMessageID,
			"error_code", cb.ErrorCode,
			"error_message", cb.ErrorMessage,
		).Warn("delivery: provider reported an error")
	}
	return nil
}
