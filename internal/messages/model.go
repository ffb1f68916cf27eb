// Package messages persists the SMS message log — every inbound and
// outbound message, and the delivery status lifecycle of outbound sends.
package messages

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("messages: not found")

// Direction of a message relative to the service.
type Direction string

const (
	Inbound  Direction = "inbound"
	Outbound Direction = "outbound"
)

// DeliveryStatus mirrors the provider's delivery lifecycle, canonicalized
// across providers.
type DeliveryStatus string

const (
	StatusQueued      DeliveryStatus = "queued"
	StatusSent        DeliveryStatus = "sent"
	StatusDelivered   DeliveryStatus = "delivered"
	StatusFailed      DeliveryStatus = "failed"
	StatusUndelivered DeliveryStatus = "undelivered"
	StatusReceived    DeliveryStatus = "received" // inbound messages only
)

// Message is one SMS in the conversation log.
type Message struct {
	ID                uuid.UUID
	SubscriberID       uuid.UUID
	BroadcastID        *uuid.UUID // non-nil for outbound broadcast sends
	Direction          Direction
	Body               string
	Status             DeliveryStatus
	ProviderMessageID  *string
	SegmentCount       int
	CreatedAt          time.Time
}
