package notifier

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"
	"go.opentelemetry.io/otel"

	"github.com/RabowNicholas/sanctuary-sms-tool/pkg/logging"
)

var tracer = otel.Tracer("sanctuary.internal.notifier")

// Slack posts operator notifications to a fixed channel, threading
// follow-up posts against a conversation's first message timestamp.
type Slack struct {
	client  *slack.Client
	channel string
	logger  *logging.Logger
}

// NewSlack builds a Slack-backed Notifier. botToken is a bot user OAuth
// token (xoxb-...); channel is a channel id or name the bot has joined.
func NewSlack(botToken, channel string, logger *logging.Logger) *Slack {
	if logger == nil {
		logger = logging.Default()
	}
	return &Slack{
		client:  slack.New(botToken),
		channel: channel,
		logger:  logger,
	}
}

var _ Notifier = (*Slack)(nil)

// Post sends text to the configured channel. When threadRef is non-nil the
// post is threaded under that message; the returned string is the Slack
// message timestamp new callers should persist as the thread reference.
func (s *Slack) Post(ctx context.Context, text string, threadRef *string) (string, error) {
	ctx, span := tracer.Start(ctx, "notifier.slack.post")
	defer span.End()

	opts := []slack.MsgOption{
		slack.MsgOptionText(text, false),
	}
	if threadRef != nil {
		opts = append(opts, slack.MsgOptionTS(*threadRef))
	}

	_, ts, err := s.client.PostMessageContext(ctx, s.channel, opts...)
	if err != nil {
		return "", fmt.Errorf("notifier: slack post: %w", err)
	}
	return ts, nil
}
