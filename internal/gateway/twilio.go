package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/RabowNicholas/sanctuary-sms-tool/pkg/logging"
)

var tracer = otel.Tracer("sanctuary.internal.gateway")

// Twilio sends SMS through Twilio's REST API and verifies inbound webhook
// signatures per Twilio's X-Twilio-Signature scheme.
type Twilio struct {
	accountSID string
	authToken  string
	from       string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewTwilio builds a Twilio-backed SMSGateway.
func NewTwilio(accountSID, authToken, from string, logger *logging.Logger) *Twilio {
	if logger == nil {
		logger = logging.Default()
	}
	return &Twilio{
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

var _ SMSGateway = (*Twilio)(nil)

// Send posts one SMS via Twilio's Messages resource, retrying transient
// failures up to twice.
func (t *Twilio) Send(ctx context.Context, to, body string) (SendResult, error) {
	if t.accountSID == "" || t.authToken == "" {
		return SendResult{}, errors.New("gateway: twilio credentials missing")
	}
	if to == "" {
		return SendResult{}, errors.New("gateway: to required")
	}
	if strings.TrimSpace(body) == "" {
		return SendResult{}, errors.New("gateway: body required")
	}

	ctx, span := tracer.Start(ctx, "gateway.twilio.send")
	defer span.End()
	span.SetAttributes(attribute.String("sanctuary.to", to))

	payload := url.Values{}
	payload.Set("To", to)
	payload.Set("From", t.from)
	payload.Set("Body", body)

	endpoint := fmt.Sprintf("https://api.twilio.com/2010-04-01/Accounts/%s/Messages.json", t.accountSID)

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(payload.Encode()))
		if err != nil {
			lastErr = err
			break
		}
		req.SetBasicAuth(t.accountSID, t.authToken)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := t.httpClient.Do(req)
		if err != nil {
			lastErr = err
		} else {
			respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()

			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				var parsed struct {
					SID    string `json:"sid"`
					Status string `json:"status"`
				}
				if err := json.Unmarshal(respBody, &parsed); err == nil {
					t.logger.With("to", to, "provider_message_id", parsed.SID).Info("gateway: twilio sms sent")
					return SendResult{ProviderMessageID: parsed.SID, InitialStatus: parsed.Status}, nil
				}
				return SendResult{}, fmt.Errorf("gateway: unparseable twilio response: %w", err)
			}

			lastErr = fmt.Errorf("gateway: twilio send failed: %s", formatTwilioError(resp.StatusCode, respBody))
			if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != 429 {
				break
			}
		}

		if attempt < 3 {
			time.Sleep(time.Duration(200+rand.Intn(300)) * time.Millisecond)
		}
	}

	if lastErr != nil {
		span.RecordError(lastErr)
	}
	return SendResult{}, lastErr
}

// VerifySignature validates an inbound webhook's X-Twilio-Signature
// header against the HMAC-SHA1 scheme Twilio documents: the webhook URL
// concatenated with every sorted form key/value pair, signed with the
// auth token.
func (t *Twilio) VerifySignature(signature, webhookURL string, form url.Values) bool {
	if signature == "" {
		return false
	}
	payload := buildSignaturePayload(webhookURL, form)
	expected := computeSignature(payload, t.authToken)
	return hmac.Equal([]byte(signature), []byte(expected))
}

func buildSignaturePayload(webhookURL string, params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var payload strings.Builder
	payload.WriteString(webhookURL)
	for _, key := range keys {
		for _, value := range params[key] {
			payload.WriteString(key)
			payload.WriteString(value)
		}
	}
	return payload.String()
}

func computeSignature(data, key string) string {
	h := hmac.New(sha1.New, []byte(key))
	h.Write([]byte(data))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

type twilioAPIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func formatTwilioError(status int, body []byte) string {
	body = []byte(strings.TrimSpace(string(body)))
	if len(body) == 0 {
		return fmt.Sprintf("status %d", status)
	}
	var parsed twilioAPIError
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Message != "" {
		if parsed.Code != 0 {
			return fmt.Sprintf("status %d code %d: %s", status, parsed.Code, parsed.Message)
		}
		return fmt.Sprintf("status %d: %s", status, parsed.Message)
	}
	return fmt.Sprintf("status %d: %s", status, string(body))
}
