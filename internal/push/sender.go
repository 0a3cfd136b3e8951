package push

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"
)

// Sender delivers an encrypted payload to one subscription.
type Sender interface {
	Send(ctx context.Context, sub Subscription, payload []byte) error
}

// DeliveryError is returned when the push service answers with a non-2xx status.
type DeliveryError struct {
	StatusCode int
	Body       string
}

func (e *DeliveryError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("push service responded %d", e.StatusCode)
	}
	return fmt.Sprintf("push service responded %d: %s", e.StatusCode, e.Body)
}

// IsGone reports whether err means the subscription can never be delivered
// to again (404 Not Found or 410 Gone).
func IsGone(err error) bool {
	var de *DeliveryError
	if !errors.As(err, &de) {
		return false
	}
	return de.StatusCode == http.StatusNotFound || de.StatusCode == http.StatusGone
}

const maxErrorBody = 512

// WebPushSender implements Sender with the Web Push protocol and VAPID
// authentication.
type WebPushSender struct {
	vapid  VAPID
	ttl    time.Duration
	client *http.Client
}

// DefaultTTL covers the lookahead window.
const DefaultTTL = 30 * time.Minute

type SenderOption func(*WebPushSender)

// WithTTL sets how long the push service may hold an undelivered message.
func WithTTL(ttl time.Duration) SenderOption {
	return func(s *WebPushSender) {
		s.ttl = ttl
	}
}

func WithHTTPClient(c *http.Client) SenderOption {
	return func(s *WebPushSender) {
		s.client = c
	}
}

func NewWebPushSender(vapid VAPID, opts ...SenderOption) *WebPushSender {
	s := &WebPushSender{
		vapid:  vapid,
		ttl:    DefaultTTL,
		client: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *WebPushSender) Send(ctx context.Context, sub Subscription, payload []byte) error {
	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.Keys.P256dh,
			Auth:   sub.Keys.Auth,
		},
	}, &webpush.Options{
		HTTPClient: s.client,
		// the library adds the mailto: scheme itself
		Subscriber:      strings.TrimPrefix(s.vapid.Subject, "mailto:"),
		VAPIDPublicKey:  s.vapid.PublicKey,
		VAPIDPrivateKey: s.vapid.PrivateKey,
		TTL:             int(s.ttl.Seconds()),
		Urgency:         webpush.UrgencyHigh,
	})
	if err != nil {
		return fmt.Errorf("web push request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &DeliveryError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return nil
}
