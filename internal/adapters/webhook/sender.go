// Package webhook implements ports.Notifier against a Mattermost-style
// incoming webhook.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/parcel-labs/shipsync/internal/domain"
	"github.com/parcel-labs/shipsync/internal/ports"
)

const (
	maxAttempts = 3
	backoffBase = 500 * time.Millisecond
	backoffMax  = 5 * time.Second

	defaultUsername = "shipsync"
	defaultIcon     = ":truck:"
)

// payload is the incoming-webhook message body.
type payload struct {
	Text      string `json:"text"`
	Username  string `json:"username"`
	IconEmoji string `json:"icon_emoji"`
}

// Sender posts one summary message per cycle to a configured webhook URL.
type Sender struct {
	client ports.HTTPClient
	logger ports.Logger

	mu  sync.RWMutex
	url string
}

// NewSender creates a webhook notifier.
func NewSender(url string, client ports.HTTPClient, logger ports.Logger) *Sender {
	return &Sender{url: url, client: client, logger: logger}
}

// SetURL swaps the target URL. Used by the config watcher between cycles.
func (s *Sender) SetURL(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.url = url
}

func (s *Sender) target() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.url
}

// Deliver posts one cycle summary, retrying transport failures with
// exponential backoff. Exhausted retries return ErrDeliveryFailed; the
// caller never rolls back store updates on that account.
func (s *Sender) Deliver(ctx context.Context, summary domain.CycleSummary) error {
	return s.post(ctx, payload{
		Text:      formatSummary(summary),
		Username:  defaultUsername,
		IconEmoji: defaultIcon,
	})
}

// Announce posts a plain informational message (startup notices).
func (s *Sender) Announce(ctx context.Context, text string) error {
	return s.post(ctx, payload{
		Text:      text,
		Username:  defaultUsername,
		IconEmoji: defaultIcon,
	})
}

func (s *Sender) post(ctx context.Context, p payload) error {
	url := s.target()
	if url == "" {
		s.logger.Debug("no webhook url configured, dropping notification")
		return nil
	}

	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	back := newBackoff(backoffBase, backoffMax)
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if lastErr = s.send(ctx, url, body); lastErr == nil {
			return nil
		}
		s.logger.Warn("webhook delivery failed",
			ports.Int("attempt", attempt),
			ports.Err(lastErr),
		)
		if attempt < maxAttempts {
			if err := back.Sleep(ctx); err != nil {
				break
			}
		}
	}
	return fmt.Errorf("%w: %v", domain.ErrDeliveryFailed, lastErr)
}

func (s *Sender) send(ctx context.Context, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "shipsync-webhook/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook returned %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

type backoff struct {
	base time.Duration
	max  time.Duration
	cur  time.Duration
}

func newBackoff(base, max time.Duration) *backoff {
	return &backoff{base: base, max: max}
}

// Sleep waits for the current backoff duration with ~±20% jitter, or
// returns early when the context is done.
func (b *backoff) Sleep(ctx context.Context) error {
	if b.cur <= 0 {
		b.cur = b.base
	} else {
		b.cur *= 2
		if b.cur > b.max {
			b.cur = b.max
		}
	}
	j := 0.8 + 0.4*rand.Float64()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(time.Duration(float64(b.cur) * j)):
		return nil
	}
}
