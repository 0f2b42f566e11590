// Package callback performs the out-of-band delivery leg of the bridge:
// a best-effort POST of a finished envelope to the caller-supplied
// callback address.
package callback

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/talkbridgehq/talkbridge/internal/render"
)

// Outcome reports how one rendered envelope left the bridge. Used for
// logging only; it feeds no further decision.
type Outcome string

const (
	DeliveredInline             Outcome = "delivered_inline"
	AcknowledgedPendingCallback Outcome = "ack_pending_callback"
	CallbackSent                Outcome = "callback_sent"
	CallbackFailed              Outcome = "callback_failed"
)

// Deliverer posts envelopes to callback addresses. Safe for concurrent
// use.
type Deliverer struct {
	http   *http.Client
	logger *slog.Logger
}

func NewDeliverer(log *slog.Logger, timeout time.Duration) *Deliverer {
	if log == nil {
		log = slog.Default()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Deliverer{
		http:   &http.Client{Timeout: timeout},
		logger: log.With(slog.String("component", "callback")),
	}
}

// Deliver posts the envelope to callbackURL. Single attempt; every
// transport error is logged and folded into the returned outcome, never
// propagated: by the time this runs the platform has already received
// its acknowledgment and has no channel left for a correction. An empty
// callbackURL is a no-op (the variant responded inline).
func (d *Deliverer) Deliver(ctx context.Context, callbackURL string, envelope render.Envelope) Outcome {
	url := strings.TrimSpace(callbackURL)
	if url == "" {
		return DeliveredInline
	}

	body, err := json.Marshal(envelope)
	if err != nil {
		d.logger.Error("encode envelope failed", slog.String("url", url), slog.Any("error", err))
		return CallbackFailed
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		d.logger.Error("build callback request failed", slog.String("url", url), slog.Any("error", err))
		return CallbackFailed
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.http.Do(req)
	if err != nil {
		d.logger.Warn("callback post failed", slog.String("url", url), slog.Any("error", err))
		return CallbackFailed
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		d.logger.Warn("callback rejected", slog.String("url", url), slog.Int("status", resp.StatusCode))
		return CallbackFailed
	}
	d.logger.Info("callback delivered", slog.String("url", url), slog.Int("status", resp.StatusCode))
	return CallbackSent
}
