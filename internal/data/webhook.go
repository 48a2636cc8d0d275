package data

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"SignalGate/internal/conf"
	"SignalGate/internal/model"
	pkglog "SignalGate/pkg/log"

	"github.com/go-kratos/kratos/v2/log"
)

// WebhookClient posts alert payloads to the messaging endpoint.
// When no endpoint URL is configured it degrades to log-only delivery,
// which keeps development setups bootable without a real webhook.
type WebhookClient struct {
	url    string
	client *http.Client
	logger *pkglog.LogHelper
}

// NewWebhookClient creates a new webhook client. Each attempt carries its
// own timeout; exceeding it surfaces as a retryable transport failure.
func NewWebhookClient(cfg *conf.Dispatch, logger log.Logger) *WebhookClient {
	helper := pkglog.NewLogHelper(logger)

	if cfg.WebhookURL == "" {
		helper.Warn("webhook URL not configured, deliveries will be logged only")
	}

	return &WebhookClient{
		url: cfg.WebhookURL,
		client: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		logger: helper,
	}
}

// Send performs one HTTP POST to the endpoint. A non-nil error means the
// call produced no HTTP status (transport failure); otherwise the status
// and any retry-after hint are returned for the caller to classify.
func (c *WebhookClient) Send(ctx context.Context, payload *model.WebhookPayload) (*model.DeliveryResponse, error) {
	if c.url == "" {
		c.logger.Infow("msg", "webhook disabled, logging alert instead", "content", payload.Content)
		return &model.DeliveryResponse{StatusCode: http.StatusNoContent}, nil
	}

	body, err := json.Marshal(truncatePayload(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	// Drain so the connection can be reused
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	out := &model.DeliveryResponse{StatusCode: resp.StatusCode}
	if resp.StatusCode == http.StatusTooManyRequests {
		out.RetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
	}

	c.logger.Webhook("webhook delivery attempt completed",
		"status", resp.StatusCode,
		"retry_after", out.RetryAfter)

	return out, nil
}

// truncatePayload clamps payload fields to the endpoint's documented
// limits and keeps only the first embed. Returns a copy; the caller's
// payload is not modified.
func truncatePayload(p *model.WebhookPayload) *model.WebhookPayload {
	out := &model.WebhookPayload{
		Content: truncate(p.Content, model.MaxContentLength),
	}
	if len(p.Embeds) > 0 {
		e := p.Embeds[0]
		e.Title = truncate(e.Title, model.MaxEmbedTitleLength)
		e.Description = truncate(e.Description, model.MaxEmbedDescription)
		out.Embeds = []model.Embed{e}
	}
	return out
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}

// parseRetryAfter parses the Retry-After header, which may be either a
// delay in seconds or an HTTP date. Returns 0 when absent or unparseable.
func parseRetryAfter(h string) time.Duration {
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(h); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
