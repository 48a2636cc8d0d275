package data

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"SignalGate/internal/conf"
	"SignalGate/internal/model"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWebhookClient(url string) *WebhookClient {
	return NewWebhookClient(&conf.Dispatch{
		WebhookURL:     url,
		RequestTimeout: 5 * time.Second,
	}, log.NewStdLogger(os.Stdout))
}

func TestWebhookSend_Success(t *testing.T) {
	var received model.WebhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := newTestWebhookClient(srv.URL)
	resp, err := c.Send(context.Background(), &model.WebhookPayload{
		Content: "500 BTC moved",
		Embeds:  []model.Embed{{Title: "whale_trade", Color: 0xe67e22}},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "500 BTC moved", received.Content)
	require.Len(t, received.Embeds, 1)
	assert.Equal(t, "whale_trade", received.Embeds[0].Title)
}

// A 429 response carries the Retry-After hint back to the caller.
func TestWebhookSend_RateLimitedWithRetryAfter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := newTestWebhookClient(srv.URL)
	resp, err := c.Send(context.Background(), &model.WebhookPayload{Content: "x"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, 7*time.Second, resp.RetryAfter)
}

// Non-429 statuses come back as-is with no retry hint; classification is
// the delivery layer's job.
func TestWebhookSend_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newTestWebhookClient(srv.URL)
	resp, err := c.Send(context.Background(), &model.WebhookPayload{Content: "x"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Zero(t, resp.RetryAfter)
}

// Transport failures return an error, not a response.
func TestWebhookSend_TransportError(t *testing.T) {
	c := newTestWebhookClient("http://127.0.0.1:1")

	resp, err := c.Send(context.Background(), &model.WebhookPayload{Content: "x"})
	assert.Error(t, err)
	assert.Nil(t, resp)
}

// Without a configured URL the client degrades to log-only delivery.
func TestWebhookSend_NoURLLogsOnly(t *testing.T) {
	c := newTestWebhookClient("")

	resp, err := c.Send(context.Background(), &model.WebhookPayload{Content: "x"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

// Oversized fields are clamped to the endpoint limits before sending.
func TestWebhookSend_TruncatesPayload(t *testing.T) {
	var received model.WebhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newTestWebhookClient(srv.URL)
	_, err := c.Send(context.Background(), &model.WebhookPayload{
		Content: strings.Repeat("a", model.MaxContentLength+500),
		Embeds: []model.Embed{
			{Title: strings.Repeat("t", model.MaxEmbedTitleLength+10)},
			{Title: "dropped second embed"},
		},
	})
	require.NoError(t, err)
	assert.Len(t, received.Content, model.MaxContentLength)
	require.Len(t, received.Embeds, 1)
	assert.Len(t, received.Embeds[0].Title, model.MaxEmbedTitleLength)
}

// The caller's payload is not mutated by truncation.
func TestTruncatePayload_Copies(t *testing.T) {
	original := &model.WebhookPayload{
		Content: strings.Repeat("a", model.MaxContentLength+1),
		Embeds:  []model.Embed{{Title: "t"}},
	}
	out := truncatePayload(original)

	assert.Len(t, out.Content, model.MaxContentLength)
	assert.Len(t, original.Content, model.MaxContentLength+1)
}

func TestParseRetryAfter(t *testing.T) {
	assert.Equal(t, time.Duration(0), parseRetryAfter(""))
	assert.Equal(t, 30*time.Second, parseRetryAfter("30"))
	assert.Equal(t, time.Duration(0), parseRetryAfter("garbage"))

	// HTTP date format
	future := time.Now().Add(90 * time.Second).UTC().Format(http.TimeFormat)
	d := parseRetryAfter(future)
	assert.Greater(t, d, 80*time.Second)
	assert.LessOrEqual(t, d, 90*time.Second)

	past := time.Now().Add(-time.Minute).UTC().Format(http.TimeFormat)
	assert.Equal(t, time.Duration(0), parseRetryAfter(past))
}
