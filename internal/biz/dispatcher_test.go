package biz

import (
	"context"
	"os"
	"testing"
	"time"

	"SignalGate/internal/model"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestDispatcher(repo ThrottleRepo, sender WebhookSender) *DispatcherUseCase {
	logger := log.NewStdLogger(os.Stdout)
	classifier := NewClassifier()
	throttler := NewThrottlerUseCase(newTestDispatchConf(), repo, classifier, logger)
	breaker := newTestBreaker(newFakeClock())
	delivery := NewDeliveryUseCase(newTestDispatchConf(), breaker, sender, &recorderStub{}, logger)
	delivery.sleeper = &fakeSleeper{}
	return NewDispatcherUseCase(classifier, throttler, delivery, logger)
}

func testAlert() *model.AlertRequest {
	return &model.AlertRequest{
		Level:     model.LevelWarning,
		Message:   "500 BTC moved to exchange",
		AlertType: "whale_trade",
		Subject:   "BTCUSDT",
	}
}

// Happy path: admitted, delivered, marked sent.
func TestDispatch_Sent(t *testing.T) {
	repo := new(MockThrottleRepo)
	sender := new(MockWebhookSender)
	uc := newTestDispatcher(repo, sender)

	repo.On("LastKeySend", mock.Anything, "whale_trade:BTCUSDT:warning").Return(time.Time{}, false, nil)
	repo.On("LastFingerprintSend", mock.Anything, mock.Anything).Return(time.Time{}, false, nil)
	repo.On("TryReserve", mock.Anything, "whale_trade:BTCUSDT:warning", 300*time.Second).Return(true, nil)
	repo.On("MarkSent", mock.Anything, "whale_trade:BTCUSDT:warning", mock.Anything, 300*time.Second, 300*time.Second).Return(nil)
	sender.On("Send", mock.Anything, mock.Anything).Return(&model.DeliveryResponse{StatusCode: 204}, nil).Once()

	result := uc.Dispatch(context.Background(), testAlert())
	assert.Equal(t, model.OutcomeSent, result.Outcome)
	assert.True(t, result.Success())
	assert.Equal(t, "whale_trade:BTCUSDT:warning", result.Key)
	assert.Equal(t, 1, result.Attempts)
	repo.AssertExpectations(t)
}

// A throttled alert never reaches the network.
func TestDispatch_ThrottledSkipsDelivery(t *testing.T) {
	repo := new(MockThrottleRepo)
	sender := new(MockWebhookSender)
	uc := newTestDispatcher(repo, sender)

	repo.On("LastKeySend", mock.Anything, mock.Anything).Return(time.Now(), true, nil)

	result := uc.Dispatch(context.Background(), testAlert())
	assert.Equal(t, model.OutcomeThrottled, result.Outcome)
	assert.False(t, result.Success())
	assert.Contains(t, result.Error, "cooldown")
	sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "MarkSent", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// Exhausted delivery releases the reservation and never marks sent, so
// the next occurrence of the key still gets to try.
func TestDispatch_FailureReleasesReservation(t *testing.T) {
	repo := new(MockThrottleRepo)
	sender := new(MockWebhookSender)
	uc := newTestDispatcher(repo, sender)

	repo.On("LastKeySend", mock.Anything, mock.Anything).Return(time.Time{}, false, nil)
	repo.On("LastFingerprintSend", mock.Anything, mock.Anything).Return(time.Time{}, false, nil)
	repo.On("TryReserve", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
	repo.On("Release", mock.Anything, "whale_trade:BTCUSDT:warning").Return(nil)
	sender.On("Send", mock.Anything, mock.Anything).Return(&model.DeliveryResponse{StatusCode: 500}, nil).Times(3)

	result := uc.Dispatch(context.Background(), testAlert())
	assert.Equal(t, model.OutcomeFailed, result.Outcome)
	assert.Equal(t, 3, result.Attempts)
	assert.NotEmpty(t, result.Error)
	repo.AssertCalled(t, "Release", mock.Anything, "whale_trade:BTCUSDT:warning")
	repo.AssertNotCalled(t, "MarkSent", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// With the breaker open the outcome is distinguishable from a failed
// delivery: callers see circuit_open with zero attempts.
func TestDispatch_CircuitOpenOutcome(t *testing.T) {
	repo := new(MockThrottleRepo)
	sender := new(MockWebhookSender)
	uc := newTestDispatcher(repo, sender)

	repo.On("LastKeySend", mock.Anything, mock.Anything).Return(time.Time{}, false, nil)
	repo.On("LastFingerprintSend", mock.Anything, mock.Anything).Return(time.Time{}, false, nil)
	repo.On("TryReserve", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
	repo.On("Release", mock.Anything, mock.Anything).Return(nil)

	for i := 0; i < 5; i++ {
		uc.delivery.breaker.RecordFailure()
	}

	result := uc.Dispatch(context.Background(), testAlert())
	assert.Equal(t, model.OutcomeCircuitOpen, result.Outcome)
	assert.Equal(t, 0, result.Attempts)
	sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestDispatch_Counters(t *testing.T) {
	repo := new(MockThrottleRepo)
	sender := new(MockWebhookSender)
	uc := newTestDispatcher(repo, sender)

	repo.On("LastKeySend", mock.Anything, mock.Anything).Return(time.Time{}, false, nil).Once()
	repo.On("LastFingerprintSend", mock.Anything, mock.Anything).Return(time.Time{}, false, nil).Once()
	repo.On("TryReserve", mock.Anything, mock.Anything, mock.Anything).Return(true, nil).Once()
	repo.On("MarkSent", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
	sender.On("Send", mock.Anything, mock.Anything).Return(&model.DeliveryResponse{StatusCode: 200}, nil).Once()
	uc.Dispatch(context.Background(), testAlert())

	// Second occurrence is throttled
	repo.On("LastKeySend", mock.Anything, mock.Anything).Return(time.Now(), true, nil)
	uc.Dispatch(context.Background(), testAlert())

	stats := uc.Stats()
	assert.Equal(t, uint64(1), stats.TotalSent)
	assert.Equal(t, uint64(1), stats.TotalThrottled)
	assert.Equal(t, uint64(0), stats.TotalFailed)

	// Throttled alerts are not attempts: success rate stays 1.0
	assert.Equal(t, 1.0, stats.SuccessRate)
}

func TestStats_SuccessRateOverAttempted(t *testing.T) {
	uc := newTestDispatcher(new(MockThrottleRepo), new(MockWebhookSender))

	uc.sent.Add(3)
	uc.failed.Add(1)
	uc.throttled.Add(10)

	stats := uc.Stats()
	assert.Equal(t, 0.75, stats.SuccessRate)
}

func TestStats_EmptyPipeline(t *testing.T) {
	uc := newTestDispatcher(new(MockThrottleRepo), new(MockWebhookSender))

	stats := uc.Stats()
	assert.Equal(t, 0.0, stats.SuccessRate)
}

func TestBuildPayload(t *testing.T) {
	uc := newTestDispatcher(new(MockThrottleRepo), new(MockWebhookSender))

	payload := uc.buildPayload(testAlert())
	assert.Equal(t, "500 BTC moved to exchange", payload.Content)
	require.Len(t, payload.Embeds, 1)
	assert.Equal(t, "whale_trade · BTCUSDT", payload.Embeds[0].Title)
	assert.Equal(t, levelColors[model.LevelWarning], payload.Embeds[0].Color)
	assert.NotEmpty(t, payload.Embeds[0].Timestamp)
}

func TestBuildPayload_NoSubject(t *testing.T) {
	uc := newTestDispatcher(new(MockThrottleRepo), new(MockWebhookSender))

	payload := uc.buildPayload(&model.AlertRequest{
		Level:     model.LevelInfo,
		Message:   "heartbeat ok",
		AlertType: "system_health",
	})
	assert.Equal(t, "system_health", payload.Embeds[0].Title)
}
