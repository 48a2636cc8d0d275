package biz

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"SignalGate/internal/model"
	pkglog "SignalGate/pkg/log"

	"github.com/go-kratos/kratos/v2/log"
)

// Embed accent colors per severity, in the messaging endpoint's palette.
var levelColors = map[model.AlertLevel]int{
	model.LevelInfo:     0x3498db,
	model.LevelWarning:  0xe67e22,
	model.LevelError:    0xe74c3c,
	model.LevelCritical: 0x992d22,
}

// DispatcherUseCase wires the pipeline: classify, admit, deliver,
// record. It owns the aggregate counters exposed on the stats endpoint.
type DispatcherUseCase struct {
	classifier *Classifier
	throttler  *ThrottlerUseCase
	delivery   *DeliveryUseCase
	clock      Clock
	logger     *pkglog.LogHelper

	sent      atomic.Uint64
	throttled atomic.Uint64
	failed    atomic.Uint64
}

// NewDispatcherUseCase creates a new dispatcher use case.
func NewDispatcherUseCase(classifier *Classifier, throttler *ThrottlerUseCase, delivery *DeliveryUseCase, logger log.Logger) *DispatcherUseCase {
	return &DispatcherUseCase{
		classifier: classifier,
		throttler:  throttler,
		delivery:   delivery,
		clock:      systemClock{},
		logger:     pkglog.NewLogHelper(logger),
	}
}

// Dispatch runs one alert through the pipeline and returns its terminal
// result. Errors never propagate: the result carries the outcome and a
// diagnostic message, so producers are never crashed by delivery trouble.
func (uc *DispatcherUseCase) Dispatch(ctx context.Context, req *model.AlertRequest) *model.DispatchResult {
	key := uc.classifier.MakeKey(req.AlertType, req.Subject, req.Level)

	// Once admitted past throttling, an alert runs its full retry sequence
	// to completion; a producer disconnect must not cancel it mid-flight.
	ctx = context.WithoutCancel(ctx)

	if err := uc.throttler.Admit(ctx, key, req.AlertType, req.Message); err != nil {
		uc.throttled.Add(1)
		uc.logger.Throttle("alert throttled", "key", key, "reason", err.Error())
		return &model.DispatchResult{
			Outcome: model.OutcomeThrottled,
			Key:     key,
			Error:   err.Error(),
		}
	}

	attempts, err := uc.delivery.Send(ctx, uc.buildPayload(req))
	if err != nil {
		// The reservation must not outlive the failed sequence: the next
		// non-throttled attempt for this key should still get to try.
		uc.throttler.Release(ctx, key)
		uc.failed.Add(1)

		outcome := model.OutcomeFailed
		var coe *CircuitOpenError
		if errors.As(err, &coe) {
			outcome = model.OutcomeCircuitOpen
		}
		uc.logger.Warnw("msg", "alert delivery failed",
			"key", key, "attempts", attempts, "error", err.Error())
		return &model.DispatchResult{
			Outcome:  outcome,
			Key:      key,
			Attempts: attempts,
			Error:    err.Error(),
		}
	}

	uc.throttler.MarkSent(ctx, key, req.AlertType, req.Message)
	uc.sent.Add(1)
	uc.logger.Dispatch("alert delivered", "key", key, "attempts", attempts, "level", string(req.Level))
	return &model.DispatchResult{
		Outcome:  model.OutcomeSent,
		Key:      key,
		Attempts: attempts,
	}
}

// Stats returns the aggregate dispatch counters. Success rate is computed
// over attempted deliveries; throttled alerts are not attempts.
func (uc *DispatcherUseCase) Stats() model.DispatchStats {
	sent := uc.sent.Load()
	failed := uc.failed.Load()

	stats := model.DispatchStats{
		TotalSent:      sent,
		TotalThrottled: uc.throttled.Load(),
		TotalFailed:    failed,
	}
	if attempted := sent + failed; attempted > 0 {
		stats.SuccessRate = float64(sent) / float64(attempted)
	}
	return stats
}

// buildPayload converts an alert into the outbound webhook shape. Field
// truncation happens in the sender, next to the endpoint limits.
func (uc *DispatcherUseCase) buildPayload(req *model.AlertRequest) *model.WebhookPayload {
	title := req.AlertType
	if req.Subject != "" {
		title = req.AlertType + " · " + req.Subject
	}
	return &model.WebhookPayload{
		Content: req.Message,
		Embeds: []model.Embed{{
			Title:     title,
			Color:     levelColors[req.Level],
			Timestamp: uc.clock.Now().UTC().Format(time.RFC3339),
		}},
	}
}
