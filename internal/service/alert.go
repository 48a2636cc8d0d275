// Package service exposes the alert dispatch pipeline over HTTP DTOs.
package service

import (
	"context"

	"SignalGate/internal/biz"
	"SignalGate/internal/data"
	"SignalGate/internal/model"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
)

// SendAlertRequest is the inbound producer request.
type SendAlertRequest struct {
	Level     string `json:"level"`
	Message   string `json:"message"`
	AlertType string `json:"alert_type"`
	Subject   string `json:"subject,omitempty"`
}

// SendAlertReply reports the pipeline outcome for one alert. Success is
// false for both "throttled" and "failed after retries"; callers that
// need to distinguish inspect Outcome and Error.
type SendAlertReply struct {
	Success  bool   `json:"success"`
	Outcome  string `json:"outcome"`
	Key      string `json:"key,omitempty"`
	Attempts int    `json:"attempts"`
	Error    string `json:"error,omitempty"`
}

// StatsReply aggregates dispatcher counters and pipeline state.
type StatsReply struct {
	model.DispatchStats
	Circuit         model.CircuitSnapshot `json:"circuit"`
	ThrottleEntries int                   `json:"throttle_entries"`
	RecentAttempts  int                   `json:"recent_attempts"`
}

// AttemptsReply lists recent delivery attempts, oldest first.
type AttemptsReply struct {
	Attempts []*model.DeliveryAttempt `json:"attempts"`
}

// HealthReply is the liveness response.
type HealthReply struct {
	Status string `json:"status"`
}

// AlertService handles inbound alert requests and diagnostics queries.
type AlertService struct {
	dispatcher *biz.DispatcherUseCase
	throttler  *biz.ThrottlerUseCase
	breaker    *biz.CircuitBreakerUseCase
	history    *data.AttemptHistory
	logger     *log.Helper
}

// NewAlertService creates a new alert service.
func NewAlertService(dispatcher *biz.DispatcherUseCase, throttler *biz.ThrottlerUseCase, breaker *biz.CircuitBreakerUseCase, history *data.AttemptHistory, logger log.Logger) *AlertService {
	return &AlertService{
		dispatcher: dispatcher,
		throttler:  throttler,
		breaker:    breaker,
		history:    history,
		logger:     log.NewHelper(logger),
	}
}

// SendAlert runs one alert through the pipeline. Pipeline outcomes
// (throttled, failed, circuit open) are results, not errors: the reply
// always comes back with HTTP 200. Only malformed requests are rejected.
func (s *AlertService) SendAlert(ctx context.Context, req *SendAlertRequest) (*SendAlertReply, error) {
	if req.Message == "" {
		return nil, errors.BadRequest("INVALID_MESSAGE", "message must not be empty")
	}
	if req.AlertType == "" {
		return nil, errors.BadRequest("INVALID_ALERT_TYPE", "alert_type must not be empty")
	}

	level := model.AlertLevel(req.Level)
	if req.Level == "" {
		level = model.LevelInfo
	}
	if !level.Valid() {
		return nil, errors.BadRequest("INVALID_LEVEL", "level must be one of info, warning, error, critical")
	}

	result := s.dispatcher.Dispatch(ctx, &model.AlertRequest{
		Level:     level,
		Message:   req.Message,
		AlertType: req.AlertType,
		Subject:   req.Subject,
	})

	return &SendAlertReply{
		Success:  result.Success(),
		Outcome:  string(result.Outcome),
		Key:      result.Key,
		Attempts: result.Attempts,
		Error:    result.Error,
	}, nil
}

// Stats returns aggregate counters, the circuit snapshot and store sizes.
func (s *AlertService) Stats(ctx context.Context) (*StatsReply, error) {
	return &StatsReply{
		DispatchStats:   s.dispatcher.Stats(),
		Circuit:         s.breaker.Snapshot(),
		ThrottleEntries: s.throttler.EntryCount(ctx),
		RecentAttempts:  s.history.Len(),
	}, nil
}

// RecentAttempts returns the recent delivery attempt records.
func (s *AlertService) RecentAttempts(_ context.Context) (*AttemptsReply, error) {
	return &AttemptsReply{Attempts: s.history.Recent()}, nil
}

// Health reports liveness.
func (s *AlertService) Health(_ context.Context) (*HealthReply, error) {
	return &HealthReply{Status: "ok"}, nil
}
