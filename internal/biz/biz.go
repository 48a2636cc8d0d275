// Package biz contains business logic layer implementations.
// This layer holds the delivery pipeline: classification, throttling,
// circuit breaking and the retrying delivery executor.
package biz

import (
	"SignalGate/internal/data"

	"github.com/google/wire"
)

// ProviderSet is biz providers.
var ProviderSet = wire.NewSet(
	NewClassifier,
	NewThrottlerUseCase,
	NewCircuitBreakerUseCase,
	NewDeliveryUseCase,
	NewDispatcherUseCase,
	// Bind data layer implementations to biz layer interfaces
	wire.Bind(new(ThrottleRepo), new(*data.ThrottleRepo)),
	wire.Bind(new(WebhookSender), new(*data.WebhookClient)),
	wire.Bind(new(AttemptRecorder), new(*data.AttemptHistory)),
)
