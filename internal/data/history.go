package data

import (
	"sync/atomic"

	"SignalGate/internal/conf"
	"SignalGate/internal/model"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// AttemptHistory keeps a bounded, time-limited window of recent delivery
// attempts for the diagnostics endpoint. Backed by an expirable LRU, so
// old attempts age out even when traffic stops; nothing is ever persisted.
type AttemptHistory struct {
	cache *expirable.LRU[uint64, *model.DeliveryAttempt]
	seq   atomic.Uint64
}

// NewAttemptHistory creates a new attempt history.
func NewAttemptHistory(cfg *conf.Dispatch) *AttemptHistory {
	size := cfg.HistorySize
	if size <= 0 {
		size = 256
	}
	return &AttemptHistory{
		cache: expirable.NewLRU[uint64, *model.DeliveryAttempt](size, nil, cfg.HistoryTTL),
	}
}

// Record stores one delivery attempt.
func (h *AttemptHistory) Record(attempt *model.DeliveryAttempt) {
	h.cache.Add(h.seq.Add(1), attempt)
}

// Recent returns the stored attempts, oldest first.
func (h *AttemptHistory) Recent() []*model.DeliveryAttempt {
	return h.cache.Values()
}

// Len returns the number of stored attempts.
func (h *AttemptHistory) Len() int {
	return h.cache.Len()
}
