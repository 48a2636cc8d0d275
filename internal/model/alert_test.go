package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAlertLevel_Valid(t *testing.T) {
	assert.True(t, LevelInfo.Valid())
	assert.True(t, LevelWarning.Valid())
	assert.True(t, LevelError.Valid())
	assert.True(t, LevelCritical.Valid())

	assert.False(t, AlertLevel("").Valid())
	assert.False(t, AlertLevel("panic").Valid())
	assert.False(t, AlertLevel("INFO").Valid())
}

func TestDispatchResult_Success(t *testing.T) {
	assert.True(t, (&DispatchResult{Outcome: OutcomeSent}).Success())
	assert.False(t, (&DispatchResult{Outcome: OutcomeThrottled}).Success())
	assert.False(t, (&DispatchResult{Outcome: OutcomeFailed}).Success())
	assert.False(t, (&DispatchResult{Outcome: OutcomeCircuitOpen}).Success())
}
