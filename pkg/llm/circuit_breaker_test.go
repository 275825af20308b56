package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker(threshold int, resetAfter time.Duration) (*CircuitBreaker, *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	cb := NewCircuitBreaker(CircuitBreakerConfig{Threshold: threshold, ResetAfter: resetAfter})
	cb.now = clock.now
	return cb, clock
}

func TestCircuitBreaker_TripsAfterThreshold(t *testing.T) {
	cb, _ := newTestBreaker(3, time.Minute)

	for i := 0; i < 2; i++ {
		cb.RecordFailure()
		assert.NoError(t, cb.Allow())
	}
	cb.RecordFailure()

	assert.Equal(t, CircuitOpen, cb.State())
	err := cb.Allow()
	require.Error(t, err)
	assert.Equal(t, ErrorTypeCircuit, GetErrorType(err))
	assert.False(t, IsRetryable(err))
}

func TestCircuitBreaker_HalfOpenProbe(t *testing.T) {
	cb, clock := newTestBreaker(1, time.Minute)
	cb.RecordFailure()

	clock.advance(59 * time.Second)
	assert.Error(t, cb.Allow())

	clock.advance(time.Second)
	assert.NoError(t, cb.Allow(), "one probe is allowed after ResetAfter")
	assert.Equal(t, CircuitHalfOpen, cb.State())
	assert.Error(t, cb.Allow(), "only one probe at a time")

	cb.RecordSuccess()
	assert.Equal(t, CircuitClosed, cb.State())
	assert.NoError(t, cb.Allow())
}

func TestCircuitBreaker_FailedProbeReopens(t *testing.T) {
	cb, clock := newTestBreaker(5, time.Minute)
	for i := 0; i < 5; i++ {
		cb.RecordFailure()
	}
	clock.advance(time.Minute)
	require.NoError(t, cb.Allow())

	cb.RecordFailure()

	assert.Equal(t, CircuitOpen, cb.State())
	assert.Error(t, cb.Allow())
}

func TestCircuitState_String(t *testing.T) {
	assert.Equal(t, "closed", CircuitClosed.String())
	assert.Equal(t, "open", CircuitOpen.String())
	assert.Equal(t, "half-open", CircuitHalfOpen.String())
	assert.Equal(t, "unknown", CircuitState(42).String())
}

func TestGuardedClient_OpensOnRetryableFailures(t *testing.T) {
	mock := NewMockLLMClient()
	mock.GenerateResponseFunc = func(context.Context, string, string, float64) (*GenerateResponseResult, error) {
		return nil, NewError(ErrorTypeEndpoint, "server error", true, nil)
	}
	cb, _ := newTestBreaker(2, time.Minute)
	client := NewGuardedClient(mock, cb, zap.NewNop())

	for i := 0; i < 2; i++ {
		_, err := client.GenerateResponse(context.Background(), "p", "s", 0.7)
		require.Error(t, err)
	}
	_, err := client.GenerateResponse(context.Background(), "p", "s", 0.7)

	assert.Equal(t, ErrorTypeCircuit, GetErrorType(err))
	assert.Equal(t, 2, mock.GenerateResponseCalls(), "open circuit short-circuits the provider call")
}

func TestGuardedClient_ConfigErrorsDoNotTrip(t *testing.T) {
	authErr := NewError(ErrorTypeAuth, "authentication failed", false, errors.New("401"))
	mock := NewMockLLMClient()
	mock.GenerateResponseFunc = func(context.Context, string, string, float64) (*GenerateResponseResult, error) {
		return nil, authErr
	}
	cb, _ := newTestBreaker(1, time.Minute)
	client := NewGuardedClient(mock, cb, zap.NewNop())

	for i := 0; i < 3; i++ {
		_, err := client.GenerateResponse(context.Background(), "p", "s", 0.7)
		assert.ErrorIs(t, err, authErr)
	}
	assert.Equal(t, CircuitClosed, cb.State())
	assert.Equal(t, 3, mock.GenerateResponseCalls())
}

func TestGuardedClient_PassesThroughSuccess(t *testing.T) {
	client := NewGuardedClient(NewMockLLMClientWithResponse(`{"title":"x"}`), NewCircuitBreaker(DefaultCircuitBreakerConfig()), zap.NewNop())

	res, err := client.GenerateResponse(context.Background(), "p", "s", 0.7)
	require.NoError(t, err)
	assert.Equal(t, `{"title":"x"}`, res.Content)
	assert.Equal(t, "mock-model", client.GetModel())
	assert.Equal(t, "http://mock-endpoint", client.GetEndpoint())
}
