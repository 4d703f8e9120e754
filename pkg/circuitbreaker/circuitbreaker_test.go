package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newBreaker(timeout time.Duration) *CircuitBreaker {
	return NewCircuitBreaker(Settings{
		Name:        "test",
		MaxRequests: 3,
		Timeout:     timeout,
	})
}

func TestOpensAfterMaxFailures(t *testing.T) {
	cb := newBreaker(time.Minute)
	boom := errors.New("boom")

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, cb.Execute(func() error { return boom }), boom)
	}

	assert.ErrorIs(t, cb.Execute(func() error { return nil }), ErrOpen)
}

func TestHalfOpenClosesOnSuccess(t *testing.T) {
	cb := newBreaker(10 * time.Millisecond)
	boom := errors.New("boom")

	for i := 0; i < 3; i++ {
		_ = cb.Execute(func() error { return boom })
	}
	time.Sleep(20 * time.Millisecond)

	assert.NoError(t, cb.Execute(func() error { return nil }))
	assert.NoError(t, cb.Execute(func() error { return nil }))
}

func TestHalfOpenReopensOnFailure(t *testing.T) {
	cb := newBreaker(10 * time.Millisecond)
	boom := errors.New("boom")

	for i := 0; i < 3; i++ {
		_ = cb.Execute(func() error { return boom })
	}
	time.Sleep(20 * time.Millisecond)

	assert.ErrorIs(t, cb.Execute(func() error { return boom }), boom)
	assert.ErrorIs(t, cb.Execute(func() error { return nil }), ErrOpen)
}

func TestSuccessResetsFailureCount(t *testing.T) {
	cb := newBreaker(time.Minute)
	boom := errors.New("boom")

	_ = cb.Execute(func() error { return boom })
	_ = cb.Execute(func() error { return boom })
	assert.NoError(t, cb.Execute(func() error { return nil }))

	_ = cb.Execute(func() error { return boom })
	_ = cb.Execute(func() error { return boom })
	assert.NoError(t, cb.Execute(func() error { return nil }))
}
