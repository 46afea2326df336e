package circuitbreaker

import (
	"errors"
	"testing"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/require"
)

func TestReadyToTrip(t *testing.T) {
	tests := []struct {
		name     string
		counts   gobreaker.Counts
		expected bool
	}{
		{"no requests", gobreaker.Counts{}, false},
		{"few failures", gobreaker.Counts{Requests: 20, TotalFailures: 5}, false},
		{"not enough requests", gobreaker.Counts{Requests: 10, TotalFailures: 10}, false},
		{"trip", gobreaker.Counts{Requests: 11, TotalFailures: 7}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, readyToTrip(tt.counts))
		})
	}
}

func TestCircuitBreakerOpens(t *testing.T) {
	cb := NewCircuitBreaker("test")
	require.Equal(t, "test", cb.Name())

	failure := errors.New("endpoint down")
	for i := 0; i <= MaxNumOfFailingRequests; i++ {
		//nolint
		cb.Execute(func() (interface{}, error) { return nil, failure })
	}
	require.Equal(t, gobreaker.StateOpen, cb.State())

	_, err := cb.Execute(func() (interface{}, error) { return nil, nil })
	require.ErrorIs(t, err, gobreaker.ErrOpenState)
}
