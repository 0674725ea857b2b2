package retry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNoneNeverRetries(t *testing.T) {
	var s None
	_, ok := s.Next()
	require.False(t, ok)
}

func TestIntervalRespectsLimitAndResets(t *testing.T) {
	s := NewInterval(50*time.Millisecond, 2)

	d, ok := s.Next()
	require.True(t, ok)
	require.Equal(t, 50*time.Millisecond, d)

	_, ok = s.Next()
	require.True(t, ok)

	_, ok = s.Next()
	require.False(t, ok, "third attempt exceeds the limit of 2")

	s.Reset()
	_, ok = s.Next()
	require.True(t, ok, "attempt counter resets after Reset")
}

func TestExponentialGrowsAndCaps(t *testing.T) {
	s := NewExponential(4*time.Second, 0)

	d1, ok := s.Next()
	require.True(t, ok)
	require.Equal(t, time.Second, d1)

	d2, _ := s.Next()
	require.Equal(t, 2*time.Second, d2)

	d3, _ := s.Next()
	require.Equal(t, 4*time.Second, d3)

	d4, _ := s.Next()
	require.LessOrEqual(t, d4, 4*time.Second, "must stay capped at MaxInterval")
}

func TestExponentialLimit(t *testing.T) {
	s := NewExponential(time.Minute, 1)
	_, ok := s.Next()
	require.True(t, ok)
	_, ok = s.Next()
	require.False(t, ok)
}
