package gateway

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLogWindowAllow(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	w := NewLogWindow(5*time.Second, func() time.Time { return now })

	require.True(t, w.Allow("500:/cart/1:Server error"))
	require.False(t, w.Allow("500:/cart/1:Server error"))
	require.True(t, w.Allow("500:/cart/2:Server error"))

	now = now.Add(5 * time.Second)
	require.False(t, w.Allow("500:/cart/1:Server error"), "window edge is still suppressed")

	now = now.Add(time.Millisecond)
	require.True(t, w.Allow("500:/cart/1:Server error"))
}

func TestLogWindowSuppressedCallDoesNotExtendWindow(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	w := NewLogWindow(5*time.Second, func() time.Time { return now })

	require.True(t, w.Allow("k"))
	now = now.Add(4 * time.Second)
	require.False(t, w.Allow("k"))
	now = now.Add(2 * time.Second)
	require.True(t, w.Allow("k"))
}

func TestLogWindowSweepsStaleKeys(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	w := NewLogWindow(time.Second, func() time.Time { return now })

	for i := 0; i < sweepThreshold; i++ {
		require.True(t, w.Allow(fmt.Sprintf("old-%d", i)))
	}
	require.Equal(t, sweepThreshold, w.Len())

	now = now.Add(2 * time.Second)
	require.True(t, w.Allow("fresh"))
	require.Equal(t, 1, w.Len())
}

func TestLogWindowDefaults(t *testing.T) {
	w := NewLogWindow(0, nil)
	require.Equal(t, DefaultDedupWindow, w.window)
	require.NotNil(t, w.nowTime)
}
