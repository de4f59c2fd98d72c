package gateway

import (
	"sync"
	"time"
)

const (
	DefaultDedupWindow = 5 * time.Second

	sweepThreshold = 256
)

// LogWindow suppresses repeated log lines. A key is allowed once per window.
type LogWindow struct {
	mu      sync.Mutex
	window  time.Duration
	nowTime func() time.Time
	seen    map[string]time.Time
}

// NewLogWindow creates a window. A nil clock uses time.Now.
func NewLogWindow(window time.Duration, nowTime func() time.Time) *LogWindow {
	if window <= 0 {
		window = DefaultDedupWindow
	}
	if nowTime == nil {
		nowTime = time.Now
	}
	return &LogWindow{
		window:  window,
		nowTime: nowTime,
		seen:    make(map[string]time.Time),
	}
}

// Allow reports whether key should be logged now, and if so records the time.
func (w *LogWindow) Allow(key string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.nowTime()
	if last, ok := w.seen[key]; ok && now.Sub(last) <= w.window {
		return false
	}
	w.seen[key] = now

	if len(w.seen) > sweepThreshold {
		w.sweep(now)
	}
	return true
}

// Len returns the number of keys currently tracked.
func (w *LogWindow) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.seen)
}

func (w *LogWindow) sweep(now time.Time) {
	for k, last := range w.seen {
		if now.Sub(last) > w.window {
			delete(w.seen, k)
		}
	}
}
