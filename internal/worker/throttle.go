package worker

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// throttle caps how often non-transition progress goes out per video.
// Limiters are dropped when their video's run finishes.
type throttle struct {
	mu       sync.Mutex
	interval time.Duration
	limiters map[uuid.UUID]*rate.Limiter
}

func newThrottle(interval time.Duration) *throttle {
	return &throttle{
		interval: interval,
		limiters: make(map[uuid.UUID]*rate.Limiter),
	}
}

// allow reports whether one more event may go out for the video right now.
func (t *throttle) allow(videoID uuid.UUID) bool {
	t.mu.Lock()
	limiter, ok := t.limiters[videoID]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(t.interval), 1)
		t.limiters[videoID] = limiter
	}
	t.mu.Unlock()

	return limiter.Allow()
}

// forget releases the video's limiter.
func (t *throttle) forget(videoID uuid.UUID) {
	t.mu.Lock()
	delete(t.limiters, videoID)
	t.mu.Unlock()
}
