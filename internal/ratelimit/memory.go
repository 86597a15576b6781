package ratelimit

import (
	"context"
	"sync"
	"time"
)

// SlidingWindow is an in-memory limiter that remembers the timestamp of each
// accepted request per key.
type SlidingWindow struct {
	requests int
	window   time.Duration
	clients  map[string]*clientWindow
	mu       sync.RWMutex
	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

type clientWindow struct {
	timestamps []time.Time
	mu         sync.Mutex
}

// NewSlidingWindow allows requests per window for each key. A background
// sweep drops idle keys until Stop is called.
func NewSlidingWindow(requests int, window time.Duration) *SlidingWindow {
	if requests <= 0 {
		requests = 100
	}
	if window <= 0 {
		window = time.Minute
	}

	sw := &SlidingWindow{
		requests: requests,
		window:   window,
		clients:  make(map[string]*clientWindow),
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	go sw.sweep(time.Minute)

	return sw
}

// Limit returns the configured number of requests per window.
func (sw *SlidingWindow) Limit() int {
	return sw.requests
}

func (sw *SlidingWindow) Stop() {
	sw.stopOnce.Do(func() { close(sw.stop) })
}

func (sw *SlidingWindow) sweep(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-sw.stop:
			return
		case <-ticker.C:
			sw.prune()
		}
	}
}

// prune drops keys whose newest request has left the window.
func (sw *SlidingWindow) prune() {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	now := sw.now()
	for key, c := range sw.clients {
		c.mu.Lock()
		if len(c.timestamps) == 0 || now.Sub(c.timestamps[len(c.timestamps)-1]) > sw.window {
			delete(sw.clients, key)
		}
		c.mu.Unlock()
	}
}

// Allow records a request for key if the window has room. It returns the
// points left after this request and when the window next frees a slot.
// sw.mu is held until the request is recorded so prune cannot drop the
// window in between.
func (sw *SlidingWindow) Allow(key string) (allowed bool, remaining int, reset time.Time) {
	sw.mu.RLock()
	if c, ok := sw.clients[key]; ok {
		defer sw.mu.RUnlock()
		return sw.record(c)
	}
	sw.mu.RUnlock()

	sw.mu.Lock()
	defer sw.mu.Unlock()
	c, ok := sw.clients[key]
	if !ok {
		c = &clientWindow{timestamps: make([]time.Time, 0, sw.requests)}
		sw.clients[key] = c
	}
	return sw.record(c)
}

func (sw *SlidingWindow) record(c *clientWindow) (bool, int, time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := sw.now()
	windowStart := now.Add(-sw.window)

	drop := 0
	for drop < len(c.timestamps) && !c.timestamps[drop].After(windowStart) {
		drop++
	}
	c.timestamps = c.timestamps[drop:]

	if len(c.timestamps) >= sw.requests {
		return false, 0, c.timestamps[0].Add(sw.window)
	}

	c.timestamps = append(c.timestamps, now)
	return true, sw.requests - len(c.timestamps), c.timestamps[0].Add(sw.window)
}

func (sw *SlidingWindow) Consume(_ context.Context, key string) error {
	allowed, _, reset := sw.Allow(key)
	if allowed {
		return nil
	}
	return &ExceededError{RetryAfter: reset.Sub(sw.now())}
}
