package memory

import (
	"context"
	"sync"
	"time"
)

type window struct {
	start time.Time
	count int
}

// RateLimitRepository is a fixed-window counter keyed by string.
type RateLimitRepository struct {
	mu      sync.Mutex
	windows map[string]*window
	Now     func() time.Time
}

func NewRateLimitRepository() *RateLimitRepository {
	return &RateLimitRepository{
		windows: make(map[string]*window),
		Now:     time.Now,
	}
}

func (r *RateLimitRepository) CheckRateLimit(_ context.Context, key string, requests int, win time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.Now()
	w, ok := r.windows[key]
	if !ok || !now.Before(w.start.Add(win)) {
		w = &window{start: now}
		r.windows[key] = w
	}
	w.count++
	return w.count <= requests, nil
}
