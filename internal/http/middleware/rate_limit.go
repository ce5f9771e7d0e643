package middleware

import (
	"net/http"
	"time"

	"github.com/vedx/vedx-site/internal/http/response"
	"github.com/vedx/vedx-site/internal/repo"
	"github.com/vedx/vedx-site/internal/utils"
	"github.com/vedx/vedx-site/pkg/logger"
)

// RateLimitConfig defines rate limiting parameters
type RateLimitConfig struct {
	Requests int                            // Max requests per window
	Window   time.Duration                  // Time window duration
	KeyFunc  func(r *http.Request) []string // Function to generate rate limit keys
	SkipFunc func(r *http.Request) bool     // Function to skip rate limiting
}

// RateLimiter provides rate limiting functionality
type RateLimiter struct {
	store  repo.RateLimitRepository
	config RateLimitConfig
}

func NewRateLimiter(store repo.RateLimitRepository, config RateLimitConfig) *RateLimiter {
	if config.KeyFunc == nil {
		config.KeyFunc = IPKeyFunc
	}
	return &RateLimiter{
		store:  store,
		config: config,
	}
}

// Middleware returns the rate limiting middleware
func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if rl.config.Requests <= 0 || (rl.config.SkipFunc != nil && rl.config.SkipFunc(r)) {
				next.ServeHTTP(w, r)
				return
			}

			for _, key := range rl.config.KeyFunc(r) {
				allowed, err := rl.store.CheckRateLimit(r.Context(), key, rl.config.Requests, rl.config.Window)
				if err != nil {
					// fail open
					logger.ErrorContext(r.Context(), "Rate limit check failed", "error", err)
					continue
				}
				if !allowed {
					response.RateLimit(w, "Too many requests. Try again later")
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// IPKeyFunc limits by client address.
func IPKeyFunc(r *http.Request) []string {
	if ip := utils.ClientIP(r); ip != "" {
		return []string{"ip:" + ip}
	}
	return nil
}

// SkipSafeMethods exempts reads and CORS preflights.
func SkipSafeMethods(r *http.Request) bool {
	return r.Method == http.MethodGet || r.Method == http.MethodOptions
}
