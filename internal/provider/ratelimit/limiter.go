// Package ratelimit provides per-provider rate limiting for search
// operations.
package ratelimit

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config defines rate limit configuration.
type Config struct {
	// QueryLimit is the maximum number of searches allowed in the period.
	QueryLimit int
	// QueryPeriod is the time period for query limiting.
	QueryPeriod time.Duration
}

// DefaultConfig returns the default rate limit configuration.
func DefaultConfig() Config {
	return Config{
		QueryLimit:  120,
		QueryPeriod: time.Hour,
	}
}

// Limiter tracks search counts per provider.
type Limiter struct {
	logger zerolog.Logger
	config Config

	mu      sync.Mutex
	buckets map[string]*rateBucket
}

// rateBucket tracks rate limit state for a single provider.
type rateBucket struct {
	count     int
	resetTime time.Time
}

// NewLimiter creates a new rate limiter.
func NewLimiter(config Config, logger zerolog.Logger) *Limiter {
	return &Limiter{
		logger:  logger.With().Str("component", "rate-limiter").Logger(),
		config:  config,
		buckets: make(map[string]*rateBucket),
	}
}

// Allow records one query against the provider and reports whether it
// stays within the limit. A false return means the caller must skip the
// provider for this request.
func (l *Limiter) Allow(providerName string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	bucket, exists := l.buckets[providerName]
	if !exists {
		bucket = &rateBucket{resetTime: time.Now().Add(l.config.QueryPeriod)}
		l.buckets[providerName] = bucket
	}

	if time.Now().After(bucket.resetTime) {
		bucket.count = 0
		bucket.resetTime = time.Now().Add(l.config.QueryPeriod)
	}

	if bucket.count >= l.config.QueryLimit {
		l.logger.Warn().
			Str("provider", providerName).
			Int("count", bucket.count).
			Int("limit", l.config.QueryLimit).
			Msg("Query rate limit reached")
		return false
	}

	bucket.count++
	return true
}

// Status returns the current count, limit, and reset time for a provider.
func (l *Limiter) Status(providerName string) (int, int, time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if bucket, exists := l.buckets[providerName]; exists && !time.Now().After(bucket.resetTime) {
		return bucket.count, l.config.QueryLimit, bucket.resetTime
	}
	return 0, l.config.QueryLimit, time.Now().Add(l.config.QueryPeriod)
}

// Reset clears the rate limit state for a provider.
func (l *Limiter) Reset(providerName string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.buckets, providerName)
}
