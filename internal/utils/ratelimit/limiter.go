// Package ratelimit provides rate limiting functionality for protecting API endpoints.
// It implements the token bucket algorithm on top of golang.org/x/time/rate.
package ratelimit

import (
	"time"

	"golang.org/x/time/rate"
)

// Limiter represents a token bucket for a single client identity.
// The bucket holds at most Capacity tokens and refills to full once per Interval.
type Limiter struct {
	bucket   *rate.Limiter
	capacity int
	interval time.Duration
}

// Rate controls how many requests are admitted per interval.
type Rate struct {
	// Capacity is the size of the bucket, i.e. the burst admitted at once
	Capacity int

	// Interval is the time it takes an empty bucket to refill completely
	Interval time.Duration
}

// Every returns the refill period of a single token.
func (r Rate) Every() rate.Limit {
	if r.Capacity <= 0 || r.Interval <= 0 {
		return rate.Inf
	}
	return rate.Every(r.Interval / time.Duration(r.Capacity))
}

// NewLimiter creates a full bucket for the given rate.
func NewLimiter(r Rate) *Limiter {
	return &Limiter{
		bucket:   rate.NewLimiter(r.Every(), r.Capacity),
		capacity: r.Capacity,
		interval: r.Interval,
	}
}

// Allow consumes one token. It returns false when the bucket is empty.
func (l *Limiter) Allow() bool {
	return l.bucket.Allow()
}

// Tokens returns the number of tokens currently available.
func (l *Limiter) Tokens() float64 {
	return l.bucket.Tokens()
}
