package ratelimit

import "time"

// Limiter decides whether one more request under key may pass now.
type Limiter interface {
	Allow(key string) bool
}

// NopLimiter lets everything through; used when RATE_LIMIT_ENABLED=false.
type NopLimiter struct{}

func (NopLimiter) Allow(string) bool { return true }

// Clock is the time source of KeyLimiter.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a plain function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// RealClock reads the wall clock.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }
