package types

import (
	"github.com/dustin/go-humanize"
	"golang.org/x/time/rate"
)

const (
	DefaultRateBurst = 1 * humanize.MByte
)

// RateLimiter throttles byte streams. A zero rate means unlimited.
type RateLimiter struct {
	*rate.Limiter
	burst int
}

func UnlimitedRateLimiter() *RateLimiter {
	return NewRateLimiter(0, 0)
}

func NewRateLimiter(rateLimit, rateBurst Bytes) *RateLimiter {
	rateInt := rateLimit.Bytes()

	// If rate is 0, create an unlimited rate limiter
	if rateInt == 0 {
		return &RateLimiter{Limiter: rate.NewLimiter(rate.Inf, 0)}
	}

	burstSize := int(rateBurst.Bytes())
	if burstSize == 0 {
		burstSize = DefaultRateBurst
	}

	// Keep the burst at or below a tenth of the rate so throttling is smooth
	if burstSize > int(rateInt/10) {
		burstSize = int(rateInt / 10)
	}
	if burstSize < 1 {
		burstSize = 1
	}

	return &RateLimiter{Limiter: rate.NewLimiter(rate.Limit(rateInt), burstSize), burst: burstSize}
}

// Unlimited reports whether the limiter never waits.
func (l *RateLimiter) Unlimited() bool {
	return l == nil || l.Limit() == rate.Inf
}

// Chunk returns the largest read size that a single WaitN call accepts.
func (l *RateLimiter) Chunk() int {
	if l.Unlimited() || l.burst == 0 {
		return 0
	}
	return l.burst
}
