package trigger

import (
	"sync"

	"golang.org/x/time/rate"
)

// WebhookLimiter enforces a per-pipeline token-bucket rate limit on
// inbound webhook calls (A.3.5), so a misbehaving Git host retry storm
// can't flood the build queue for one pipeline.
type WebhookLimiter struct {
	perMinute int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewWebhookLimiter builds a limiter allowing perMinute webhook calls
// per pipeline token, with a burst of the same size. perMinute <= 0
// disables limiting entirely.
func NewWebhookLimiter(perMinute int) *WebhookLimiter {
	return &WebhookLimiter{
		perMinute: perMinute,
		limiters:  make(map[string]*rate.Limiter),
	}
}

// Allow reports whether a webhook call for pipelineID may proceed.
func (l *WebhookLimiter) Allow(pipelineID string) bool {
	if l.perMinute <= 0 {
		return true
	}

	l.mu.Lock()
	lim, ok := l.limiters[pipelineID]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(float64(l.perMinute)/60.0), l.perMinute)
		l.limiters[pipelineID] = lim
	}
	l.mu.Unlock()

	return lim.Allow()
}
