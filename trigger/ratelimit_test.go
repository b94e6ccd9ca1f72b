package trigger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWebhookLimiter_DisabledWhenNonPositive(t *testing.T) {
	l := NewWebhookLimiter(0)
	for i := 0; i < 100; i++ {
		assert.True(t, l.Allow("p1"))
	}
}

func TestWebhookLimiter_BurstThenThrottle(t *testing.T) {
	l := NewWebhookLimiter(2)
	assert.True(t, l.Allow("p1"))
	assert.True(t, l.Allow("p1"))
	assert.False(t, l.Allow("p1"))
}

func TestWebhookLimiter_PerPipelineIsolation(t *testing.T) {
	l := NewWebhookLimiter(1)
	assert.True(t, l.Allow("p1"))
	assert.False(t, l.Allow("p1"))
	assert.True(t, l.Allow("p2"))
}
