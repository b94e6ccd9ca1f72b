package trigger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forgecd.dev/core/model"
	"forgecd.dev/core/store"
)

func TestCronRunner_TickFiresDuePipelineOnce(t *testing.T) {
	dir := t.TempDir()
	pipelines, err := store.NewPipelineStore(dir)
	require.NoError(t, err)

	p := &model.Pipeline{
		PipelineID:     "p1",
		GitURL:         "https://example.com/acme/app.git",
		Template:       "go",
		ImageName:      "acme/app",
		PushMode:       model.PushModeSingle,
		WebhookToken:   "tok-cron",
		Enabled:        true,
		CronExpression: "* * * * *",
	}
	require.NoError(t, pipelines.Create(p))

	var mu sync.Mutex
	var fired []string
	runner := NewCronRunner(logrus.NewEntry(logrus.New()), pipelines, 0, func(p *model.Pipeline) {
		mu.Lock()
		fired = append(fired, p.PipelineID)
		mu.Unlock()
	})

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	runner.tick(now)
	runner.tick(now.Add(10 * time.Second))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"p1"}, fired)
}

func TestCronRunner_SkipsDisabledAndNoCronPipelines(t *testing.T) {
	dir := t.TempDir()
	pipelines, err := store.NewPipelineStore(dir)
	require.NoError(t, err)

	disabled := &model.Pipeline{
		PipelineID:     "disabled",
		GitURL:         "https://example.com/acme/app.git",
		Template:       "go",
		ImageName:      "acme/app",
		PushMode:       model.PushModeSingle,
		WebhookToken:   "tok-disabled",
		Enabled:        false,
		CronExpression: "* * * * *",
	}
	noCron := &model.Pipeline{
		PipelineID:   "no-cron",
		GitURL:       "https://example.com/acme/app2.git",
		Template:     "go",
		ImageName:    "acme/app2",
		PushMode:     model.PushModeSingle,
		WebhookToken: "tok-no-cron",
		Enabled:      true,
	}
	require.NoError(t, pipelines.Create(disabled))
	require.NoError(t, pipelines.Create(noCron))

	var fired []string
	runner := NewCronRunner(logrus.NewEntry(logrus.New()), pipelines, 0, func(p *model.Pipeline) {
		fired = append(fired, p.PipelineID)
	})
	runner.tick(time.Now())

	assert.Empty(t, fired)
}

func TestCronRunner_RunStopsOnContextCancel(t *testing.T) {
	dir := t.TempDir()
	pipelines, err := store.NewPipelineStore(dir)
	require.NoError(t, err)

	runner := NewCronRunner(logrus.NewEntry(logrus.New()), pipelines, 5*time.Millisecond, func(p *model.Pipeline) {})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		runner.Run(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}
