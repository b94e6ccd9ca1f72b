package repoinspect

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"forgecd.dev/core/model"
)

func TestInspector_InvalidateDropsCachedEntry(t *testing.T) {
	insp := NewInspector(logrus.NewEntry(logrus.New()), time.Minute)

	insp.mu.Lock()
	insp.cache["https://example.com/repo.git"] = &model.RepoInspection{GitURL: "https://example.com/repo.git", FetchedAt: time.Now()}
	insp.mu.Unlock()

	insp.Invalidate("https://example.com/repo.git")

	insp.mu.RLock()
	_, ok := insp.cache["https://example.com/repo.git"]
	insp.mu.RUnlock()
	assert.False(t, ok)
}

func TestRepoInspection_Stale(t *testing.T) {
	fresh := &model.RepoInspection{FetchedAt: time.Now()}
	assert.False(t, fresh.Stale(time.Minute))

	old := &model.RepoInspection{FetchedAt: time.Now().Add(-time.Hour)}
	assert.True(t, old.Stale(time.Minute))
}
