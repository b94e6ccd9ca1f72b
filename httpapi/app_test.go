package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"forgecd.dev/core/config"
	"forgecd.dev/core/deployexec"
	"forgecd.dev/core/repoinspect"
	"forgecd.dev/core/scheduler"
	"forgecd.dev/core/store"
	"forgecd.dev/core/trigger"
	"forgecd.dev/core/wsstream"
)

// newTestApp wires a full App against fresh, filesystem-backed stores
// under t.TempDir(), the same dependency set cmd/server/main.go
// constructs at boot, with a nil image builder and no websocket server.
func newTestApp(t *testing.T) *App {
	t.Helper()
	dir := t.TempDir()

	pipelines, err := store.NewPipelineStore(dir)
	require.NoError(t, err)
	buildTasks, err := store.NewBuildTaskStore(dir)
	require.NoError(t, err)
	deployTasks, err := store.NewDeployTaskStore(dir)
	require.NoError(t, err)
	hosts, err := store.NewHostStore(dir)
	require.NoError(t, err)
	index, err := store.OpenIndex(dir)
	require.NoError(t, err)
	buildTasks.SetIndex(index)

	log := logrus.NewEntry(logrus.New())
	sched := scheduler.New(log, pipelines, buildTasks, nil, nil, 1)
	registry := deployexec.NewRegistry()
	executor := deployexec.New(log, deployTasks, hosts, registry)

	return &App{
		Config: &config.Config{
			OperatorToken: "s3cret",
			JWTSigningKey: []byte("test-signing-key"),
			JWTTTL:        time.Hour,
		},
		Log:            log,
		Pipelines:      pipelines,
		BuildTasks:     buildTasks,
		DeployTasks:    deployTasks,
		Hosts:          hosts,
		Index:          index,
		Inspector:      repoinspect.NewInspector(log, time.Minute),
		Scheduler:      sched,
		Executor:       executor,
		Registry:       registry,
		WebhookLimiter: trigger.NewWebhookLimiter(0),
		WSHub:          wsstream.NewHub(),
		WSServer:       nil,
	}
}

func authHeader(t *testing.T, a *App) string {
	t.Helper()
	rec := doJSON(t, a, http.MethodPost, "/api/auth/token", map[string]any{"token": "s3cret"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return "Bearer " + body.Token
}

func doJSON(t *testing.T, a *App, method, path string, body any, bearer string) *httptest.ResponseRecorder {
	t.Helper()
	router := NewRouter(a)

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", bearer)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}
