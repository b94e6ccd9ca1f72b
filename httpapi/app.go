// Package httpapi is the HTTP API (C10): a thin gin translation layer
// over the engine's components, grounded on api/routes.go /
// server/api/routes.go's router wiring and server/controllers' handler
// shape. Every handler here does request decoding, a call into one of
// the domain packages, and response encoding — no business logic lives
// here.
package httpapi

import (
	"github.com/sirupsen/logrus"

	"forgecd.dev/core/config"
	"forgecd.dev/core/deployexec"
	"forgecd.dev/core/repoinspect"
	"forgecd.dev/core/scheduler"
	"forgecd.dev/core/store"
	"forgecd.dev/core/trigger"
	"forgecd.dev/core/wsstream"
)

// App bundles every dependency the handlers need. It is deliberately a
// flat struct of already-constructed collaborators rather than an
// interface: cmd/server wires the concrete instances once at boot.
type App struct {
	Config *config.Config
	Log    *logrus.Entry

	Pipelines   *store.PipelineStore
	BuildTasks  *store.BuildTaskStore
	DeployTasks *store.DeployTaskStore
	Hosts       *store.HostStore
	Index       *store.Index

	Inspector *repoinspect.Inspector
	Scheduler *scheduler.Scheduler
	Executor  *deployexec.Executor
	Registry  *deployexec.Registry

	WebhookLimiter *trigger.WebhookLimiter

	WSHub    *wsstream.Hub
	WSServer *wsstream.Server
}

const defaultTaskListLimit = 50

func clampLimit(n int) int {
	if n <= 0 || n > 200 {
		return defaultTaskListLimit
	}
	return n
}
