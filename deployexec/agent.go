package deployexec

import (
	"io"

	"forgecd.dev/core/model"
)

// agentExecutor is the interface-only stub for a pull-based "agent"
// host type (a companion process on the target host that polls for
// deploy work instead of being reached over SSH). Spec.md names this
// host type but scopes its actual wire protocol out; wiring a real
// agent protocol here is future work, not something this module talks
// to yet.
type agentExecutor struct{}

func (agentExecutor) Execute(host model.DeployHost, _, _ string, _ model.DeployConfig, _ io.Writer, _ func(string)) error {
	return model.NewError(model.KindHostNotFound, "agent host type is not implemented: "+host.Name)
}
