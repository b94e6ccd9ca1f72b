package deployexec

import (
	"io"

	"forgecd.dev/core/model"
)

// portainerExecutor is the interface-only stub for deploying through a
// Portainer-managed Docker endpoint's HTTP API rather than a direct SSH
// session. Out of scope for this module's actual execution; registered
// so a pipeline author can configure a portainer host without the rest
// of the system treating that as an invalid host_type.
type portainerExecutor struct{}

func (portainerExecutor) Execute(host model.DeployHost, _, _ string, _ model.DeployConfig, _ io.Writer, _ func(string)) error {
	return model.NewError(model.KindHostNotFound, "portainer host type is not implemented: "+host.Name)
}
