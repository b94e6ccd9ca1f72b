package deployexec

import (
	"fmt"
	"io"
	"strings"

	"forgecd.dev/core/model"
)

// runDockerRun executes a docker_run plan: an optional stop-and-remove
// redeploy pre-step followed by the rendered `docker run` invocation,
// grounded on bx/cmd/run.go's dockerArgs construction but simplified to
// a pre-rendered arg string since deploy_config carries it that way
// (spec.md §4.7.1). The container name is taken from a --name flag in
// the plan's args when one is present; otherwise containerName is used
// and passed to `docker run` as --name, so a second run can find and
// replace the container.
func runDockerRun(transport *SSHTransport, containerName, imageRef string, plan *model.DockerRunPlan, w io.Writer) error {
	name, nameInArgs := containerName, false
	fields := strings.Fields(plan.Args)
	for i, f := range fields {
		switch {
		case f == "--name" && i+1 < len(fields):
			name, nameInArgs = fields[i+1], true
		case strings.HasPrefix(f, "--name="):
			name, nameInArgs = strings.TrimPrefix(f, "--name="), true
		}
	}

	if plan.Redeploy {
		stopCmd := fmt.Sprintf("docker stop %s 2>/dev/null; docker rm %s 2>/dev/null; true", name, name)
		if err := transport.RunCommand(stopCmd, w); err != nil {
			return err
		}
	}

	cmd := fmt.Sprintf("docker run -d --name %s %s %s", name, plan.Args, imageRef)
	if nameInArgs {
		cmd = fmt.Sprintf("docker run -d %s %s", plan.Args, imageRef)
	}
	return transport.RunCommand(cmd, w)
}
