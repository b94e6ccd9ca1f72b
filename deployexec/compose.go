package deployexec

import (
	"fmt"
	"io"

	"forgecd.dev/core/model"
)

// runDockerCompose uploads the plan's compose body to a per-task
// directory on the remote host and runs its command (default
// "up -d"), optionally preceded by a "down" redeploy pre-step, per
// spec.md §4.7.2. Parsing/normalizing the compose YAML itself happens
// in deployconfig; this package only ever ships it verbatim to the host
// docker compose already understands.
func runDockerCompose(transport *SSHTransport, remoteDir string, plan *model.DockerComposePlan, w io.Writer) error {
	composePath := remoteDir + "/docker-compose.yml"

	if err := transport.RunCommand("mkdir -p "+remoteDir, w); err != nil {
		return err
	}
	if err := transport.UploadFile(composePath, []byte(plan.ComposeContent)); err != nil {
		return err
	}

	if plan.Redeploy {
		downCmd := fmt.Sprintf("docker compose -f %s down", composePath)
		if err := transport.RunCommand(downCmd, w); err != nil {
			return err
		}
	}

	command := plan.Command
	if command == "" {
		command = "up -d"
	}
	runCmd := fmt.Sprintf("docker compose -f %s %s", composePath, command)
	return transport.RunCommand(runCmd, w)
}
