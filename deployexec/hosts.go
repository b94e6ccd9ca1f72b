package deployexec

import (
	"io"

	"forgecd.dev/core/model"
)

// HostExecutor runs one rendered deploy plan against one host. Each
// model.HostType gets exactly one implementation; agent and portainer
// are registered but always return KindHostNotFound, matching spec.md's
// explicit scope cut (only ssh hosts actually execute).
type HostExecutor interface {
	Execute(host model.DeployHost, containerOrStackName, imageRef string, cfg model.DeployConfig, w io.Writer, onStep func(string)) error
}

// Registry resolves a host's executor by its declared type.
type Registry struct {
	executors map[model.HostType]HostExecutor
}

// NewRegistry builds the default registry: a real SSH executor, plus
// interface-only stubs for agent and portainer hosts.
func NewRegistry() *Registry {
	return &Registry{
		executors: map[model.HostType]HostExecutor{
			model.HostTypeSSH:       sshExecutor{},
			model.HostTypeAgent:     agentExecutor{},
			model.HostTypePortainer: portainerExecutor{},
		},
	}
}

// Execute resolves host.Type and runs cfg against it.
func (r *Registry) Execute(host model.DeployHost, containerOrStackName, imageRef string, cfg model.DeployConfig, w io.Writer, onStep func(string)) error {
	exec, ok := r.executors[host.Type]
	if !ok {
		return model.NewError(model.KindHostNotFound, "no executor registered for host type "+string(host.Type))
	}
	return exec.Execute(host, containerOrStackName, imageRef, cfg, w, onStep)
}

type sshExecutor struct{}

func (sshExecutor) Execute(host model.DeployHost, name, imageRef string, cfg model.DeployConfig, w io.Writer, onStep func(string)) error {
	transport, err := DialSSH(host)
	if err != nil {
		return err
	}
	defer transport.Close()

	switch cfg.Kind {
	case model.PlanDockerRun:
		onStep("docker_run")
		return runDockerRun(transport, name, imageRef, cfg.Run, w)
	case model.PlanDockerCompose:
		onStep("docker_compose")
		return runDockerCompose(transport, "/tmp/forgecd-"+name, cfg.Compose, w)
	case model.PlanSteps:
		return runSteps(transport, cfg.Steps, w, onStep)
	default:
		return model.NewError(model.KindValidation, "unknown deploy plan kind: "+string(cfg.Kind))
	}
}
