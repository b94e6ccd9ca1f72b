package deployexec

import (
	"io"

	"forgecd.dev/core/model"
)

// runSteps executes an ordered steps plan command by command, stopping
// at the first failure, per spec.md §4.7.3. There is no redeploy
// pre-step here: a steps plan is expected to express any teardown it
// needs as its own explicit step.
func runSteps(transport *SSHTransport, plan *model.StepsPlan, w io.Writer, onStep func(name string)) error {
	for _, step := range plan.Steps {
		onStep(step.Name)
		if err := transport.RunCommand(step.Command, w); err != nil {
			return err
		}
	}
	return nil
}
