// Package launch runs assembled submission commands against the platform CLI
// and classifies their outcome into job results.
package launch

import (
	"context"
	"os/exec"
)

// Runner executes one external command and returns its combined
// stdout+stderr. The exit error (if any) is returned alongside whatever
// output was captured so failures keep their full diagnostics.
type Runner interface {
	CombinedOutput(ctx context.Context, name string, args []string) ([]byte, error)
}

// ExecRunner is the production Runner, backed by os/exec. Arguments are
// passed as a structured vector, never an interpolated shell string.
type ExecRunner struct{}

// CombinedOutput implements Runner.
func (ExecRunner) CombinedOutput(ctx context.Context, name string, args []string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}
