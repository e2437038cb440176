package launch

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/sluicelabs/sluice/internal/job"
	"github.com/sluicelabs/sluice/internal/jobspec"
)

// Executor submits assembled job specifications and classifies the outcome.
// It never retries; every failure is surfaced verbatim for a human decision.
type Executor struct {
	Runner Runner
}

// NewExecutor returns an Executor backed by os/exec.
func NewExecutor() *Executor {
	return &Executor{Runner: ExecRunner{}}
}

// Submit runs the spec's command and classifies the result:
//
//   - process-level failure or non-zero exit → failed/SUBPROCESS_FAILURE,
//     report carries the full captured output;
//   - zero exit but no job identifier in the output → failed/ID_NOT_FOUND
//     (a clean exit without a discoverable id is never reported as success);
//   - identifier found → success.
func (e *Executor) Submit(ctx context.Context, spec *jobspec.Spec) job.Result {
	name, args := spec.Command()
	log.Printf("submitting job %s: %s %s", spec.JobName, name, strings.Join(args, " "))

	out, err := e.Runner.CombinedOutput(ctx, name, args)
	output := string(out)
	if err != nil {
		return job.Result{
			Status:    job.StatusFailed,
			Kind:      job.KindSubprocessFailure,
			Report:    fmt.Sprintf("job submission command failed: %v\n--- OUTPUT ---\n%s", err, output),
			RawOutput: output,
		}
	}

	jobID := ExtractJobID(output)
	if jobID == "" {
		return job.Result{
			Status:    job.StatusFailed,
			Kind:      job.KindIDNotFound,
			Report:    "submission exited cleanly, but no job ID was found in the output",
			RawOutput: output,
		}
	}

	details := ExtractJobDetails(output)
	report := []string{fmt.Sprintf("Successfully launched Dataflow job '%s'.", spec.JobName)}
	report = append(report, "Job Details:")
	report = append(report, "  id: "+jobID)
	if details.ClientRequestID != "" {
		report = append(report, "  clientRequestId: "+details.ClientRequestID)
	}
	if details.CreateTime != "" {
		report = append(report, "  createTime: "+details.CreateTime)
	}

	return job.Result{
		Status: job.StatusSuccess,
		JobID:  jobID,
		Report: strings.Join(report, "\n"),
	}
}
