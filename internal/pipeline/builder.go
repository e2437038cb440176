// Package pipeline builds and launches ad-hoc (non-template) Dataflow jobs:
// it writes generated program source to a transient file, runs it as a
// subprocess with assembled runtime arguments, extracts the job identifier
// from its output, and archives the source to object storage.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/sluicelabs/sluice/internal/gcs"
	"github.com/sluicelabs/sluice/internal/job"
	"github.com/sluicelabs/sluice/internal/jobspec"
	"github.com/sluicelabs/sluice/internal/launch"
)

// Mode selects how the launched process is supervised.
type Mode string

const (
	// ModeBatch waits for the process to finish, then searches its full
	// output for the job identifier.
	ModeBatch Mode = "batch"

	// ModeStreaming watches output incrementally and terminates the process
	// as soon as an identifier appears, since streaming jobs never exit on
	// their own.
	ModeStreaming Mode = "streaming"
)

// defaultGracePeriod bounds how long a signalled process may linger before
// it is forcibly killed.
const defaultGracePeriod = 10 * time.Second

// archiveFolder is where successful pipeline sources are archived under the
// configured bucket prefix.
const archiveFolder = "generated_pipelines"

// Request describes one ad-hoc pipeline run.
type Request struct {
	JobName string
	Source  string            // program source to execute
	Args    map[string]string // user runtime arguments
	Mode    Mode
}

// Builder launches ad-hoc pipelines. Zero-value fields fall back to
// production defaults; tests override Interpreter and Store.
type Builder struct {
	ProjectID  string
	Region     string
	BucketPath string // gs://bucket[/prefix] for staging, temp, and archival

	// Interpreter runs the transient source file; "python3" when empty.
	Interpreter string

	// WorkDir holds transient source files; os.TempDir() when empty.
	WorkDir string

	// Store archives sources on success. When nil, archival is skipped and
	// success is downgraded to a warning.
	Store gcs.ObjectStore

	// GracePeriod between SIGTERM and SIGKILL; defaultGracePeriod when zero.
	GracePeriod time.Duration
}

// BuildAndRun executes req end to end. The transient source file is removed
// on every exit path. Archival failure downgrades the result to
// success_with_warning; every other failure is fatal.
func (b *Builder) BuildAndRun(ctx context.Context, req Request) job.Result {
	if req.Mode != ModeBatch && req.Mode != ModeStreaming {
		return job.Result{
			Status: job.StatusError,
			Report: fmt.Sprintf("invalid pipeline mode %q: choose %q or %q", req.Mode, ModeBatch, ModeStreaming),
		}
	}
	if b.ProjectID == "" || b.Region == "" || b.BucketPath == "" {
		return job.Result{
			Status: job.StatusError,
			Report: "project, region, and bucket path are required",
		}
	}
	if !strings.HasPrefix(b.BucketPath, "gs://") {
		return job.Result{
			Status: job.StatusError,
			Report: "bucket path must start with 'gs://'",
		}
	}

	jobName := jobspec.SanitizeJobName(req.JobName)

	workDir := b.WorkDir
	if workDir == "" {
		workDir = os.TempDir()
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return job.FromError(fmt.Errorf("failed to create work dir %s: %w", workDir, err))
	}
	srcFile := filepath.Join(workDir, fmt.Sprintf("temp_pipeline_%s.py", uuid.NewString()))
	if err := os.WriteFile(srcFile, []byte(req.Source), 0o600); err != nil {
		return job.FromError(fmt.Errorf("failed to write pipeline source: %w", err))
	}
	defer os.Remove(srcFile)

	argv := append([]string{srcFile}, flattenArgs(b.runtimeArgs(jobName, req))...)
	interp := b.Interpreter
	if interp == "" {
		interp = "python3"
	}
	log.Printf("launching %s pipeline %s: %s %s", req.Mode, jobName, interp, strings.Join(argv, " "))

	var jobID, output string
	var runErr error
	if req.Mode == ModeStreaming {
		jobID, output, runErr = b.runStreaming(ctx, interp, argv)
	} else {
		jobID, output, runErr = runBatch(ctx, interp, argv)
	}
	if runErr != nil {
		return job.Result{
			Status:    job.StatusFailed,
			Kind:      job.KindSubprocessFailure,
			Report:    fmt.Sprintf("failed to execute pipeline script: %v\n--- OUTPUT ---\n%s", runErr, output),
			RawOutput: output,
		}
	}
	if jobID == "" {
		return job.Result{
			Status:    job.StatusFailed,
			Kind:      job.KindIDNotFound,
			Report:    "pipeline launched, but no job ID was found in its output",
			RawOutput: output,
		}
	}

	details := launch.ExtractJobDetails(output)
	report := []string{fmt.Sprintf("Successfully launched Dataflow job '%s'.", jobName)}
	report = append(report, "Job Details:", "  id: "+jobID, "  name: "+jobName)
	if details.ClientRequestID != "" {
		report = append(report, "  clientRequestId: "+details.ClientRequestID)
	}
	if details.CreateTime != "" {
		report = append(report, "  createTime: "+details.CreateTime)
	}

	result := job.Result{Status: job.StatusSuccess, JobID: jobID}

	// Archive the source. The job is already running, so failure here only
	// downgrades the outcome.
	scriptPath, archErr := b.archive(ctx, jobName, req.Source)
	if archErr != nil {
		result.Status = job.StatusSuccessWithWarning
		result.Kind = job.KindArchivalFailure
		report = append(report, fmt.Sprintf("WARNING: failed to archive the pipeline script: %v", archErr))
	} else {
		result.ScriptPath = scriptPath
		report = append(report, "The pipeline script was saved to "+scriptPath)
	}

	result.Report = strings.Join(report, "\n")
	return result
}

// runtimeArgs merges the fixed environment bindings with the user's runtime
// arguments. User values win on collision; streaming mode forces the
// streaming flag.
func (b *Builder) runtimeArgs(jobName string, req Request) map[string]string {
	base := strings.TrimSuffix(b.BucketPath, "/")
	args := map[string]string{
		"runner":           "DataflowRunner",
		"project":          b.ProjectID,
		"region":           b.Region,
		"job_name":         jobName,
		"temp_location":    base + "/temp",
		"staging_location": base + "/staging",
		"labels":           `{"source": "sluice"}`,
	}
	for k, v := range req.Args {
		args[k] = v
	}
	if req.Mode == ModeStreaming {
		args["streaming"] = "true"
	}
	return args
}

// flattenArgs renders args as --key value pairs, sorted for stable command
// lines.
func flattenArgs(args map[string]string) []string {
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	flat := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		flat = append(flat, "--"+k, args[k])
	}
	return flat
}

// runBatch runs the pipeline to completion and searches the combined output
// for a job identifier.
func runBatch(ctx context.Context, name string, argv []string) (jobID, output string, err error) {
	out, err := exec.CommandContext(ctx, name, argv...).CombinedOutput()
	output = string(out)
	if err != nil {
		return "", output, err
	}
	return launch.ExtractJobID(output), output, nil
}

// runStreaming starts the pipeline and consumes its combined output
// incrementally. The moment an identifier appears the process is terminated:
// SIGTERM first, SIGKILL after the grace period. If the watch ends without an
// identifier (the stream closed or reading failed) the same teardown is
// applied, so the child can never outlive the request.
func (b *Builder) runStreaming(ctx context.Context, name string, argv []string) (jobID, output string, err error) {
	cmd := exec.CommandContext(ctx, name, argv...)
	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		pw.Close()
		pr.Close()
		return "", "", err
	}

	waitErr := make(chan error, 1)
	go func() {
		err := cmd.Wait()
		pw.Close()
		waitErr <- err
	}()

	jobID, output, watchErr := watchForJobID(pr)

	// Keep draining so the process is never blocked on a full pipe while we
	// shut it down.
	go io.Copy(io.Discard, pr)

	if jobID == "" {
		runErr := b.terminate(cmd, waitErr)
		if watchErr != nil {
			return "", output, watchErr
		}
		return "", output, runErr
	}

	log.Printf("found Dataflow job ID %s, terminating streaming watcher", jobID)
	b.terminate(cmd, waitErr)
	return jobID, output, nil
}

// terminate signals the process and waits for it, escalating to SIGKILL
// after the grace period. Returns the wait outcome.
func (b *Builder) terminate(cmd *exec.Cmd, waitErr chan error) error {
	grace := b.GracePeriod
	if grace == 0 {
		grace = defaultGracePeriod
	}
	if signalErr := cmd.Process.Signal(syscall.SIGTERM); signalErr != nil {
		// Already gone; the wait below settles it.
		log.Printf("streaming pipeline already exited: %v", signalErr)
	}
	select {
	case err := <-waitErr:
		return err
	case <-time.After(grace):
		log.Printf("streaming pipeline ignored SIGTERM, killing it")
		cmd.Process.Kill()
		return <-waitErr
	}
}

// idTailWindow is how much already-scanned text is re-examined with each new
// chunk, so an identifier split across two reads is still found. Identifiers
// are well under this size.
const idTailWindow = 256

// watchForJobID reads r in fixed-size chunks, accumulating everything read,
// and returns as soon as a job identifier is matched. Chunked reads mean
// arbitrarily long lines cannot abort the watch. An empty id with a nil
// error means the stream ended first.
func watchForJobID(r io.Reader) (jobID, output string, err error) {
	var buf strings.Builder
	chunk := make([]byte, 64*1024)
	var tail string
	for {
		n, readErr := r.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
			window := tail + string(chunk[:n])
			// A match ending exactly at the read boundary may be a truncated
			// identifier; hold it in the tail until more bytes arrive.
			if id := launch.ExtractJobID(window); id != "" && !strings.HasSuffix(window, id) {
				return id, buf.String(), nil
			}
			if len(window) > idTailWindow {
				window = window[len(window)-idTailWindow:]
			}
			tail = window
		}
		if readErr != nil {
			if id := launch.ExtractJobID(tail); id != "" {
				return id, buf.String(), nil
			}
			if readErr == io.EOF {
				readErr = nil
			}
			return "", buf.String(), readErr
		}
	}
}

// archive uploads source to the archival location and returns its gs:// URI.
func (b *Builder) archive(ctx context.Context, jobName, source string) (string, error) {
	if b.Store == nil {
		return "", fmt.Errorf("no object store configured")
	}
	bucket, prefix, err := gcs.ParseURI(b.BucketPath)
	if err != nil {
		return "", err
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	object := path.Join(prefix, archiveFolder, fmt.Sprintf("%s-%s.py", jobName, suffix))
	if err := b.Store.Upload(ctx, bucket, object, "text/x-python", []byte(source)); err != nil {
		return "", err
	}
	return gcs.JoinURI(bucket, object), nil
}
