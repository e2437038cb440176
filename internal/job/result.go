// Package job defines the caller-facing result vocabulary shared by every
// Sluice operation: a status, a human-readable report, an optional job
// identifier, and a tagged error kind on failure.
//
// The invariant maintained across submission operations: JobID is set if and
// only if Status is StatusSuccess or StatusSuccessWithWarning.
package job

// Status is the outcome tier of an operation.
type Status string

const (
	// StatusSuccess: the operation completed and a job identifier was found.
	StatusSuccess Status = "success"

	// StatusSuccessWithWarning: the job itself ran but a non-fatal side
	// effect (source archival) failed.
	StatusSuccessWithWarning Status = "success_with_warning"

	// StatusFailed: the operation ran but did not produce a usable outcome.
	StatusFailed Status = "failed"

	// StatusError: the operation could not run at all (bad input, internal
	// fault).
	StatusError Status = "error"
)

// Result is the outcome of a submission attempt.
type Result struct {
	Status Status `json:"status"`

	// Report is the human-readable account of what happened. On failure it
	// carries the underlying error text verbatim.
	Report string `json:"report"`

	// JobID is the identifier extracted from the backend's output. Present
	// iff Status is success or success_with_warning.
	JobID string `json:"job_id,omitempty"`

	// Kind tags the failure taxonomy entry when Status is failed/error.
	Kind Kind `json:"error_kind,omitempty"`

	// ScriptPath is the object-storage path of the archived program source,
	// when the custom pipeline path archived one.
	ScriptPath string `json:"gcs_script_path,omitempty"`

	// TemplatePath is the gs:// location of a template artifact staged by
	// the custom template build.
	TemplatePath string `json:"staged_template_gcs_path,omitempty"`

	// RawOutput preserves the full captured command output when identifier
	// or detail parsing failed, so nothing is lost to the operator.
	RawOutput string `json:"raw_output,omitempty"`
}

// Failed builds a failed Result from a tagged error kind and report text.
func Failed(kind Kind, report string) Result {
	return Result{Status: StatusFailed, Kind: kind, Report: report}
}

// FromError converts err into a failed Result, preserving its text verbatim.
// Untagged errors are reported as StatusError with no kind.
func FromError(err error) Result {
	if e, ok := err.(*Error); ok {
		return Result{Status: StatusFailed, Kind: e.Kind, Report: e.Msg}
	}
	return Result{Status: StatusError, Report: err.Error()}
}

// Succeeded reports whether r represents a launched job.
func (r Result) Succeeded() bool {
	return r.Status == StatusSuccess || r.Status == StatusSuccessWithWarning
}
