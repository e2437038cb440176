// Package dispatch wires the templated-job flow end to end: refresh the
// catalog working copy, resolve a template from the task description,
// validate the caller's parameters against its schema, assemble the
// submission command, and run it.
//
// Each request is processed synchronously; nothing here shares mutable state
// across requests beyond the catalog working copy, whose refresh is
// serialized inside the Syncer.
package dispatch

import (
	"context"
	"errors"
	"log"
	"path/filepath"
	"strings"

	"github.com/sluicelabs/sluice/internal/catalog"
	"github.com/sluicelabs/sluice/internal/gcs"
	"github.com/sluicelabs/sluice/internal/job"
	"github.com/sluicelabs/sluice/internal/jobspec"
	"github.com/sluicelabs/sluice/internal/launch"
	"github.com/sluicelabs/sluice/internal/params"
)

// TemplatedJobRequest is one templated submission attempt.
type TemplatedJobRequest struct {
	// JobName is the desired job name; it is sanitized before use.
	JobName string

	// Task is the free-form description used to resolve a template. Ignored
	// when OverridePath is set.
	Task string

	// Parameters are the user-supplied template parameters.
	Parameters map[string]string

	// OverridePath, when non-empty, is an explicit artifact path that
	// bypasses catalog resolution and schema validation. It is the escape
	// hatch for non-catalog templates.
	OverridePath string
}

// Dispatcher owns the collaborators of the templated flow. Construct one per
// process and share it; it is safe for concurrent use.
type Dispatcher struct {
	Syncer   *catalog.Syncer
	Matcher  catalog.Matcher
	Executor *launch.Executor
	Store    gcs.ObjectStore

	// MappingPath locates the flat mapping file: either a path relative to
	// the synced working copy, or a gs:// URI.
	MappingPath string

	Env jobspec.Environment
}

// ResolveTemplate refreshes the catalog and resolves task to a record.
// A nil record with a nil error never happens: no-match comes back as a
// tagged NO_MATCHING_TEMPLATE error.
func (d *Dispatcher) ResolveTemplate(ctx context.Context, task string) (*catalog.Record, error) {
	cat, err := d.loadCatalog(ctx)
	if err != nil {
		return nil, err
	}

	rec, err := d.Matcher.Match(ctx, task, cat)
	if err != nil {
		if errors.Is(err, catalog.ErrNoMatch) {
			return nil, job.Errorf(job.KindNoMatchingTemplate,
				"no template in the catalog matches the task: %s", task)
		}
		return nil, err
	}
	return rec, nil
}

// RunTemplatedJob executes the full flow and always returns a Result; all
// internal faults are converted into tagged failures carrying the original
// error text.
func (d *Dispatcher) RunTemplatedJob(ctx context.Context, req TemplatedJobRequest) job.Result {
	var rec *catalog.Record

	if req.OverridePath == "" {
		resolved, err := d.ResolveTemplate(ctx, req.Task)
		if err != nil {
			return job.FromError(err)
		}
		rec = resolved
		log.Printf("resolved template %q for task %q", rec.Name, req.Task)

		// Schema validation only applies to catalog-resolved templates; an
		// override path has no schema to validate against.
		if !rec.HasParams() {
			return job.Failed(job.KindMalformedInput,
				`the template definition is missing the "params" key`)
		}
		if err := params.Validate(rec.Params, req.Parameters); err != nil {
			return job.FromError(err)
		}
	}

	spec, err := jobspec.Assemble(req.JobName, rec, req.OverridePath, req.Parameters, d.Env)
	if err != nil {
		return job.FromError(err)
	}

	return d.Executor.Submit(ctx, spec)
}

// loadCatalog refreshes the working copy and loads the mapping file. A
// gs:// mapping path skips the repository sync entirely.
func (d *Dispatcher) loadCatalog(ctx context.Context) (*catalog.Catalog, error) {
	if strings.HasPrefix(d.MappingPath, "gs://") {
		return catalog.LoadFrom(ctx, d.Store, d.MappingPath)
	}

	repoPath, err := d.Syncer.Refresh(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.Load(filepath.Join(repoPath, d.MappingPath))
}
