// Package jobspec assembles a resolved template, validated parameters, and
// execution-environment settings into a fully-qualified, ready-to-run
// Dataflow submission command.
//
// Commands are always built as structured argument vectors handed straight to
// the process launcher. Nothing here passes through a shell, so parameter
// values need no quoting discipline beyond the gcloud delimiter escape.
package jobspec

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sluicelabs/sluice/internal/catalog"
	"github.com/sluicelabs/sluice/internal/job"
)

// Strategy selects the gcloud command shape for a submission.
type Strategy string

const (
	// StrategyFlex uses `gcloud dataflow flex-template run` with no staging
	// location flag.
	StrategyFlex Strategy = "FLEX"

	// StrategyClassic uses `gcloud dataflow jobs run`; a staging location is
	// required.
	StrategyClassic Strategy = "CLASSIC"
)

// flexPathSegment in an artifact path forces the flex command shape even
// when the record does not declare TypeFlex.
const flexPathSegment = "/flex/"

// SourceLabel identifies Sluice-submitted jobs on the platform.
const SourceLabel = "source=sluice"

// paramDelimiter separates key=value pairs in the encoded parameter string.
// The leading ^~^ declares it to gcloud, so values may contain commas and
// other characters that the default comma syntax would split on.
const paramDelimiter = "~"

// Environment carries the target execution settings for a submission.
type Environment struct {
	ProjectID       string
	Region          string
	StagingLocation string
}

// Spec is the assembled, ready-to-submit unit. It is created once per
// submission attempt and consumed immediately; nothing retains it across
// requests.
type Spec struct {
	JobName      string
	TemplatePath string
	Strategy     Strategy
	Parameters   map[string]string
	Env          Environment
}

// Assemble builds a Spec from either a resolved catalog record or an explicit
// override artifact path.
//
// When overridePath is non-empty it wins outright: schema resolution was
// skipped upstream and the path is used as the execution target. Otherwise
// the record must carry a non-empty artifact path; its absence is
// MISSING_TEMPLATE_PATH. jobName is sanitized here so every downstream
// consumer sees the platform-legal form.
func Assemble(jobName string, rec *catalog.Record, overridePath string, userParams map[string]string, env Environment) (*Spec, error) {
	templatePath := overridePath
	declaredType := catalog.Type("")
	if templatePath == "" {
		if rec == nil || rec.TemplateGCSPath == "" {
			return nil, job.Errorf(job.KindMissingTemplatePath,
				`the "template_gcs_path" key was not found in the template definition`)
		}
		templatePath = rec.TemplateGCSPath
		declaredType = rec.Type
	} else if rec != nil {
		declaredType = rec.Type
	}

	strategy := StrategyClassic
	if strings.Contains(templatePath, flexPathSegment) || declaredType == catalog.TypeFlex {
		strategy = StrategyFlex
	}

	if strategy == StrategyClassic && env.StagingLocation == "" {
		return nil, job.Errorf(job.KindMalformedInput,
			"classic template submission requires a staging location")
	}

	return &Spec{
		JobName:      SanitizeJobName(jobName),
		TemplatePath: templatePath,
		Strategy:     strategy,
		Parameters:   userParams,
		Env:          env,
	}, nil
}

// EncodeParameters serializes p into gcloud's caret-delimiter-escape syntax:
// ^~^key=value~key2=value2. Keys are emitted in sorted order so assembled
// command lines are stable.
func EncodeParameters(p map[string]string) string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%s", k, p[k]))
	}
	return "^" + paramDelimiter + "^" + strings.Join(pairs, paramDelimiter)
}

// Command returns the launcher binary and the structured argument vector for
// this spec. Flex submissions omit --staging-location; classic submissions
// carry it.
func (s *Spec) Command() (string, []string) {
	encoded := EncodeParameters(s.Parameters)

	if s.Strategy == StrategyFlex {
		return "gcloud", []string{
			"dataflow", "flex-template", "run", s.JobName,
			"--project=" + s.Env.ProjectID,
			"--region=" + s.Env.Region,
			"--template-file-gcs-location=" + s.TemplatePath,
			"--parameters", encoded,
			"--additional-user-labels=" + SourceLabel,
		}
	}

	return "gcloud", []string{
		"dataflow", "jobs", "run", s.JobName,
		"--project=" + s.Env.ProjectID,
		"--region=" + s.Env.Region,
		"--gcs-location=" + s.TemplatePath,
		"--parameters", encoded,
		"--staging-location=" + s.Env.StagingLocation,
		"--additional-user-labels=" + SourceLabel,
	}
}
