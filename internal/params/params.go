// Package params validates user-supplied job parameters against a template's
// declared parameter schema.
//
// A schema declares the complete set of legal parameter names as the union of
// its required and optional lists. Validation is all-or-nothing and strictly
// ordered: unknown names are rejected before missing required names are
// reported. Overlap between required and optional is tolerated: the union
// still defines the legal set and required still must all be present.
package params

import (
	"sort"
	"strings"

	"github.com/sluicelabs/sluice/internal/job"
)

// Schema is a template's declared parameter contract.
type Schema struct {
	Required []string `json:"required"`
	Optional []string `json:"optional"`
}

// Legal returns the sorted union of required and optional parameter names.
func (s Schema) Legal() []string {
	seen := make(map[string]struct{}, len(s.Required)+len(s.Optional))
	legal := make([]string, 0, len(s.Required)+len(s.Optional))
	for _, name := range append(append([]string{}, s.Required...), s.Optional...) {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		legal = append(legal, name)
	}
	sort.Strings(legal)
	return legal
}

// Validate checks supplied against schema.
//
// Order matters and the checks short-circuit:
//  1. Any supplied name outside required ∪ optional fails with
//     INVALID_PARAMETER, reporting the offenders and the full legal set.
//  2. Any required name absent from supplied fails with
//     MISSING_REQUIRED_PARAMETER, reporting the missing names.
//  3. Otherwise validation passes.
//
// A nil return means success.
func Validate(schema Schema, supplied map[string]string) error {
	legal := make(map[string]struct{}, len(schema.Required)+len(schema.Optional))
	for _, name := range schema.Required {
		legal[name] = struct{}{}
	}
	for _, name := range schema.Optional {
		legal[name] = struct{}{}
	}

	var invalid []string
	for name := range supplied {
		if _, ok := legal[name]; !ok {
			invalid = append(invalid, name)
		}
	}
	if len(invalid) > 0 {
		sort.Strings(invalid)
		return job.Errorf(job.KindInvalidParameter,
			"invalid param(s) passed: [%s]; valid params are: [%s]",
			strings.Join(invalid, ", "), strings.Join(schema.Legal(), ", "))
	}

	var missing []string
	for _, name := range schema.Required {
		if _, ok := supplied[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return job.Errorf(job.KindMissingRequiredParameter,
			"missing required param(s): [%s]", strings.Join(missing, ", "))
	}

	return nil
}
