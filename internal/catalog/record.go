// Package catalog loads the versioned template catalog, keeps its local
// working copy in sync with the upstream source tree, and resolves a user's
// task description to a single template record through an injected Matcher.
package catalog

import (
	"bytes"
	"encoding/json"

	"github.com/sluicelabs/sluice/internal/job"
	"github.com/sluicelabs/sluice/internal/params"
)

// Type is a template's declared submission variant.
type Type string

const (
	// TypeFlex templates are launched through the flex-template command
	// shape (no staging location flag).
	TypeFlex Type = "FLEX"

	// TypeClassic templates are launched through the classic jobs-run
	// command shape (staging location required).
	TypeClassic Type = "CLASSIC"

	// TypeLanguageVariant marks templates that exist in multiple language
	// editions (Java/Python) and launch classic-shaped.
	TypeLanguageVariant Type = "LANGUAGE_VARIANT"
)

// Record is one pre-built job definition from the catalog. Records are
// read-only within a request; downstream components never mutate them.
type Record struct {
	// Name identifies the template (e.g. "PubSub_to_BigQuery").
	Name string `json:"name"`

	// Description is the free text the matcher scores against.
	Description string `json:"description"`

	// TemplateGCSPath is the URI of the runnable artifact.
	TemplateGCSPath string `json:"template_gcs_path"`

	// Type is the declared submission variant.
	Type Type `json:"type,omitempty"`

	// Params declares the template's legal parameter names.
	Params params.Schema `json:"params"`
}

// HasParams reports whether the record declares any parameter schema at all.
// A record without one cannot be validated against and is rejected upstream.
func (r *Record) HasParams() bool {
	return len(r.Params.Required) > 0 || len(r.Params.Optional) > 0
}

// ParseRecord decodes a single template definition from raw JSON.
//
// Upstream sources sometimes wrap the definition in a one-element array;
// that wrapper is unwrapped. An empty array, a non-object value, or
// unparseable bytes are MALFORMED_INPUT; service output is never executed
// or partially trusted.
func ParseRecord(data []byte) (*Record, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, job.Errorf(job.KindMalformedInput, "template definition is empty")
	}

	if trimmed[0] == '[' {
		var wrapped []json.RawMessage
		if err := json.Unmarshal(trimmed, &wrapped); err != nil {
			return nil, job.Errorf(job.KindMalformedInput, "unparseable template definition list: %v", err)
		}
		if len(wrapped) == 0 {
			return nil, job.Errorf(job.KindMalformedInput, "template definition was an empty list")
		}
		trimmed = bytes.TrimSpace(wrapped[0])
	}

	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, job.Errorf(job.KindMalformedInput, "template definition is not a JSON object")
	}

	var rec Record
	if err := json.Unmarshal(trimmed, &rec); err != nil {
		return nil, job.Errorf(job.KindMalformedInput, "unparseable template definition: %v", err)
	}
	return &rec, nil
}
