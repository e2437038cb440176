package job

import "fmt"

// Kind classifies a dispatcher failure. Kinds are stable identifiers that
// callers (and the operator reading a report) can branch on; the accompanying
// message always carries the underlying cause verbatim.
type Kind string

const (
	// KindInvalidParameter: the caller supplied a parameter name that is not
	// declared by the template schema.
	KindInvalidParameter Kind = "INVALID_PARAMETER"

	// KindMissingRequiredParameter: a required schema parameter was absent.
	KindMissingRequiredParameter Kind = "MISSING_REQUIRED_PARAMETER"

	// KindMissingTemplatePath: the resolved template record carries no
	// artifact path to execute.
	KindMissingTemplatePath Kind = "MISSING_TEMPLATE_PATH"

	// KindNoMatchingTemplate: the catalog lookup produced no usable record.
	KindNoMatchingTemplate Kind = "NO_MATCHING_TEMPLATE"

	// KindSubprocessFailure: an external command exited non-zero or could not
	// be started.
	KindSubprocessFailure Kind = "SUBPROCESS_FAILURE"

	// KindIDNotFound: the command exited cleanly but its output contained no
	// recognizable job identifier.
	KindIDNotFound Kind = "ID_NOT_FOUND"

	// KindArchivalFailure: the job ran but archiving its source to object
	// storage failed. This is the only non-fatal kind.
	KindArchivalFailure Kind = "ARCHIVAL_FAILURE"

	// KindCatalogRefreshFailure: syncing the template source tree failed.
	KindCatalogRefreshFailure Kind = "CATALOG_REFRESH_FAILURE"

	// KindSourceNotFound: no source file implementing the named template
	// could be located in the template source tree.
	KindSourceNotFound Kind = "SOURCE_NOT_FOUND"

	// KindStagedPathNotFound: the template build exited cleanly but its
	// output contained no staged artifact path.
	KindStagedPathNotFound Kind = "STAGED_PATH_NOT_FOUND"

	// KindMalformedInput: unparseable parameter or template JSON, or a
	// template definition that is an empty list or not an object.
	KindMalformedInput Kind = "MALFORMED_INPUT"
)

// Error is a tagged dispatcher error. Public operations never let internal
// faults escape untagged; they wrap them into an Error so the original text
// reaches the operator.
type Error struct {
	Kind Kind
	Msg  string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Errorf builds a tagged Error with a formatted message.
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// KindOf returns the Kind carried by err, or the empty Kind for untagged
// errors (including nil).
func KindOf(err error) Kind {
	if e, ok := err.(*Error); ok {
		return e.Kind
	}
	return ""
}
