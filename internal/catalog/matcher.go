package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNoMatch is returned by a Matcher when no catalog record fits the task
// description. Malformed matcher responses collapse to this same outcome:
// the flow ends rather than trusting a fabricated record.
var ErrNoMatch = errors.New("no matching template found")

// NoMatchSentinel is the fixed response the completion service is instructed
// to return when nothing in the catalog fits.
const NoMatchSentinel = "no_matching_template"

// Matcher resolves a free-form task description to one catalog record.
//
// Implementations must select from the given records only. The production
// implementation delegates to a hosted text-completion service; tests use
// the deterministic SubstringMatcher.
type Matcher interface {
	Match(ctx context.Context, task string, cat *Catalog) (*Record, error)
}

// matchInstruction is the contract handed to the completion service: pick
// exactly one record from the supplied catalog, echo it back verbatim as
// JSON, or answer with the sentinel. The service must not fabricate fields.
const matchInstruction = `You are given a catalog of pre-built job templates as a JSON array and a task description.
Select the single catalog entry whose description best matches the task.
Respond with exactly that entry's JSON object, byte-for-byte from the catalog. Do not invent, rename, or omit fields.
If no entry matches, respond with exactly: %s

Task:
%s

Catalog:
%s`

// BuildMatchPrompt renders the instruction for one lookup.
func BuildMatchPrompt(task string, catalogJSON string) string {
	return fmt.Sprintf(matchInstruction, NoMatchSentinel, task, catalogJSON)
}

// ParseMatch interprets a completion-service response. It strips code
// fences, recognizes the no-match sentinel, and otherwise demands a strict
// JSON object (or one-element list) naming a record. Any other shape is
// treated as no match; responses are parsed, never executed.
func ParseMatch(response string, cat *Catalog) (*Record, error) {
	text := strings.TrimSpace(response)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	if text == "" || strings.EqualFold(text, NoMatchSentinel) {
		return nil, ErrNoMatch
	}

	rec, err := ParseRecord([]byte(text))
	if err != nil {
		return nil, ErrNoMatch
	}

	// Anchor the response back to the catalog: the service echoes an entry,
	// but the catalog copy is authoritative.
	if known := cat.Find(rec.Name); known != nil {
		return known, nil
	}
	return nil, ErrNoMatch
}

// SubstringMatcher is a deterministic Matcher for tests and offline use: it
// picks the first record whose name or description contains the task text
// (or vice versa), case-insensitively.
type SubstringMatcher struct{}

// Match implements Matcher.
func (SubstringMatcher) Match(_ context.Context, task string, cat *Catalog) (*Record, error) {
	needle := strings.ToLower(strings.TrimSpace(task))
	if needle == "" {
		return nil, ErrNoMatch
	}
	for i := range cat.Records {
		name := strings.ToLower(cat.Records[i].Name)
		desc := strings.ToLower(cat.Records[i].Description)
		if strings.Contains(desc, needle) || strings.Contains(needle, strings.ToLower(strings.ReplaceAll(name, "_", " "))) || strings.Contains(needle, name) {
			return &cat.Records[i], nil
		}
	}
	return nil, ErrNoMatch
}
