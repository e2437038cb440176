package jobspec

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var (
	illegalChars = regexp.MustCompile(`[^a-z0-9-]`)
	hyphenRuns   = regexp.MustCompile(`-+`)
)

// maxJobNameLen is the Dataflow job-name length limit.
const maxJobNameLen = 63

// SanitizeJobName rewrites name to satisfy Dataflow job-naming rules.
//
// The transformation order is load-bearing and must not be rearranged:
// lowercase, replace every character outside [a-z0-9-] with a hyphen,
// collapse hyphen runs, trim leading/trailing hyphens, synthesize
// "job-<8 hex>" if empty, prefix "job-" if the first character is not a
// letter, drop a non-alphanumeric last character, and truncate to 63 last.
func SanitizeJobName(name string) string {
	s := strings.ToLower(name)
	s = illegalChars.ReplaceAllString(s, "-")
	s = hyphenRuns.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "job-" + randomSuffix()
	}
	if s[0] < 'a' || s[0] > 'z' {
		s = "job-" + s
	}
	if !isAlnum(s[len(s)-1]) {
		s = s[:len(s)-1]
	}
	if len(s) > maxJobNameLen {
		s = s[:maxJobNameLen]
	}
	return s
}

// randomSuffix returns 8 hex characters derived from a fresh UUID.
func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

func isAlnum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}
