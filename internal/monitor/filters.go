// Package monitor builds Cloud Logging query filters and retrieves
// logs/metrics for launched jobs. Filter construction is pure and tested
// independently; the API clients only forward the assembled filters.
package monitor

import (
	"fmt"
	"strings"
	"time"
)

// Severities lists the log severities accepted in a query, lowest first.
var Severities = []string{
	"DEFAULT", "DEBUG", "INFO", "NOTICE", "WARNING",
	"ERROR", "CRITICAL", "ALERT", "EMERGENCY",
}

// LogQuery describes one log retrieval. Zero-valued fields are omitted from
// the filter.
type LogQuery struct {
	// ResourceType narrows to one monitored resource (e.g. "dataflow_step").
	ResourceType string

	// MinSeverity keeps entries at or above this severity.
	MinSeverity string

	// Start/End bound the time range.
	Start, End time.Time

	// JobID narrows to one Dataflow job.
	JobID string

	// Text is a free-text search term.
	Text string
}

// ValidSeverity reports whether s names a known severity.
func ValidSeverity(s string) bool {
	for _, known := range Severities {
		if strings.EqualFold(s, known) {
			return true
		}
	}
	return false
}

// Filter renders q as a Cloud Logging filter expression.
func (q LogQuery) Filter() (string, error) {
	var clauses []string

	if q.ResourceType != "" {
		clauses = append(clauses, fmt.Sprintf("resource.type=%q", q.ResourceType))
	}
	if q.MinSeverity != "" {
		if !ValidSeverity(q.MinSeverity) {
			return "", fmt.Errorf("unknown severity %q; valid severities: %s",
				q.MinSeverity, strings.Join(Severities, ", "))
		}
		clauses = append(clauses, "severity>="+strings.ToUpper(q.MinSeverity))
	}
	if !q.Start.IsZero() {
		clauses = append(clauses, fmt.Sprintf("timestamp>=%q", q.Start.UTC().Format(time.RFC3339)))
	}
	if !q.End.IsZero() {
		clauses = append(clauses, fmt.Sprintf("timestamp<=%q", q.End.UTC().Format(time.RFC3339)))
	}
	if q.JobID != "" {
		clauses = append(clauses, fmt.Sprintf("resource.labels.job_id=%q", q.JobID))
	}
	if q.Text != "" {
		clauses = append(clauses, fmt.Sprintf("%q", q.Text))
	}

	if len(clauses) == 0 {
		return "", fmt.Errorf("empty log query: set at least one constraint")
	}
	return strings.Join(clauses, " AND "), nil
}
