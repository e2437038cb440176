package launch

import "regexp"

// The submission backend's stdout format is an external, versioned contract.
// These parsers are kept as named functions so format drift shows up as a
// focused test failure, and callers fall back to attaching raw output when
// parsing fails rather than dropping it.

var (
	// dataflowJobID matches the date-prefixed, dash-suffixed numeric job
	// identifier, e.g. 2026-08-23_14_03_55-1234567890123456789.
	dataflowJobID = regexp.MustCompile(`\d{4}-\d{2}-\d{2}_\d{2}_\d{2}_\d{2}-\d+`)

	detailID        = regexp.MustCompile(`id: '([^']*)'`)
	detailClientReq = regexp.MustCompile(`clientRequestId: '([^']*)'`)
	detailCreate    = regexp.MustCompile(`createTime: '([^']*)'`)
)

// ExtractJobID returns the first Dataflow job identifier in output, or "".
func ExtractJobID(output string) string {
	return dataflowJobID.FindString(output)
}

// JobDetails are the metadata fields the backend prints alongside a
// submission. Absent fields stay empty.
type JobDetails struct {
	ID              string
	ClientRequestID string
	CreateTime      string
}

// ExtractJobDetails scrapes the detail fields from output.
func ExtractJobDetails(output string) JobDetails {
	var d JobDetails
	if m := detailID.FindStringSubmatch(output); m != nil {
		d.ID = m[1]
	}
	if m := detailClientReq.FindStringSubmatch(output); m != nil {
		d.ClientRequestID = m[1]
	}
	if m := detailCreate.FindStringSubmatch(output); m != nil {
		d.CreateTime = m[1]
	}
	return d
}
