package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/sluicelabs/sluice/internal/gcs"
	"github.com/sluicelabs/sluice/internal/job"
)

// Catalog is the full collection of known template records, loaded from the
// flat mapping file kept in the template source tree.
type Catalog struct {
	Records []Record
}

// Parse decodes a mapping file: a JSON array of template records. Anything
// else is MALFORMED_INPUT.
func Parse(data []byte) (*Catalog, error) {
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, job.Errorf(job.KindMalformedInput, "unparseable template mapping: %v", err)
	}
	return &Catalog{Records: records}, nil
}

// Load reads and parses the mapping file at path on the local filesystem.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template mapping %s: %w", path, err)
	}
	return Parse(data)
}

// LoadFrom reads the mapping file from uri: a gs:// object (fetched through
// store) or a local filesystem path.
func LoadFrom(ctx context.Context, store gcs.ObjectStore, uri string) (*Catalog, error) {
	if !strings.HasPrefix(uri, "gs://") {
		return Load(uri)
	}
	bucket, object, err := gcs.ParseURI(uri)
	if err != nil {
		return nil, err
	}
	data, err := store.Read(ctx, bucket, object)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch template mapping %s: %w", uri, err)
	}
	return Parse(data)
}

// JSON serializes the catalog records for inclusion in a matcher prompt.
func (c *Catalog) JSON() (string, error) {
	data, err := json.Marshal(c.Records)
	if err != nil {
		return "", fmt.Errorf("failed to serialize catalog: %w", err)
	}
	return string(data), nil
}

// Find returns the record with the given name, or nil.
func (c *Catalog) Find(name string) *Record {
	for i := range c.Records {
		if c.Records[i].Name == name {
			return &c.Records[i]
		}
	}
	return nil
}
