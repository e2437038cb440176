package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/sluicelabs/sluice/internal/job"
)

// fakeStore serves objects from a map keyed "bucket/object".
type fakeStore struct {
	objects map[string][]byte
}

func (f *fakeStore) Upload(_ context.Context, bucket, object, _ string, data []byte) error {
	if f.objects == nil {
		f.objects = map[string][]byte{}
	}
	f.objects[bucket+"/"+object] = data
	return nil
}

func (f *fakeStore) Read(_ context.Context, bucket, object string) ([]byte, error) {
	data, ok := f.objects[bucket+"/"+object]
	if !ok {
		return nil, fmt.Errorf("object %s/%s not found", bucket, object)
	}
	return data, nil
}

const mappingJSON = `[
	{"name": "one", "description": "first", "template_gcs_path": "gs://t/1",
	 "params": {"required": ["a"], "optional": []}},
	{"name": "two", "description": "second", "template_gcs_path": "gs://t/flex/2",
	 "type": "FLEX", "params": {"required": [], "optional": ["b"]}}
]`

// ---------------------------------------------------------------------------
// parsing and lookup
// ---------------------------------------------------------------------------

func TestParse(t *testing.T) {
	cat, err := Parse([]byte(mappingJSON))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(cat.Records) != 2 {
		t.Fatalf("record count = %d, want 2", len(cat.Records))
	}
	if cat.Records[1].Type != TypeFlex {
		t.Errorf("records[1].Type = %q, want FLEX", cat.Records[1].Type)
	}
}

func TestParse_NotAnArray(t *testing.T) {
	for _, in := range []string{`{"name": "x"}`, `"str"`, "nope"} {
		if _, err := Parse([]byte(in)); job.KindOf(err) != job.KindMalformedInput {
			t.Errorf("Parse(%q) error = %v, want MALFORMED_INPUT", in, err)
		}
	}
}

func TestFind(t *testing.T) {
	cat, err := Parse([]byte(mappingJSON))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if rec := cat.Find("two"); rec == nil || rec.Name != "two" {
		t.Errorf("Find(two) = %+v", rec)
	}
	if rec := cat.Find("missing"); rec != nil {
		t.Errorf("Find(missing) = %+v, want nil", rec)
	}
}

// ---------------------------------------------------------------------------
// loading
// ---------------------------------------------------------------------------

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mapping.json")
	if err := os.WriteFile(path, []byte(mappingJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	cat, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cat.Records) != 2 {
		t.Errorf("record count = %d, want 2", len(cat.Records))
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("Load() succeeded for a missing file")
	}
}

func TestLoadFrom_GCS(t *testing.T) {
	store := &fakeStore{objects: map[string][]byte{
		"cfg-bucket/catalog/mapping.json": []byte(mappingJSON),
	}}
	cat, err := LoadFrom(context.Background(), store, "gs://cfg-bucket/catalog/mapping.json")
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if len(cat.Records) != 2 {
		t.Errorf("record count = %d, want 2", len(cat.Records))
	}
}

func TestLoadFrom_LocalPathFallsThrough(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mapping.json")
	if err := os.WriteFile(path, []byte(mappingJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	cat, err := LoadFrom(context.Background(), nil, path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if len(cat.Records) != 2 {
		t.Errorf("record count = %d, want 2", len(cat.Records))
	}
}

func TestCatalogJSON_RoundTrip(t *testing.T) {
	cat, err := Parse([]byte(mappingJSON))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	out, err := cat.JSON()
	if err != nil {
		t.Fatalf("JSON() error = %v", err)
	}
	again, err := Parse([]byte(out))
	if err != nil {
		t.Fatalf("Parse(JSON()) error = %v", err)
	}
	if len(again.Records) != len(cat.Records) {
		t.Errorf("round trip lost records: %d -> %d", len(cat.Records), len(again.Records))
	}
}
