package catalog

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func testCatalog() *Catalog {
	cat, err := Parse([]byte(`[
		{"name": "PubSub_to_BigQuery",
		 "description": "Stream messages from Pub/Sub into a BigQuery table",
		 "template_gcs_path": "gs://templates/flex/pubsub-to-bq",
		 "type": "FLEX",
		 "params": {"required": ["inputSubscription", "outputTable"], "optional": []}},
		{"name": "GCS_Text_to_BigQuery",
		 "description": "Batch load newline-delimited text from GCS into BigQuery",
		 "template_gcs_path": "gs://templates/classic/gcs-text-to-bq",
		 "params": {"required": ["inputFilePattern", "outputTable"], "optional": ["javascriptTextTransformGcsPath"]}}
	]`))
	if err != nil {
		panic(err)
	}
	return cat
}

// ---------------------------------------------------------------------------
// response parsing
// ---------------------------------------------------------------------------

func TestParseMatch_PlainObject(t *testing.T) {
	cat := testCatalog()
	rec, err := ParseMatch(`{"name": "PubSub_to_BigQuery"}`, cat)
	if err != nil {
		t.Fatalf("ParseMatch() error = %v", err)
	}
	// The returned record is the catalog's copy, not the response's.
	if rec != &cat.Records[0] {
		t.Error("ParseMatch() did not anchor to the catalog record")
	}
	if len(rec.Params.Required) != 2 {
		t.Errorf("anchored record lost its schema: %+v", rec.Params)
	}
}

func TestParseMatch_FencedJSON(t *testing.T) {
	cat := testCatalog()
	response := "```json\n{\"name\": \"GCS_Text_to_BigQuery\"}\n```"
	rec, err := ParseMatch(response, cat)
	if err != nil {
		t.Fatalf("ParseMatch() error = %v", err)
	}
	if rec.Name != "GCS_Text_to_BigQuery" {
		t.Errorf("name = %q", rec.Name)
	}
}

func TestParseMatch_OneElementList(t *testing.T) {
	rec, err := ParseMatch(`[{"name": "PubSub_to_BigQuery"}]`, testCatalog())
	if err != nil {
		t.Fatalf("ParseMatch() error = %v", err)
	}
	if rec.Name != "PubSub_to_BigQuery" {
		t.Errorf("name = %q", rec.Name)
	}
}

func TestParseMatch_Sentinel(t *testing.T) {
	for _, response := range []string{
		NoMatchSentinel,
		"  no_matching_template  ",
		"NO_MATCHING_TEMPLATE",
		"```\nno_matching_template\n```",
	} {
		if _, err := ParseMatch(response, testCatalog()); !errors.Is(err, ErrNoMatch) {
			t.Errorf("ParseMatch(%q) error = %v, want ErrNoMatch", response, err)
		}
	}
}

// Malformed responses fail closed: anything unparseable is a no-match, never
// a fabricated record.
func TestParseMatch_MalformedIsNoMatch(t *testing.T) {
	for _, response := range []string{
		"",
		"Sure! Here's the best template for you.",
		"{broken json",
		"[]",
		`"PubSub_to_BigQuery"`,
	} {
		if _, err := ParseMatch(response, testCatalog()); !errors.Is(err, ErrNoMatch) {
			t.Errorf("ParseMatch(%q) error = %v, want ErrNoMatch", response, err)
		}
	}
}

func TestParseMatch_UnknownNameIsNoMatch(t *testing.T) {
	_, err := ParseMatch(`{"name": "Invented_Template"}`, testCatalog())
	if !errors.Is(err, ErrNoMatch) {
		t.Fatalf("ParseMatch() error = %v, want ErrNoMatch for a name outside the catalog", err)
	}
}

// ---------------------------------------------------------------------------
// prompt construction
// ---------------------------------------------------------------------------

func TestBuildMatchPrompt(t *testing.T) {
	cat := testCatalog()
	catalogJSON, err := cat.JSON()
	if err != nil {
		t.Fatalf("JSON() error = %v", err)
	}
	prompt := BuildMatchPrompt("load csv into bigquery", catalogJSON)

	for _, want := range []string{NoMatchSentinel, "load csv into bigquery", "PubSub_to_BigQuery", "GCS_Text_to_BigQuery"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

// ---------------------------------------------------------------------------
// deterministic matcher
// ---------------------------------------------------------------------------

func TestSubstringMatcher(t *testing.T) {
	cat := testCatalog()
	m := SubstringMatcher{}

	rec, err := m.Match(context.Background(), "stream messages from pub/sub", cat)
	if err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	if rec.Name != "PubSub_to_BigQuery" {
		t.Errorf("matched %q, want PubSub_to_BigQuery", rec.Name)
	}

	if _, err := m.Match(context.Background(), "train a neural network", cat); !errors.Is(err, ErrNoMatch) {
		t.Errorf("Match() error = %v, want ErrNoMatch", err)
	}

	if _, err := m.Match(context.Background(), "   ", cat); !errors.Is(err, ErrNoMatch) {
		t.Errorf("Match(blank) error = %v, want ErrNoMatch", err)
	}
}
