package gcs

import "testing"

func TestParseURI(t *testing.T) {
	cases := []struct {
		in      string
		bucket  string
		object  string
		wantErr bool
	}{
		{"gs://bucket/path/to/object.py", "bucket", "path/to/object.py", false},
		{"gs://bucket/object", "bucket", "object", false},
		{"gs://bucket", "bucket", "", false},
		{"s3://bucket/object", "", "", true},
		{"bucket/object", "", "", true},
		{"gs://", "", "", true},
	}
	for _, tc := range cases {
		bucket, object, err := ParseURI(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("ParseURI(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			continue
		}
		if bucket != tc.bucket || object != tc.object {
			t.Errorf("ParseURI(%q) = (%q, %q), want (%q, %q)", tc.in, bucket, object, tc.bucket, tc.object)
		}
	}
}

func TestJoinURI(t *testing.T) {
	cases := []struct {
		bucket string
		parts  []string
		want   string
	}{
		{"b", []string{"generated_pipelines", "job-1a2b3c4d.py"}, "gs://b/generated_pipelines/job-1a2b3c4d.py"},
		{"b", []string{"/leading/", "trailing/"}, "gs://b/leading/trailing"},
		{"b", []string{"", "x"}, "gs://b/x"},
		{"b", nil, "gs://b"},
	}
	for _, tc := range cases {
		if got := JoinURI(tc.bucket, tc.parts...); got != tc.want {
			t.Errorf("JoinURI(%q, %v) = %q, want %q", tc.bucket, tc.parts, got, tc.want)
		}
	}
}
