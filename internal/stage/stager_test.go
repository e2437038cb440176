package stage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sluicelabs/sluice/internal/job"
)

const stagedFlexPath = "gs://stage-bucket/templates/flex/my-template"

// fakeTree hands back a fixed checkout path.
type fakeTree struct {
	path string
	err  error
}

func (f *fakeTree) Refresh(_ context.Context) (string, error) {
	return f.path, f.err
}

// fakeChooser returns a canned choice without consulting a model.
type fakeChooser struct {
	choice string // "" means pick the first candidate
	err    error

	gotTemplateName string
	gotCandidates   []string
}

func (f *fakeChooser) Choose(_ context.Context, templateName string, candidates []string) (string, error) {
	f.gotTemplateName = templateName
	f.gotCandidates = candidates
	if f.err != nil {
		return "", f.err
	}
	if f.choice != "" {
		return f.choice, nil
	}
	return candidates[0], nil
}

// fakeRunner captures the build command and returns canned output.
type fakeRunner struct {
	output string
	err    error

	calls   int
	gotName string
	gotArgs []string
}

func (f *fakeRunner) CombinedOutput(_ context.Context, name string, args []string) ([]byte, error) {
	f.calls++
	f.gotName = name
	f.gotArgs = args
	return []byte(f.output), f.err
}

// writeTree lays out a module directory with the given source files and
// returns the tree root.
func writeTree(t *testing.T, module string, files ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, f := range files {
		path := filepath.Join(root, module, f)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("class T {}"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func buildOutput(line string) string {
	return "[INFO] Scanning for projects...\n[INFO] BUILD SUCCESS\n" + line + "\n"
}

// ---------------------------------------------------------------------------
// staged-path extraction
// ---------------------------------------------------------------------------

func TestExtractStagedPath(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"flex line", "Flex Template was staged! " + stagedFlexPath, stagedFlexPath},
		{"classic line", "Template staged successfully. It is available at gs://b/templates/classic/t", "gs://b/templates/classic/t"},
		{"flex line with newline gap", "Flex Template was staged!\n  " + stagedFlexPath, stagedFlexPath},
		{"no staged path", "[INFO] BUILD SUCCESS", ""},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		if got := ExtractStagedPath(tc.in); got != tc.want {
			t.Errorf("[%s] ExtractStagedPath() = %q, want %q", tc.name, got, tc.want)
		}
	}
}

// ---------------------------------------------------------------------------
// chooser response parsing
// ---------------------------------------------------------------------------

func TestParseChoice(t *testing.T) {
	candidates := []string{"/repo/v2/a/src/A.java", "/repo/v2/a/src/B.java"}

	got, err := ParseChoice("/repo/v2/a/src/B.java", candidates)
	if err != nil || got != candidates[1] {
		t.Errorf("ParseChoice(exact) = %q, %v", got, err)
	}

	got, err = ParseChoice("```\n/repo/v2/a/src/A.java\n```", candidates)
	if err != nil || got != candidates[0] {
		t.Errorf("ParseChoice(fenced) = %q, %v", got, err)
	}

	for _, response := range []string{
		NotFoundSentinel,
		"NOT_FOUND",
		"",
		"/somewhere/else/C.java",
		"The best file is /repo/v2/a/src/A.java",
	} {
		if _, err := ParseChoice(response, candidates); !errors.Is(err, ErrNoSourceFile) {
			t.Errorf("ParseChoice(%q) error = %v, want ErrNoSourceFile", response, err)
		}
	}
}

func TestBuildChoosePrompt(t *testing.T) {
	prompt := BuildChoosePrompt("My_Template", []string{"/a/A.java", "/b/B.java"})
	for _, want := range []string{NotFoundSentinel, "My_Template", "/a/A.java", "/b/B.java"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

// ---------------------------------------------------------------------------
// source discovery
// ---------------------------------------------------------------------------

func TestFindJavaFiles(t *testing.T) {
	root := writeTree(t, "v2/my-template",
		"src/main/B.java", "src/main/A.java", "pom.xml.java.bak", "README.md")

	files, err := findJavaFiles(filepath.Join(root, "v2/my-template"))
	if err != nil {
		t.Fatalf("findJavaFiles() error = %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("found %d files, want 2: %v", len(files), files)
	}
	if !strings.HasSuffix(files[0], "A.java") || !strings.HasSuffix(files[1], "B.java") {
		t.Errorf("files not sorted: %v", files)
	}
}

func TestFindJavaFiles_MissingDir(t *testing.T) {
	files, err := findJavaFiles(filepath.Join(t.TempDir(), "absent"))
	if err != nil {
		t.Fatalf("findJavaFiles() error = %v", err)
	}
	if len(files) != 0 {
		t.Errorf("files = %v, want none", files)
	}
}

// ---------------------------------------------------------------------------
// the full build flow
// ---------------------------------------------------------------------------

func testStager(tree SourceTree, chooser FileChooser, runner *fakeRunner) *Stager {
	return &Stager{
		Tree:      tree,
		Chooser:   chooser,
		Runner:    runner,
		ProjectID: "proj-1",
		Bucket:    "stage-bucket",
	}
}

func TestBuildAndStage_Success(t *testing.T) {
	root := writeTree(t, "v2/my-template", "src/main/Main.java", "src/main/Util.java")
	chooser := &fakeChooser{}
	runner := &fakeRunner{output: buildOutput("Flex Template was staged! " + stagedFlexPath)}
	s := testStager(&fakeTree{path: root}, chooser, runner)

	result := s.BuildAndStage(context.Background(), Request{
		TemplateName: "My_Template",
		ModulePath:   "v2/my-template",
	})

	if result.Status != job.StatusSuccess {
		t.Fatalf("status = %s, want success (report: %s)", result.Status, result.Report)
	}
	if result.TemplatePath != stagedFlexPath {
		t.Errorf("staged path = %q, want %q", result.TemplatePath, stagedFlexPath)
	}
	if result.JobID != "" {
		t.Errorf("staging result must not carry a job id, got %q", result.JobID)
	}

	if chooser.gotTemplateName != "My_Template" {
		t.Errorf("chooser got template %q", chooser.gotTemplateName)
	}
	if len(chooser.gotCandidates) != 2 {
		t.Errorf("chooser got %d candidates: %v", len(chooser.gotCandidates), chooser.gotCandidates)
	}

	if runner.gotName != "mvn" {
		t.Errorf("ran %q, want mvn", runner.gotName)
	}
	joined := strings.Join(runner.gotArgs, " ")
	for _, want := range []string{
		"clean package -PtemplatesStage -DskipTests",
		"-DprojectId=proj-1",
		"-DbucketName=stage-bucket",
		"-DstagePrefix=templates",
		"-DtemplateName=My_Template",
		"-Dlabels=sluice",
		"-f " + filepath.Join(root, "v2/my-template"),
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("build command missing %q:\n%s", want, joined)
		}
	}
}

func TestBuildAndStage_ClassicStagedLine(t *testing.T) {
	root := writeTree(t, "v1/tpl", "Main.java")
	runner := &fakeRunner{output: buildOutput("Template staged successfully. It is available at gs://b/templates/classic/t")}
	s := testStager(&fakeTree{path: root}, &fakeChooser{}, runner)

	result := s.BuildAndStage(context.Background(), Request{TemplateName: "T", ModulePath: "v1/tpl"})
	if result.Status != job.StatusSuccess {
		t.Fatalf("status = %s (report: %s)", result.Status, result.Report)
	}
	if result.TemplatePath != "gs://b/templates/classic/t" {
		t.Errorf("staged path = %q", result.TemplatePath)
	}
}

func TestBuildAndStage_NoJavaSources(t *testing.T) {
	runner := &fakeRunner{}
	s := testStager(&fakeTree{path: t.TempDir()}, &fakeChooser{}, runner)

	result := s.BuildAndStage(context.Background(), Request{TemplateName: "T", ModulePath: "v2/empty"})
	if result.Kind != job.KindSourceNotFound {
		t.Fatalf("kind = %s, want SOURCE_NOT_FOUND", result.Kind)
	}
	if runner.calls != 0 {
		t.Error("no build should run without sources")
	}
}

func TestBuildAndStage_ChooserFindsNothing(t *testing.T) {
	root := writeTree(t, "v2/tpl", "Main.java")
	runner := &fakeRunner{}
	s := testStager(&fakeTree{path: root}, &fakeChooser{err: ErrNoSourceFile}, runner)

	result := s.BuildAndStage(context.Background(), Request{TemplateName: "T", ModulePath: "v2/tpl"})
	if result.Kind != job.KindSourceNotFound {
		t.Fatalf("kind = %s, want SOURCE_NOT_FOUND", result.Kind)
	}
	if !strings.Contains(result.Report, `"T"`) {
		t.Errorf("report = %s", result.Report)
	}
	if runner.calls != 0 {
		t.Error("no build should run without an identified source file")
	}
}

func TestBuildAndStage_ChosenFileMissing(t *testing.T) {
	root := writeTree(t, "v2/tpl", "Main.java")
	chooser := &fakeChooser{choice: filepath.Join(root, "v2/tpl/Gone.java")}
	s := testStager(&fakeTree{path: root}, chooser, &fakeRunner{})

	result := s.BuildAndStage(context.Background(), Request{TemplateName: "T", ModulePath: "v2/tpl"})
	if result.Kind != job.KindSourceNotFound {
		t.Fatalf("kind = %s, want SOURCE_NOT_FOUND", result.Kind)
	}
}

func TestBuildAndStage_BuildFails(t *testing.T) {
	root := writeTree(t, "v2/tpl", "Main.java")
	runner := &fakeRunner{output: "[ERROR] compilation failure", err: fmt.Errorf("exit status 1")}
	s := testStager(&fakeTree{path: root}, &fakeChooser{}, runner)

	result := s.BuildAndStage(context.Background(), Request{TemplateName: "T", ModulePath: "v2/tpl"})
	if result.Status != job.StatusFailed {
		t.Fatalf("status = %s, want failed", result.Status)
	}
	if result.Kind != job.KindSubprocessFailure {
		t.Errorf("kind = %s, want SUBPROCESS_FAILURE", result.Kind)
	}
	if !strings.Contains(result.Report, "compilation failure") {
		t.Errorf("report lost the build output:\n%s", result.Report)
	}
}

// A clean build without a discoverable staged path is a failure, not a
// success.
func TestBuildAndStage_CleanBuildWithoutStagedPath(t *testing.T) {
	root := writeTree(t, "v2/tpl", "Main.java")
	runner := &fakeRunner{output: buildOutput("[INFO] nothing staged")}
	s := testStager(&fakeTree{path: root}, &fakeChooser{}, runner)

	result := s.BuildAndStage(context.Background(), Request{TemplateName: "T", ModulePath: "v2/tpl"})
	if result.Status != job.StatusFailed {
		t.Fatalf("status = %s, want failed", result.Status)
	}
	if result.Kind != job.KindStagedPathNotFound {
		t.Errorf("kind = %s, want STAGED_PATH_NOT_FOUND", result.Kind)
	}
	if result.RawOutput == "" {
		t.Error("raw output should be attached when the staged path is missing")
	}
}

func TestBuildAndStage_RefreshFailurePropagates(t *testing.T) {
	refreshErr := job.Errorf(job.KindCatalogRefreshFailure, "failed to clone upstream")
	s := testStager(&fakeTree{err: refreshErr}, &fakeChooser{}, &fakeRunner{})

	result := s.BuildAndStage(context.Background(), Request{TemplateName: "T", ModulePath: "v2/tpl"})
	if result.Status != job.StatusFailed {
		t.Fatalf("status = %s, want failed", result.Status)
	}
	if result.Kind != job.KindCatalogRefreshFailure {
		t.Errorf("kind = %s, want CATALOG_REFRESH_FAILURE", result.Kind)
	}
}
