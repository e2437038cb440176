// Package stage builds custom Dataflow templates from the synced template
// source tree and stages their artifacts: locate the implementing source
// file, run the repository's Maven staging profile as a subprocess, and
// scrape the staged gs:// path from the build output.
package stage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/sluicelabs/sluice/internal/job"
	"github.com/sluicelabs/sluice/internal/launch"
)

// SourceTree yields a local checkout of the template source tree.
// *catalog.Syncer is the production implementation.
type SourceTree interface {
	Refresh(ctx context.Context) (string, error)
}

// The staging build's stdout format is an external contract; both the flex
// and classic success lines are recognized.
var (
	stagedFlex    = regexp.MustCompile(`Flex Template was staged!\s+(gs://\S+)`)
	stagedClassic = regexp.MustCompile(`Template staged successfully\. It is available at\s+(gs://\S+)`)
)

// ExtractStagedPath returns the staged template URI printed by the build,
// or "".
func ExtractStagedPath(output string) string {
	for _, re := range []*regexp.Regexp{stagedFlex, stagedClassic} {
		if m := re.FindStringSubmatch(output); m != nil {
			return m[1]
		}
	}
	return ""
}

// Request describes one template build.
type Request struct {
	// TemplateName is the template to build (e.g. "PubSub_to_BigQuery").
	TemplateName string

	// ModulePath is the module directory inside the template source tree
	// holding the template's sources.
	ModulePath string
}

// Stager builds and stages custom templates. All collaborators are injected.
type Stager struct {
	Tree    SourceTree
	Chooser FileChooser
	Runner  launch.Runner

	ProjectID string

	// Bucket is the staging bucket name, without the gs:// scheme.
	Bucket string
}

// BuildAndStage executes the full build flow and always returns a Result:
//
//   - the source tree is refreshed; candidate .java files under the module
//     are collected and the chooser picks the implementing one;
//   - the Maven staging profile runs as a structured-argv subprocess;
//   - a clean build whose output carries no staged path is
//     failed/STAGED_PATH_NOT_FOUND, never success.
func (s *Stager) BuildAndStage(ctx context.Context, req Request) job.Result {
	repoPath, err := s.Tree.Refresh(ctx)
	if err != nil {
		return job.FromError(err)
	}

	moduleDir := filepath.Join(repoPath, req.ModulePath)
	candidates, err := findJavaFiles(moduleDir)
	if err != nil {
		return job.FromError(err)
	}
	if len(candidates) == 0 {
		return job.Failed(job.KindSourceNotFound,
			fmt.Sprintf("no .java source files found under %s", moduleDir))
	}

	chosen, err := s.Chooser.Choose(ctx, req.TemplateName, candidates)
	if err != nil {
		if errors.Is(err, ErrNoSourceFile) {
			return job.Failed(job.KindSourceNotFound,
				fmt.Sprintf("could not identify the source file implementing %q", req.TemplateName))
		}
		return job.FromError(err)
	}
	if _, statErr := os.Stat(chosen); statErr != nil {
		return job.Failed(job.KindSourceNotFound,
			fmt.Sprintf("identified source file does not exist: %s", chosen))
	}
	log.Printf("building template %s from %s", req.TemplateName, chosen)

	args := []string{
		"clean", "package", "-PtemplatesStage", "-DskipTests",
		"-DprojectId=" + s.ProjectID,
		"-DbucketName=" + s.Bucket,
		"-DstagePrefix=templates",
		"-DtemplateName=" + req.TemplateName,
		"-Dlabels=sluice",
		"-f", moduleDir,
	}
	out, runErr := s.Runner.CombinedOutput(ctx, "mvn", args)
	output := string(out)
	if runErr != nil {
		return job.Result{
			Status:    job.StatusFailed,
			Kind:      job.KindSubprocessFailure,
			Report:    fmt.Sprintf("template build command failed: %v\n--- OUTPUT ---\n%s", runErr, output),
			RawOutput: output,
		}
	}

	staged := ExtractStagedPath(output)
	if staged == "" {
		return job.Result{
			Status:    job.StatusFailed,
			Kind:      job.KindStagedPathNotFound,
			Report:    "build succeeded, but no staged template path was found in the build output",
			RawOutput: output,
		}
	}

	return job.Result{
		Status:       job.StatusSuccess,
		TemplatePath: staged,
		Report:       fmt.Sprintf("Template '%s' was built and staged at %s.", req.TemplateName, staged),
	}
}

// findJavaFiles returns the sorted .java files under dir. A missing directory
// yields an empty list, not an error; the caller reports it.
func findJavaFiles(dir string) ([]string, error) {
	if info, statErr := os.Stat(dir); statErr != nil || !info.IsDir() {
		return nil, nil
	}
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".java") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s for sources: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}
