package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/sluicelabs/sluice/internal/catalog"
	"github.com/sluicelabs/sluice/internal/config"
	"github.com/sluicelabs/sluice/internal/dispatch"
	"github.com/sluicelabs/sluice/internal/gcs"
	"github.com/sluicelabs/sluice/internal/jobspec"
	"github.com/sluicelabs/sluice/internal/launch"
	"github.com/sluicelabs/sluice/internal/pipeline"
	"github.com/sluicelabs/sluice/internal/stage"
)

var rootCmd = &cobra.Command{
	Use:   "sluice",
	Short: "Sluice CLI",
	Long: "-------------------------------------------------------------------\n" +
		"          Sluice - data-engineering job dispatcher\n" +
		"-------------------------------------------------------------------",
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func init() {
	cobra.EnableCommandSorting = false
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(pipelineCmd)
	rootCmd.AddCommand(templatesCmd)
	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(serveCmd)
}

func main() {
	// A missing .env is fine; the environment may already be populated.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("skipping .env: %v", err)
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newDispatcher wires the templated-job flow from configuration. The GCS
// store and Gemini client are constructed once here and injected; no
// component performs hidden SDK initialization.
func newDispatcher(ctx context.Context, cfg *config.Config) (*dispatch.Dispatcher, *gcs.Store, error) {
	store, err := gcs.New(ctx)
	if err != nil {
		return nil, nil, err
	}

	matcher, err := catalog.NewGeminiMatcher(ctx, cfg.ProjectID, cfg.Model.Location, cfg.Model.Name)
	if err != nil {
		store.Close()
		return nil, nil, err
	}

	return &dispatch.Dispatcher{
		Syncer: &catalog.Syncer{
			RemoteURL: cfg.Templates.RepoURL,
			Dir:       cfg.Templates.WorkDir,
			Branch:    cfg.Templates.Branch,
		},
		Matcher:     matcher,
		Executor:    launch.NewExecutor(),
		Store:       store,
		MappingPath: cfg.Templates.MappingPath,
		Env: jobspec.Environment{
			ProjectID:       cfg.ProjectID,
			Region:          cfg.Region,
			StagingLocation: cfg.StagingLocation(),
		},
	}, store, nil
}

// newStager wires the custom template build path.
func newStager(ctx context.Context, cfg *config.Config) (*stage.Stager, error) {
	chooser, err := stage.NewGeminiChooser(ctx, cfg.ProjectID, cfg.Model.Location, cfg.Model.Name)
	if err != nil {
		return nil, err
	}
	bucket, _, err := gcs.ParseURI(cfg.BucketPath)
	if err != nil {
		return nil, err
	}
	return &stage.Stager{
		Tree: &catalog.Syncer{
			RemoteURL: cfg.Templates.RepoURL,
			Dir:       cfg.Templates.WorkDir,
			Branch:    cfg.Templates.Branch,
		},
		Chooser:   chooser,
		Runner:    launch.ExecRunner{},
		ProjectID: cfg.ProjectID,
		Bucket:    bucket,
	}, nil
}

// newBuilder wires the ad-hoc pipeline path.
func newBuilder(cfg *config.Config, store *gcs.Store) *pipeline.Builder {
	return &pipeline.Builder{
		ProjectID:  cfg.ProjectID,
		Region:     cfg.Region,
		BucketPath: cfg.BucketPath,
		Store:      store,
	}
}
