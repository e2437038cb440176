package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sluicelabs/sluice/internal/config"
	"github.com/sluicelabs/sluice/internal/gcs"
	"github.com/sluicelabs/sluice/internal/job"
	"github.com/sluicelabs/sluice/internal/pipeline"
)

var pipelineCmd = &cobra.Command{
	Use:   "pipeline <job-name> <source.py>",
	Short: "Build and run an ad-hoc pipeline",
	Long: "sluice pipeline <job-name> <source.py> [--mode batch|streaming] [--args file.json]\n\n" +
		"Runs the given pipeline program as a subprocess with the standard\n" +
		"runtime bindings, watches for the job ID, and archives the source\n" +
		"to object storage.",
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadFromEnv()
		if err != nil {
			return err
		}

		mode, _ := cmd.Flags().GetString("mode")
		argsFile, _ := cmd.Flags().GetString("args")

		source, err := os.ReadFile(args[1])
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", args[1], err)
		}

		runtimeArgs := map[string]string{}
		if argsFile != "" {
			data, err := os.ReadFile(argsFile)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", argsFile, err)
			}
			if err := json.Unmarshal(data, &runtimeArgs); err != nil {
				return fmt.Errorf("invalid JSON in %s: %w", argsFile, err)
			}
		}

		store, err := gcs.New(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		builder := newBuilder(cfg, store)
		result := builder.BuildAndRun(cmd.Context(), pipeline.Request{
			JobName: args[0],
			Source:  string(source),
			Args:    runtimeArgs,
			Mode:    pipeline.Mode(mode),
		})

		printResult(result)
		if !result.Succeeded() {
			os.Exit(1)
		}
		return nil
	},
}

func init() {
	pipelineCmd.Flags().String("mode", string(pipeline.ModeBatch), "pipeline mode: batch or streaming")
	pipelineCmd.Flags().String("args", "", "JSON file with runtime arguments")
}

// printResult renders a job result for the terminal.
func printResult(result job.Result) {
	fmt.Printf("Status: %s\n", result.Status)
	if result.JobID != "" {
		fmt.Printf("Job ID: %s\n", result.JobID)
	}
	if result.TemplatePath != "" {
		fmt.Printf("Staged template: %s\n", result.TemplatePath)
	}
	if result.Kind != "" {
		fmt.Printf("Error kind: %s\n", result.Kind)
	}
	fmt.Println(result.Report)
	if result.RawOutput != "" && result.Report == "" {
		fmt.Println(result.RawOutput)
	}
}
