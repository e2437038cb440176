package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sluicelabs/sluice/internal/config"
	"github.com/sluicelabs/sluice/internal/dispatch"
)

var submitCmd = &cobra.Command{
	Use:   "submit <job-name> <task description>",
	Short: "Submit a templated job",
	Long: "sluice submit <job-name> <task description> [--params file.json] [--template-path gs://...]\n\n" +
		"Resolves the task description to a catalog template, validates the\n" +
		"parameters against its schema, and submits the job. With\n" +
		"--template-path the catalog and validation are bypassed.",
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadFromEnv()
		if err != nil {
			return err
		}

		paramsFile, _ := cmd.Flags().GetString("params")
		overridePath, _ := cmd.Flags().GetString("template-path")

		task := ""
		if len(args) > 1 {
			task = args[1]
		}
		if task == "" && overridePath == "" {
			return fmt.Errorf("a task description is required unless --template-path is set")
		}

		params := map[string]string{}
		if paramsFile != "" {
			data, err := os.ReadFile(paramsFile)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", paramsFile, err)
			}
			if err := json.Unmarshal(data, &params); err != nil {
				return fmt.Errorf("invalid JSON in %s: %w", paramsFile, err)
			}
		}

		d, store, err := newDispatcher(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		result := d.RunTemplatedJob(cmd.Context(), dispatch.TemplatedJobRequest{
			JobName:      args[0],
			Task:         task,
			Parameters:   params,
			OverridePath: overridePath,
		})

		printResult(result)
		if !result.Succeeded() {
			os.Exit(1)
		}
		return nil
	},
}

func init() {
	submitCmd.Flags().String("params", "", "JSON file with template parameters")
	submitCmd.Flags().String("template-path", "", "explicit template artifact path (skips catalog resolution and validation)")
}
