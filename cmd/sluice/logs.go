package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sluicelabs/sluice/internal/config"
	"github.com/sluicelabs/sluice/internal/monitor"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Fetch logs and metrics for launched jobs",
	Long: "sluice logs [--job-id ID] [--severity ERROR] [--since 1h] [--text term] [--limit 50]\n" +
		"sluice logs --cpu\n\n" +
		"Builds a Cloud Logging filter from the flags and fetches matching\n" +
		"entries, or reports per-instance CPU utilization with --cpu.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadFromEnv()
		if err != nil {
			return err
		}

		client, err := monitor.New(cmd.Context(), cfg.ProjectID)
		if err != nil {
			return err
		}
		defer client.Close()

		if cpu, _ := cmd.Flags().GetBool("cpu"); cpu {
			result := client.CPUUtilization(cmd.Context())
			printResult(result)
			if result.Status != "success" {
				os.Exit(1)
			}
			return nil
		}

		jobID, _ := cmd.Flags().GetString("job-id")
		severity, _ := cmd.Flags().GetString("severity")
		text, _ := cmd.Flags().GetString("text")
		since, _ := cmd.Flags().GetDuration("since")
		limit, _ := cmd.Flags().GetInt("limit")

		query := monitor.LogQuery{
			ResourceType: "dataflow_step",
			MinSeverity:  severity,
			JobID:        jobID,
			Text:         text,
		}
		if since > 0 {
			query.Start = time.Now().Add(-since)
		}

		result := client.FetchLogs(cmd.Context(), query, limit)
		printResult(result)
		if result.Status != "success" {
			os.Exit(1)
		}
		return nil
	},
}

func init() {
	logsCmd.Flags().Bool("cpu", false, "report per-instance CPU utilization instead of logs")
	logsCmd.Flags().String("job-id", "", "narrow to one Dataflow job")
	logsCmd.Flags().String("severity", "", fmt.Sprintf("minimum severity (%s...)", monitor.Severities[0]))
	logsCmd.Flags().String("text", "", "free-text search term")
	logsCmd.Flags().Duration("since", time.Hour, "how far back to search")
	logsCmd.Flags().Int("limit", 50, "maximum entries to print")
}
