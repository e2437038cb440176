package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sluicelabs/sluice/internal/config"
	"github.com/sluicelabs/sluice/internal/stage"
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "Inspect the template catalog",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var templatesRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Sync the local template source tree with its upstream",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadFromEnv()
		if err != nil {
			return err
		}

		d, store, err := newDispatcher(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		path, err := d.Syncer.Refresh(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Template repository is up to date at %s\n", path)
		return nil
	},
}

var templatesResolveCmd = &cobra.Command{
	Use:   "resolve <task description>",
	Short: "Resolve a task description to a catalog template",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadFromEnv()
		if err != nil {
			return err
		}

		d, store, err := newDispatcher(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		rec, err := d.ResolveTemplate(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(rec, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

var templatesStageCmd = &cobra.Command{
	Use:   "stage <template-name> <module-path>",
	Short: "Build a custom template from source and stage it",
	Long: "sluice templates stage <template-name> <module-path>\n\n" +
		"Locates the source file implementing the template inside the synced\n" +
		"template source tree, runs the repository's Maven staging build, and\n" +
		"reports the staged gs:// artifact path.",
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadFromEnv()
		if err != nil {
			return err
		}

		stager, err := newStager(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		result := stager.BuildAndStage(cmd.Context(), stage.Request{
			TemplateName: args[0],
			ModulePath:   args[1],
		})

		printResult(result)
		if !result.Succeeded() {
			os.Exit(1)
		}
		return nil
	},
}

func init() {
	templatesCmd.AddCommand(templatesRefreshCmd)
	templatesCmd.AddCommand(templatesResolveCmd)
	templatesCmd.AddCommand(templatesStageCmd)
}
