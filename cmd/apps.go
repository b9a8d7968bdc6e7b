package cmd

import (
	"github.com/spf13/cobra"

	"github.com/1amageek/app-mcp-sub001/internal/output"
	"github.com/1amageek/app-mcp-sub001/internal/platform"
	"github.com/1amageek/app-mcp-sub001/internal/procs"
)

var appsCmd = &cobra.Command{
	Use:   "apps",
	Short: "List running applications",
	Long:  "List running applications with their name, bundle identifier, and PID.",
	RunE:  runApps,
}

func init() {
	rootCmd.AddCommand(appsCmd)
	appsCmd.Flags().Bool("accessible", false, "Only applications that currently answer accessibility queries")
}

func runApps(cmd *cobra.Command, args []string) error {
	provider, err := platform.NewProvider()
	if err != nil {
		return err
	}

	apps, err := provider.Apps.RunningApplications()
	if err != nil {
		return err
	}
	procs.SortApps(apps)

	if accessible, _ := cmd.Flags().GetBool("accessible"); accessible {
		filtered := apps[:0]
		for _, app := range apps {
			if _, err := provider.Source.ApplicationRef(app.PID); err == nil {
				filtered = append(filtered, app)
			}
		}
		apps = filtered
	}

	if apps == nil {
		apps = []procs.App{}
	}
	return output.Print(apps, outputFormat)
}
