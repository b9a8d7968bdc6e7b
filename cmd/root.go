package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/1amageek/app-mcp-sub001/internal/output"
	"github.com/1amageek/app-mcp-sub001/internal/version"
)

// outputFormat is resolved from the persistent --format flag before any
// subcommand runs.
var outputFormat output.Format

var rootCmd = &cobra.Command{
	Use:   "appmcpd",
	Short: "Expose macOS application UI to MCP clients",
	Long: "appmcpd is an MCP server that exposes running applications' UI structure,\n" +
		"text content, and screenshots to AI agents through the macOS accessibility\n" +
		"APIs. It also ships inspection subcommands for use from a terminal.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version.Version, version.Commit, version.BuildDate)
	rootCmd.PersistentFlags().String("format", "yaml", "Output format: yaml, json")
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// Use the root persistent flag directly to avoid conflicts with
		// subcommand local flags.
		format, _ := rootCmd.PersistentFlags().GetString("format")
		parsed, err := output.ParseFormat(format)
		if err != nil {
			return err
		}
		outputFormat = parsed
		return nil
	}
}
