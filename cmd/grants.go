package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/1amageek/app-mcp-sub001/internal/output"
	"github.com/1amageek/app-mcp-sub001/internal/perm"
	"github.com/1amageek/app-mcp-sub001/internal/platform"
)

var grantsCmd = &cobra.Command{
	Use:   "grants",
	Short: "Show capability grant status",
	Long: `Show whether the Accessibility and Screen Recording capabilities are
currently granted. Each run queries the OS live; grants can change in System
Settings at any time.

Examples:
  appmcpd grants
  appmcpd grants --request accessibility`,
	RunE: runGrants,
}

func init() {
	rootCmd.AddCommand(grantsCmd)
	grantsCmd.Flags().String("request", "", "Trigger the OS consent prompt for a capability: accessibility, screen-capture")
}

func runGrants(cmd *cobra.Command, args []string) error {
	provider, err := platform.NewProvider()
	if err != nil {
		return err
	}
	gate := perm.NewGate(provider.Permissions)

	if request, _ := cmd.Flags().GetString("request"); request != "" {
		capability := perm.Capability(request)
		switch capability {
		case perm.Accessibility, perm.ScreenCapture:
		default:
			return fmt.Errorf("unknown capability: %q (use accessibility or screen-capture)", request)
		}
		return output.Print(gate.Request(capability), outputFormat)
	}

	statuses := []perm.Status{
		gate.Check(perm.Accessibility),
		gate.Check(perm.ScreenCapture),
	}
	return output.Print(statuses, outputFormat)
}
