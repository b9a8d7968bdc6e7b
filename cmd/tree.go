package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/1amageek/app-mcp-sub001/internal/output"
	"github.com/1amageek/app-mcp-sub001/internal/perm"
	"github.com/1amageek/app-mcp-sub001/internal/platform"
	"github.com/1amageek/app-mcp-sub001/internal/procs"
	"github.com/1amageek/app-mcp-sub001/internal/tree"
)

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Print an application's accessibility tree",
	Long: `Extract and print a bounded accessibility-tree snapshot of a running
application. The target is selected by --pid, --bundle-id, or --app; with no
target the frontmost application is used.

Examples:
  appmcpd tree --app Safari
  appmcpd tree --bundle-id com.apple.Notes --max-depth 5
  appmcpd tree --pid 1234 --format json`,
	RunE: runTree,
}

func init() {
	rootCmd.AddCommand(treeCmd)
	treeCmd.Flags().Int("pid", 0, "Target process ID")
	treeCmd.Flags().String("bundle-id", "", "Target bundle identifier")
	treeCmd.Flags().String("app", "", "Target application name")
	treeCmd.Flags().Int("max-depth", tree.DefaultMaxDepth, "Max traversal depth")
	treeCmd.Flags().Int("max-children", tree.DefaultMaxChildren, "Max children per node")
	treeCmd.Flags().String("role", "", "Filter: only elements with this role")
	treeCmd.Flags().String("text", "", "Filter: only elements containing this text")
}

func runTree(cmd *cobra.Command, args []string) error {
	provider, err := platform.NewProvider()
	if err != nil {
		return err
	}

	gate := perm.NewGate(provider.Permissions)
	if err := gate.Ensure(perm.Accessibility); err != nil {
		return err
	}

	pid, err := resolvePID(cmd, provider)
	if err != nil {
		return err
	}

	ref, err := provider.Source.ApplicationRef(pid)
	if err != nil {
		return fmt.Errorf("application pid %d: %w", pid, err)
	}

	maxDepth, _ := cmd.Flags().GetInt("max-depth")
	maxChildren, _ := cmd.Flags().GetInt("max-children")
	node, err := tree.Extract(cmd.Context(), ref, tree.Options{
		MaxDepth:    maxDepth,
		MaxChildren: maxChildren,
	})
	if err != nil {
		return err
	}

	role, _ := cmd.Flags().GetString("role")
	text, _ := cmd.Flags().GetString("text")
	if role != "" || text != "" {
		return output.Print(tree.Match(node, tree.Query{Role: role, Text: text}), outputFormat)
	}
	return output.Print(node, outputFormat)
}

// resolvePID picks the target process from flags, falling back to the
// frontmost application.
func resolvePID(cmd *cobra.Command, provider *platform.Provider) (int, error) {
	if pid, _ := cmd.Flags().GetInt("pid"); pid != 0 {
		return pid, nil
	}

	bundleID, _ := cmd.Flags().GetString("bundle-id")
	name, _ := cmd.Flags().GetString("app")
	if bundleID == "" && name == "" {
		front, err := provider.Apps.FrontmostApplication()
		if err != nil {
			return 0, err
		}
		return front.PID, nil
	}

	apps, err := provider.Apps.RunningApplications()
	if err != nil {
		return 0, err
	}
	if bundleID != "" {
		if app, ok := procs.FindByBundleID(apps, bundleID); ok {
			return app.PID, nil
		}
		return 0, fmt.Errorf("no running application with bundle id %q", bundleID)
	}
	if app, ok := procs.FindByName(apps, name); ok {
		return app.PID, nil
	}
	return 0, fmt.Errorf("no running application named %q", name)
}
