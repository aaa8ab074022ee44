package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"fpc-portal/internal/model"
	"fpc-portal/internal/navigation"
)

var navOpts struct {
	role   string
	format string
}

var navCmd = &cobra.Command{
	Use:   "nav",
	Short: "Print the navigation menu a role sees",
	Long: `Print the sidebar entries resolved for a role, in display order.

Examples:
  fpc-portal nav --role regional_manager
  fpc-portal nav --role fpc_user --format json`,
	RunE: runNav,
}

func init() {
	navCmd.Flags().StringVar(&navOpts.role, "role", "", "role name, e.g. super_admin (required)")
	navCmd.Flags().StringVar(&navOpts.format, "format", "text", "output format: text or json")
	_ = navCmd.MarkFlagRequired("role")
	rootCmd.AddCommand(navCmd)
}

func runNav(cmd *cobra.Command, _ []string) error {
	role, ok := model.ParseRole(navOpts.role)
	if !ok {
		return fmt.Errorf("unknown role %q", navOpts.role)
	}

	entries := navigation.Resolve(role)
	out := cmd.OutOrStdout()

	switch navOpts.format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	case "text":
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintf(tw, "LABEL\tPATH\tICON\n")
		for _, e := range entries {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Label, e.TargetPath, e.Icon)
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unknown format %q", navOpts.format)
	}
}
