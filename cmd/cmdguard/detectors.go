package cmdguard

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/varalys/cmdguard/internal/detectors"
)

var detectorsVerbose bool

func init() {
	cmd := &cobra.Command{
		Use:   "detectors",
		Short: "List available detectors in evaluation order",
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			for _, d := range detectors.All() {
				if detectorsVerbose {
					fmt.Fprintf(out, "%-22s %s\n", d.ID, d.Description)
					continue
				}
				fmt.Fprintln(out, d.ID)
			}
		},
	}
	cmd.Flags().BoolVarP(&detectorsVerbose, "verbose", "v", false, "include descriptions")
	rootCmd.AddCommand(cmd)
}
