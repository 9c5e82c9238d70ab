package cmdguard

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/varalys/cmdguard/internal/update"
)

var versionCheck bool

// newChecker is replaced in tests.
var newChecker = update.NewChecker

func init() {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version, optionally checking for a newer release",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "cmdguard %s\n", version)
			if !versionCheck {
				return nil
			}
			latest, newer, err := newChecker().Check(cmd.Context(), version)
			if err != nil {
				return err
			}
			switch {
			case newer:
				fmt.Fprintf(out, "A newer release is available: %s (run cmdguard --self-update)\n", latest)
			case latest != "":
				fmt.Fprintln(out, "Up to date")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&versionCheck, "check", false, "check GitHub for a newer release")
	rootCmd.AddCommand(cmd)
}
