package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var errVerifyFailed = errors.New("repository verification failed")

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Rehash every stored commit and check the chain from HEAD",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		report, err := VCS.Repo.Verify(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "objects:   %d\n", report.Objects)
		fmt.Fprintf(out, "reachable: %d\n", len(report.Reachable))
		for _, h := range report.Orphans {
			warnColor.Fprintf(out, "orphan    %s\n", h)
		}
		for _, p := range report.Problems {
			errColor.Fprintf(out, "corrupt   %s: %v\n", p.Hash, p.Err)
		}

		if !report.OK() {
			return fmt.Errorf("%w: %d problem(s)", errVerifyFailed, len(report.Problems))
		}
		okColor.Fprintln(out, "ok")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}
