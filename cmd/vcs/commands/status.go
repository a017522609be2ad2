package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "List the staged files",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		head, err := VCS.Repo.Head(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprint(out, "HEAD ")
		hashColor.Fprintln(out, head.Short())

		entries, err := VCS.Repo.Status(cmd.Context())
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Fprintln(out, "Nothing staged.")
			return nil
		}

		fmt.Fprintln(out, "Staged:")
		for _, e := range entries {
			okColor.Fprintf(out, "    %-30s", e.Name)
			fmt.Fprintf(out, " %d bytes\n", e.Size)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
