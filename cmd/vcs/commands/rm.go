package commands

import (
	"fmt"

	"minivcs/pkg/index"

	"github.com/spf13/cobra"
)

var rmCmd = &cobra.Command{
	Use:   "rm [files...]",
	Short: "Remove files from the index",
	Long:  `Unstage files. The working tree is not touched; the files are simply left out of the next commit.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		names := make([]string, len(args))
		for i, p := range args {
			names[i] = index.EntryName(p)
		}
		if err := VCS.Repo.Index().Remove(names...); err != nil {
			return err
		}
		for _, n := range names {
			fmt.Fprintf(cmd.OutOrStdout(), "Unstaged: %s\n", n)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rmCmd)
}
