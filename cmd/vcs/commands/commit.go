package commands

import (
	"errors"
	"fmt"

	"minivcs/pkg/repo"

	"github.com/spf13/cobra"
)

var (
	commitTitle string
	commitMsg   string
	commitAll   bool
)

var commitCmd = &cobra.Command{
	Use:   "commit [files...] [-a] -t <title> -m <message>",
	Short: "Record the staged files as a new commit",
	Long: `Create a new commit from the files in the index at the time of the call.

With -a, every file recorded in the most recent commit is staged again from
the working tree first. If files are given they are staged and become the
ONLY files in the commit.`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		c, err := VCS.Repo.Commit(cmd.Context(), repo.CommitOptions{
			Title:   commitTitle,
			Message: commitMsg,
			Paths:   args,
			All:     commitAll,
		})
		if errors.Is(err, repo.ErrNothingToCommit) {
			return fmt.Errorf("%w; use \"vcs add\" first", err)
		}
		if err != nil {
			return err
		}

		hashColor.Fprintf(out, "[%s] ", c.ID().Short())
		fmt.Fprintln(out, c.Title)
		fmt.Fprintf(out, "   %d file(s), %d bytes\n", c.Count, c.Size)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(commitCmd)

	commitCmd.Flags().StringVarP(&commitTitle, "title", "t", "", "commit title (single line)")
	commitCmd.Flags().StringVarP(&commitMsg, "message", "m", "", "commit message (single line)")
	commitCmd.Flags().BoolVarP(&commitAll, "all", "a", false, "re-stage every file of the last commit first")
	_ = commitCmd.MarkFlagRequired("title")
	_ = commitCmd.MarkFlagRequired("message")
}
