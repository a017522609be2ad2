package commands

import (
	"fmt"
	"io"

	"minivcs/pkg/core"
	"minivcs/pkg/repo"

	"github.com/spf13/cobra"
)

var (
	logLimit   int
	logOneline bool
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Show commit history from HEAD back to the initial commit",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		shown := 0
		return VCS.Repo.Log(cmd.Context(), func(c *core.Commit) error {
			if logLimit > 0 && shown == logLimit {
				return repo.ErrStopWalk
			}
			shown++
			if logOneline {
				hashColor.Fprint(out, c.ID().Short())
				fmt.Fprintf(out, " %s\n", c.Title)
				return nil
			}
			printCommit(out, c)
			return nil
		})
	},
}

// printCommit writes a git style summary of c.
func printCommit(out io.Writer, c *core.Commit) {
	hashColor.Fprintf(out, "commit %s\n", c.ID())
	if !c.IsGenesis() {
		fmt.Fprintf(out, "Parent: %s\n", c.Parent)
	}
	fmt.Fprintf(out, "Date:   %s\n", c.Timestamp.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(out, "Files:  %d (%d bytes)\n", c.Count, c.Size)
	fmt.Fprintf(out, "\n    %s\n\n    %s\n\n", c.Title, c.Message)
}

func init() {
	rootCmd.AddCommand(logCmd)

	logCmd.Flags().IntVarP(&logLimit, "max-count", "n", 0, "limit the number of commits shown")
	logCmd.Flags().BoolVar(&logOneline, "oneline", false, "one line per commit")
}
