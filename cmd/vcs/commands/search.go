package commands

import (
	"errors"
	"fmt"
	"time"

	"minivcs/pkg/meta"
	"minivcs/pkg/types"

	"github.com/spf13/cobra"
)

var (
	searchLimit int
	searchFile  bool
)

var errMetaDisabled = errors.New("metadata index is disabled (set meta.enabled)")

var searchCmd = &cobra.Command{
	Use:   "search <term>",
	Short: "Search commit titles and messages in the metadata index",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if VCS.Meta == nil {
			return errMetaDisabled
		}

		var (
			found []meta.CommitModel
			err   error
		)
		if searchFile {
			found, err = VCS.Meta.FindCommitsWithFile(cmd.Context(), args[0], searchLimit)
		} else {
			found, err = VCS.Meta.SearchCommits(cmd.Context(), args[0], searchLimit)
		}
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(found) == 0 {
			fmt.Fprintln(out, "No matching commits.")
			return nil
		}
		for _, m := range found {
			hashColor.Fprint(out, types.Hash(m.Hash).Short())
			fmt.Fprintf(out, " %s  %s\n", time.Unix(m.Timestamp, 0).UTC().Format("2006-01-02 15:04:05"), m.Title)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 20, "maximum number of results")
	searchCmd.Flags().BoolVar(&searchFile, "file", false, "find commits that contain the named file instead")
}
