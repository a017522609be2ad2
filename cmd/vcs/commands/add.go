package commands

import (
	"fmt"
	"path/filepath"

	"minivcs/pkg/ignore"

	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add [files...]",
	Short: "Add files to the index",
	Long: `Copy one or more files into the index, using their content on disk at the
time of the call. If any file cannot be copied the whole index is emptied.
Paths matched by .vcsignore are skipped.`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if len(args) == 0 {
			fmt.Fprintln(out, "No files to add.")
			return nil
		}

		paths, err := filterIgnored(cmd, args)
		if err != nil {
			return err
		}
		if len(paths) == 0 {
			fmt.Fprintln(out, "No files to add.")
			return nil
		}

		added, err := VCS.Repo.Add(cmd.Context(), paths...)
		if err != nil {
			return err
		}

		var total int64
		for _, e := range added {
			fmt.Fprintf(out, "added %s (%d bytes)\n", e.Name, e.Size)
			total += e.Size
		}
		okColor.Fprintf(out, "Staged %d file(s), %d bytes\n", len(added), total)
		return nil
	},
}

// filterIgnored drops paths matched by the ignore rules and reports them.
func filterIgnored(cmd *cobra.Command, args []string) ([]string, error) {
	root := VCS.RootPath
	matcher, err := ignore.NewMatcher(root)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", ignore.FileName, err)
	}

	kept := make([]string, 0, len(args))
	for _, p := range args {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		rel, err := filepath.Rel(root, abs)
		if err == nil && matcher.Matches(rel) {
			warnColor.Fprintf(cmd.OutOrStdout(), "skipped %s (ignored)\n", p)
			continue
		}
		kept = append(kept, p)
	}
	return kept, nil
}

func init() {
	rootCmd.AddCommand(addCmd)
}
