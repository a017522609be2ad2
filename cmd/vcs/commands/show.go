package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var showRaw bool

var showCmd = &cobra.Command{
	Use:   "show [commit]",
	Short: "Show a commit by full or abbreviated hash (default HEAD)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rev := "HEAD"
		if len(args) > 0 {
			rev = args[0]
		}

		c, err := VCS.Repo.Show(cmd.Context(), rev)
		if err != nil {
			return fmt.Errorf("invalid commit argument '%s': %w", rev, err)
		}

		out := cmd.OutOrStdout()
		if showRaw {
			_, err := out.Write(c.Bytes())
			return err
		}
		printCommit(out, c)
		for _, f := range c.Files {
			fmt.Fprintf(out, "    %s\n", f)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().BoolVar(&showRaw, "raw", false, "print the stored record byte for byte")
}
