package commands

import (
	"errors"
	"fmt"

	"minivcs/pkg/app"
	"minivcs/pkg/repo"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a repository in the current folder",
	Long: `Create .vcs with an empty index, a commits store and a HEAD pointing at
an initial commit. No arguments are allowed.`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 {
			return cmd.Usage()
		}

		a, genesis, err := app.InitRepo(cmd.Context())
		if errors.Is(err, repo.ErrAlreadyInitialized) {
			warnColor.Fprintf(cmd.OutOrStdout(), "Repository already exists: %v\n", err)
			return nil
		}
		if err != nil {
			return fmt.Errorf("could not initialize repository: %w", err)
		}
		VCS = a

		okColor.Fprint(cmd.OutOrStdout(), "Initialized empty repository in ")
		fmt.Fprintln(cmd.OutOrStdout(), a.Repo.Layout().MetaDir())
		fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s\n", genesis.ID().Short(), genesis.Title)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
