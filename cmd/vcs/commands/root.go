package commands

import (
	"fmt"
	"os"

	"minivcs/pkg/app"
	"minivcs/pkg/config"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	// VCS is the wired application shared by subcommands. Nil for init and
	// for the bare root command.
	VCS *app.App
)

var (
	warnColor = color.New(color.FgYellow)
	okColor   = color.New(color.FgGreen)
	errColor  = color.New(color.FgRed, color.Bold)
	hashColor = color.New(color.FgYellow)
)

var rootCmd = &cobra.Command{
	Use:   "vcs",
	Short: "A minimal content-addressed version control system",
	Long: `vcs records snapshots of files as hash-addressed commit records under .vcs.

Stage files with "vcs add", then record them with "vcs commit".`,
	// a missing or unknown command prints usage and exits 0
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeApp()
	},
}

// needsRepo is false for commands that must run without an existing
// repository.
func needsRepo(cmd *cobra.Command) bool {
	if cmd == rootCmd {
		return false
	}
	switch cmd.Name() {
	case "init", "help", "completion":
		return false
	}
	return true
}

func closeApp() error {
	if VCS == nil {
		return nil
	}
	err := VCS.Close()
	VCS = nil
	return err
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		_ = closeApp()
		errColor.Fprint(os.Stderr, "error: ")
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func init() {
	cobra.OnInitialize(initConfig)

	// assigned here rather than in the literal to avoid an initialization
	// cycle (needsRepo compares against rootCmd)
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if !needsRepo(cmd) {
			return nil
		}
		var err error
		VCS, err = app.NewApp(cmd.Context())
		if err != nil {
			return err
		}
		return nil
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .vcs/config.yaml or $HOME/.vcs/config.yaml)")

	rootCmd.PersistentFlags().String("root", "", "repository root (default is the current directory)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")

	bindings := map[string]string{
		"repo.root": "root",
		"log.level": "log-level",
	}
	for key, flag := range bindings {
		if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			fmt.Fprintln(os.Stderr, "Failed to bind flag:", err)
			os.Exit(1)
		}
	}
}

func initConfig() {
	if err := config.Load(cfgFile); err != nil {
		errColor.Fprint(os.Stderr, "config error: ")
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
