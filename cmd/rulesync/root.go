package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/arthur-debert/rulesync/internal/version"
	"github.com/arthur-debert/rulesync/pkg/commands/check"
	"github.com/arthur-debert/rulesync/pkg/commands/preview"
	"github.com/arthur-debert/rulesync/pkg/commands/sync"
	"github.com/arthur-debert/rulesync/pkg/display"
	"github.com/arthur-debert/rulesync/pkg/logging"
)

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	var (
		verbosity int
		repoRoot  string
	)

	rootCmd := &cobra.Command{
		Use:     "rulesync",
		Short:   MsgRootShort,
		Long:    MsgRootLong,
		Version: version.Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return fmt.Errorf("no command specified")
		},
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}

	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", MsgFlagVerbose)
	rootCmd.PersistentFlags().StringVar(&repoRoot, "root", "", MsgFlagRoot)

	rootCmd.AddCommand(newSyncCmd(&repoRoot, &verbosity))
	rootCmd.AddCommand(newCheckCmd(&repoRoot, &verbosity))
	rootCmd.AddCommand(newPreviewCmd(&repoRoot))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newSyncCmd(repoRoot *string, verbosity *int) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: MsgSyncShort,
		Long:  MsgSyncLong,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := sync.Sync(sync.Options{
				RepoRoot: *repoRoot,
				DryRun:   dryRun,
			})
			if err != nil {
				return err
			}

			display.NewRenderer(cmd.OutOrStdout()).RenderSyncResult(result, *verbosity > 0)

			if failed := result.Failures(); len(failed) > 0 {
				return fmt.Errorf("%d entries failed", len(failed))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, MsgFlagDryRun)
	return cmd
}

func newCheckCmd(repoRoot *string, verbosity *int) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: MsgCheckShort,
		Long:  MsgCheckLong,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := check.Check(check.Options{RepoRoot: *repoRoot})
			if err != nil {
				return err
			}

			display.NewRenderer(cmd.OutOrStdout()).RenderDriftReport(report, *verbosity > 0)

			if !report.Clean() {
				return fmt.Errorf("drift detected")
			}
			return nil
		},
	}
}

func newPreviewCmd(repoRoot *string) *cobra.Command {
	var plain bool

	cmd := &cobra.Command{
		Use:   "preview <source>",
		Short: MsgPreviewShort,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rendered, err := preview.Preview(preview.Options{
				RepoRoot: *repoRoot,
				Source:   args[0],
				Plain:    plain,
			})
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), rendered)
			return nil
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, MsgFlagPlain)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "rulesync version %s\n", version.Version)
			fmt.Fprintf(cmd.OutOrStdout(), "  commit: %s\n", version.Commit)
			fmt.Fprintf(cmd.OutOrStdout(), "  built:  %s\n", version.Date)
		},
	}
}
