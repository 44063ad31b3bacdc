package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"spacesync/internal/adapters/sqlite"
	"spacesync/internal/application/commands"
	"spacesync/internal/domain"
	"spacesync/internal/ports"
)

var (
	pullDryRun bool
	pullForce  bool
	pullDepth  int
)

var pullCmd = &cobra.Command{
	Use:   "pull [page...]",
	Short: "Pull remote changes into the working directory",
	Long: `Pull added, modified and deleted pages from the remote space. Pages may
be named by local path or page ID to pull only those.

Examples:
  spacesync pull
  spacesync pull --dry-run
  spacesync pull docs/Guide.md 123456`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := remoteClient()
		if err != nil {
			return err
		}

		// the sqlite index avoids re-reading unchanged files; fall back to a full scan without it
		var scanner ports.PageScanner
		index := sqlite.NewIndex(osFs)
		if err := index.Open(cfg.WorkDir); err != nil {
			logger := commandLogger()
			logger.Warn().Err(err).Msg("page index unavailable, scanning files")
		} else {
			defer index.Close()
			scanner = index
		}

		opts := commands.SyncOptions{
			WorkDir:       cfg.WorkDir,
			DryRun:        pullDryRun,
			Force:         pullForce,
			Depth:         pullDepth,
			SpecificPages: args,
		}
		run := func(ctx context.Context, sink ports.ProgressSink) (*domain.SyncResult, error) {
			syncCmd := commands.NewSyncCommand(client, converter(), stateStore(), pageRepo(), sink, commandLogger(), opts)
			if scanner != nil {
				syncCmd = syncCmd.WithScanner(scanner)
			}
			return syncCmd.Execute(ctx)
		}

		result, err := runWithProgress(cmd.Context(), "Pulling "+cfg.WorkDir, run)
		if err != nil {
			return err
		}
		return printResult(cmd, result, pullDryRun)
	},
}

func init() {
	pullCmd.Flags().BoolVarP(&pullDryRun, "dry-run", "n", false, "show what would change without writing files")
	pullCmd.Flags().BoolVarP(&pullForce, "force", "f", false, "re-pull pages even when versions match")
	pullCmd.Flags().IntVar(&pullDepth, "depth", 0, "limit the tree depth (0 = unlimited)")
	rootCmd.AddCommand(pullCmd)
}
