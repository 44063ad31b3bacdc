package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"spacesync/internal/adapters/filesystem"
	"spacesync/internal/application"
	"spacesync/internal/application/commands"
	"spacesync/internal/logging"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Push markdown files as they are saved",
	Long: `Watch the working directory and push changed tracked pages after a quiet
period. Stop with Ctrl+C.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := remoteClient()
		if err != nil {
			return err
		}
		if !stateStore().Exists() {
			return application.ErrStateNotFound
		}

		logger := commandLogger()
		watcher, err := filesystem.NewWatcher(cfg.WorkDir, watchDebounce, logger)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		progress := logging.NewProgressLogger(logger)
		fmt.Fprintf(cmd.OutOrStdout(), "Watching %s\n", cfg.WorkDir)

		return watcher.Run(ctx, func(paths []string) {
			if ctx.Err() != nil {
				return
			}
			logger.Debug().Strs("paths", paths).Msg("changes detected")

			pushCmd := commands.NewPushCommand(client, converter(), stateStore(), pageRepo(), progress, logger,
				commands.PushOptions{WorkDir: cfg.WorkDir, Pages: paths, ChangedOnly: true})
			result, err := pushCmd.Execute(context.WithoutCancel(ctx))
			if err != nil {
				logger.Error().Err(err).Msg("push failed")
				return
			}
			for _, w := range result.Warnings {
				logger.Warn().Msg(w)
			}
			for _, e := range result.Errors {
				logger.Error().Msg(e)
			}
			if result.Applied > 0 {
				logger.Info().Msg(result.Summary())
			}
		})
	},
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", filesystem.DefaultDebounce, "quiet period before pushing")
	rootCmd.AddCommand(watchCmd)
}
