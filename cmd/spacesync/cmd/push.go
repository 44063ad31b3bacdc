package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"spacesync/internal/application/commands"
	"spacesync/internal/domain"
	"spacesync/internal/ports"
)

var pushDryRun bool

var pushCmd = &cobra.Command{
	Use:   "push [page...]",
	Short: "Push local edits to the remote space",
	Long: `Push tracked pages whose body changed since the last pull or push. A page
edited remotely in the meantime is reported as a conflict; pull it first.

Examples:
  spacesync push
  spacesync push docs/Guide.md --dry-run`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := remoteClient()
		if err != nil {
			return err
		}

		opts := commands.PushOptions{WorkDir: cfg.WorkDir, DryRun: pushDryRun, Pages: args}
		run := func(ctx context.Context, sink ports.ProgressSink) (*domain.SyncResult, error) {
			return commands.NewPushCommand(client, converter(), stateStore(), pageRepo(), sink, commandLogger(), opts).Execute(ctx)
		}

		result, err := runWithProgress(cmd.Context(), "Pushing "+cfg.WorkDir, run)
		if err != nil {
			return err
		}
		return printResult(cmd, result, pushDryRun)
	},
}

func init() {
	pushCmd.Flags().BoolVarP(&pushDryRun, "dry-run", "n", false, "show what would be pushed without contacting the remote for writes")
	rootCmd.AddCommand(pushCmd)
}
