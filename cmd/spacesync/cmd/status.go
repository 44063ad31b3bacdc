package cmd

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"spacesync/internal/adapters/tui/styles"
	"spacesync/internal/application/commands"
	"spacesync/internal/domain"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show local changes since the last sync",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := commands.NewStatusCommand(stateStore(), pageRepo()).Execute(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s (%s)\n", result.SpaceName, result.SpaceKey)
		if result.LastSyncAt != nil {
			fmt.Fprintf(out, "Last sync: %s\n", result.LastSyncAt.Local().Format(time.RFC1123))
		} else {
			fmt.Fprintln(out, "Never synced")
		}
		fmt.Fprintf(out, "%d tracked pages\n", result.Tracked)

		if result.IsClean() {
			fmt.Fprintln(out, "Nothing to push")
			return nil
		}
		printPaths(cmd, "Modified", styles.ChangeStyle(domain.ChangeModified.String()), result.Modified)
		printPaths(cmd, "Missing", styles.ChangeStyle(domain.ChangeDeleted.String()), result.Missing)
		printPaths(cmd, "Untracked", styles.WarningMsg, result.Untracked)
		return nil
	},
}

func printPaths(cmd *cobra.Command, heading string, style lipgloss.Style, paths []string) {
	if len(paths) == 0 {
		return
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\n%s:\n", heading)
	for _, p := range paths {
		if interactive() {
			p = style.Render(p)
		}
		fmt.Fprintf(out, "  %s\n", p)
	}
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
