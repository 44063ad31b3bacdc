package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"spacesync/internal/application/commands"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init <space-key>",
	Short: "Bind the working directory to a remote space",
	Long: `Bind the working directory to a remote space. The state is written to
.spacesync/state.json; run 'spacesync pull' afterwards to fetch pages.

Examples:
  spacesync init DOCS
  spacesync --dir ~/docs init DOCS --force`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := remoteClient()
		if err != nil {
			return err
		}

		initCmd := commands.NewInitCommand(client, stateStore(), commandLogger(), args[0], initForce)
		result, err := initCmd.Execute(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), result.Message)
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "re-initialize an existing working directory")
	rootCmd.AddCommand(initCmd)
}
