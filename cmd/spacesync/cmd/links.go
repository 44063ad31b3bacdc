package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"spacesync/internal/adapters/sqlite"
	"spacesync/internal/application/commands"
)

var (
	linksFrom string
	linksTo   string
)

var linksCmd = &cobra.Command{
	Use:   "links",
	Short: "Report relative links between local pages",
	Long: `Report relative markdown links. Without flags, lists links whose target
is not a local file; these would be pushed as plain links.

Examples:
  spacesync links
  spacesync links --from docs/Guide.md
  spacesync links --to docs/API/README.md`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		index := sqlite.NewIndex(osFs)
		if err := index.Open(cfg.WorkDir); err != nil {
			return err
		}
		defer index.Close()

		result, err := commands.NewLinksCommand(index, commandLogger(), linksFrom, linksTo).Execute(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(result.Edges) == 0 {
			if linksFrom == "" && linksTo == "" {
				fmt.Fprintln(out, "No broken links")
			} else {
				fmt.Fprintln(out, "No links")
			}
			return nil
		}
		for _, e := range result.Edges {
			fmt.Fprintf(out, "%s -> %s\n", e.SourcePath, e.LinkText)
		}
		return nil
	},
}

func init() {
	linksCmd.Flags().StringVar(&linksFrom, "from", "", "list links written in this file")
	linksCmd.Flags().StringVar(&linksTo, "to", "", "list links pointing at this file")
	linksCmd.MarkFlagsMutuallyExclusive("from", "to")
	rootCmd.AddCommand(linksCmd)
}
