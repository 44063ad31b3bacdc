package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"spacesync/internal/adapters/browser"
	"spacesync/internal/adapters/editor"
	"spacesync/internal/application/commands"
	"spacesync/internal/ports"
)

var (
	openWeb   bool
	openPrint bool
)

var openCmd = &cobra.Command{
	Use:   "open <page>",
	Short: "Open a synced page in $EDITOR or the browser",
	Long: `Open a tracked page, named by local path, page ID or title.

Examples:
  spacesync open docs/Guide.md
  spacesync open "Getting Started" --web
  spacesync open 123456 --print`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		// the remote is only needed to look up web URLs missing from front matter
		var remote ports.RemoteStore
		if openWeb || openPrint {
			if client, err := remoteClient(); err == nil {
				remote = client
			}
		}

		page, err := commands.NewResolvePageCommand(stateStore(), pageRepo(), remote, args[0]).Execute(cmd.Context())
		if err != nil {
			return err
		}

		switch {
		case openPrint:
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", page.PageID, page.LocalPath, page.WebURL)
			return nil
		case openWeb:
			if page.WebURL == "" {
				return fmt.Errorf("no web URL known for %s: pull it again", page.LocalPath)
			}
			return browser.NewOpener(cfg.BaseURL).OpenURL(page.WebURL)
		default:
			return editor.NewOpener(cfg.WorkDir).OpenFile(page.LocalPath)
		}
	},
}

func init() {
	openCmd.Flags().BoolVarP(&openWeb, "web", "w", false, "open the remote page in the browser")
	openCmd.Flags().BoolVarP(&openPrint, "print", "p", false, "print the page ID, path and URL instead of opening")
	openCmd.MarkFlagsMutuallyExclusive("web", "print")
	rootCmd.AddCommand(openCmd)
}
