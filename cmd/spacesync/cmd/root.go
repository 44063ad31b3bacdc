package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"spacesync/internal/adapters/convert"
	"spacesync/internal/adapters/filesystem"
	"spacesync/internal/adapters/remote"
	"spacesync/internal/adapters/tui"
	"spacesync/internal/application"
	"spacesync/internal/config"
	"spacesync/internal/domain"
	"spacesync/internal/logging"
	"spacesync/internal/ports"
)

var (
	workDirFlag string
	configFile  string
	verbose     bool
	quiet       bool

	cfg    *config.Config
	logger *logging.Logger
	osFs   afero.Fs = afero.NewOsFs()
)

var rootCmd = &cobra.Command{
	Use:   "spacesync",
	Short: "Synchronize a remote documentation space with a local markdown directory",
	Long: `spacesync mirrors a remote space (pages and folders) into a directory of
markdown files with YAML front matter, and pushes local edits back.

Configuration comes from $XDG_CONFIG_HOME/spacesync/config.yaml and
SPACESYNC_* environment variables (SPACESYNC_BASE_URL, SPACESYNC_EMAIL,
SPACESYNC_API_TOKEN, ...).`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip initialization for help commands
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}

		var err error
		cfg, err = config.Load(configFile)
		if err != nil {
			return err
		}
		if workDirFlag != "" {
			cfg.WorkDir = workDirFlag
		}
		abs, err := filepath.Abs(filesystem.ExpandHome(cfg.WorkDir))
		if err != nil {
			return fmt.Errorf("invalid working directory: %w", err)
		}
		cfg.WorkDir = abs

		level := cfg.LogLevel
		switch {
		case verbose:
			level = "debug"
		case quiet:
			level = "error"
		}
		logger, err = logging.New(logging.Options{
			Level:   level,
			File:    cfg.LogFile,
			Console: os.Stderr,
			NoColor: !term.IsTerminal(int(os.Stderr.Fd())),
		})
		return err
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if logger != nil {
			return logger.Close()
		}
		return nil
	},
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		if errors.Is(err, application.ErrUnauthorized) {
			fmt.Fprintln(os.Stderr, "Check SPACESYNC_EMAIL and SPACESYNC_API_TOKEN.")
		}
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&workDirFlag, "dir", "d", "", "working directory (default from config, else the current directory)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default $XDG_CONFIG_HOME/spacesync/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "log errors only")
	rootCmd.MarkFlagsMutuallyExclusive("verbose", "quiet")
}

// commandLogger returns the command logger
func commandLogger() zerolog.Logger {
	if logger == nil {
		return zerolog.Nop()
	}
	return logger.Logger
}

func stateStore() *filesystem.StateStore {
	return filesystem.NewStateStore(osFs, cfg.WorkDir)
}

func pageRepo() *filesystem.Repository {
	return filesystem.NewRepository(osFs, cfg.WorkDir)
}

// remoteClient builds the HTTP client, failing when the remote is not configured
func remoteClient() (*remote.Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return remote.NewClient(remote.Options{
		BaseURL:    cfg.BaseURL,
		Email:      cfg.Email,
		APIToken:   cfg.APIToken,
		Timeout:    cfg.Timeout,
		MaxRetries: cfg.MaxRetries,
		Logger:     commandLogger(),
	}), nil
}

func converter() ports.Converter {
	return convert.New()
}

func interactive() bool {
	return !quiet && term.IsTerminal(int(os.Stdout.Fd()))
}

// runWithProgress shows the progress view on a terminal and logs progress otherwise
func runWithProgress(ctx context.Context, title string, run tui.RunFunc) (*domain.SyncResult, error) {
	if interactive() {
		return tui.Run(ctx, title, os.Stdout, run)
	}
	return run(ctx, logging.NewProgressLogger(commandLogger()))
}

// printResult writes warnings and errors and fails when any page failed
func printResult(cmd *cobra.Command, result *domain.SyncResult, dryRun bool) error {
	out := cmd.OutOrStdout()
	if result == nil {
		return nil
	}

	if dryRun {
		for _, c := range result.Changes.Changes() {
			fmt.Fprintf(out, "%-8s %s (%s)\n", c.Type, c.LocalPath, c.PageID)
		}
	}
	if !quiet {
		for _, w := range result.Warnings {
			fmt.Fprintf(out, "warning: %s\n", w)
		}
	}
	for _, e := range result.Errors {
		fmt.Fprintf(cmd.ErrOrStderr(), "error: %s\n", e)
	}
	fmt.Fprintln(out, result.Summary())

	if !result.Success {
		return fmt.Errorf("%d page(s) failed", len(result.Errors))
	}
	return nil
}
