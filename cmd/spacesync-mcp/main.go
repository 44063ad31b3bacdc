package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/afero"

	"spacesync/internal/adapters/convert"
	"spacesync/internal/adapters/filesystem"
	mcpadapter "spacesync/internal/adapters/mcp"
	"spacesync/internal/adapters/remote"
	"spacesync/internal/adapters/sqlite"
	"spacesync/internal/config"
	"spacesync/internal/logging"
)

func main() {
	dirFlag := flag.String("dir", "", "working directory (default from config)")
	configFlag := flag.String("config", "", "config file")
	flag.Parse()

	if err := run(*dirFlag, *configFlag); err != nil {
		fmt.Fprintf(os.Stderr, "spacesync-mcp: %v\n", err)
		os.Exit(1)
	}
}

func run(dir, configFile string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	if dir != "" {
		cfg.WorkDir = dir
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	workDir, err := filepath.Abs(filesystem.ExpandHome(cfg.WorkDir))
	if err != nil {
		return fmt.Errorf("invalid working directory: %w", err)
	}

	// stdout carries the protocol; logs go to stderr and the optional file
	logger, err := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile, Console: os.Stderr, NoColor: true})
	if err != nil {
		return err
	}
	defer logger.Close()

	fsys := afero.NewOsFs()
	deps := mcpadapter.Deps{
		WorkDir: workDir,
		Remote: remote.NewClient(remote.Options{
			BaseURL:    cfg.BaseURL,
			Email:      cfg.Email,
			APIToken:   cfg.APIToken,
			Timeout:    cfg.Timeout,
			MaxRetries: cfg.MaxRetries,
			Logger:     logger.Logger,
		}),
		Converter: convert.New(),
		State:     filesystem.NewStateStore(fsys, workDir),
		Pages:     filesystem.NewRepository(fsys, workDir),
		Logger:    logger.Logger,
	}

	index := sqlite.NewIndex(fsys)
	if err := index.Open(workDir); err != nil {
		logger.Warn().Err(err).Msg("page index unavailable, links tool disabled")
	} else {
		defer index.Close()
		deps.Index = index
	}

	mcpServer := server.NewMCPServer(
		"spacesync-mcp",
		"0.1.0",
		server.WithToolCapabilities(true),
	)

	mcpServer.AddTool(
		mcp.NewTool("ping",
			mcp.WithDescription("Health check, returns pong"),
		),
		func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultText("pong"), nil
		},
	)

	mcpadapter.RegisterTools(mcpServer, deps)

	logger.Info().Str("dir", workDir).Msg("serving MCP on stdio")
	return server.ServeStdio(mcpServer)
}
