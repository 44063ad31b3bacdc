package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"spacesync/internal/application/commands"
	"spacesync/internal/ports"
)

// RegisterWriteTools adds the tools that change local files or remote pages
func RegisterWriteTools(s *server.MCPServer, deps Deps) {
	s.AddTool(pullTool(), pullHandler(deps))
	s.AddTool(pushTool(), pushHandler(deps))
}

// --- pull ---

func pullTool() mcp.Tool {
	return mcp.NewTool("pull",
		mcp.WithDescription("Pull remote changes into the working directory. Remote folders are mirrored as directories."),
		mcp.WithString("pages",
			mcp.Description("Comma-separated page IDs or local paths to pull; omit to pull the whole space"),
		),
		mcp.WithBoolean("force",
			mcp.Description("Re-pull pages even when the version is unchanged"),
		),
		mcp.WithNumber("depth",
			mcp.Description("Only pull pages up to this tree depth (0 or omitted for all)"),
		),
	)
}

func pullHandler(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		cmd := commands.NewSyncCommand(deps.Remote, deps.Converter, deps.State, deps.Pages,
			ports.NopProgress{}, deps.Logger, commands.SyncOptions{
				WorkDir:       deps.WorkDir,
				Force:         req.GetBool("force", false),
				Depth:         req.GetInt("depth", 0),
				SpecificPages: splitList(req.GetString("pages", "")),
			})
		if deps.Index != nil {
			cmd.WithScanner(deps.Index)
		}

		result, err := cmd.Execute(ctx)
		if err != nil {
			if result != nil {
				return mcp.NewToolResultError(formatResult(result, false) + err.Error()), nil
			}
			return toolError(err)
		}
		return mcp.NewToolResultText(formatResult(result, false)), nil
	}
}

// --- push ---

func pushTool() mcp.Tool {
	return mcp.NewTool("push",
		mcp.WithDescription("Push locally edited pages to the remote. A page changed remotely since the last pull is reported as a conflict."),
		mcp.WithString("pages",
			mcp.Description("Comma-separated page IDs or local paths to push; omit to push every modified page"),
		),
		mcp.WithBoolean("dry_run",
			mcp.Description("Report what would be pushed without uploading"),
		),
	)
}

func pushHandler(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dryRun := req.GetBool("dry_run", false)
		cmd := commands.NewPushCommand(deps.Remote, deps.Converter, deps.State, deps.Pages,
			ports.NopProgress{}, deps.Logger, commands.PushOptions{
				WorkDir: deps.WorkDir,
				DryRun:  dryRun,
				Pages:   splitList(req.GetString("pages", "")),
			})

		result, err := cmd.Execute(ctx)
		if err != nil {
			if result != nil {
				return mcp.NewToolResultError(formatResult(result, dryRun) + err.Error()), nil
			}
			return toolError(err)
		}
		return mcp.NewToolResultText(formatResult(result, dryRun)), nil
	}
}
