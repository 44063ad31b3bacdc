package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"spacesync/internal/application/commands"
	"spacesync/internal/ports"
)

// RegisterReadTools adds the tools that never write locally or remotely
func RegisterReadTools(s *server.MCPServer, deps Deps) {
	s.AddTool(statusTool(), statusHandler(deps))
	s.AddTool(diffTool(), diffHandler(deps))
	s.AddTool(resolveLinkTool(), resolveLinkHandler(deps))
	if deps.Index != nil {
		s.AddTool(linksTool(), linksHandler(deps))
	}
}

// --- status ---

func statusTool() mcp.Tool {
	return mcp.NewTool("status",
		mcp.WithDescription("Show the synced space and which local files were modified, are missing, or are untracked. Does not contact the remote."),
	)
}

func statusHandler(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		status, err := commands.NewStatusCommand(deps.State, deps.Pages).Execute(ctx)
		if err != nil {
			return toolError(err)
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "Space: %s (%s)\n", status.SpaceName, status.SpaceKey)
		if status.LastSyncAt != nil {
			fmt.Fprintf(&sb, "Last sync: %s\n", status.LastSyncAt.Format(time.RFC3339))
		} else {
			sb.WriteString("Last sync: never\n")
		}
		fmt.Fprintf(&sb, "Tracked pages: %d\n", status.Tracked)
		writeList(&sb, "Modified", status.Modified)
		writeList(&sb, "Missing", status.Missing)
		writeList(&sb, "Untracked", status.Untracked)
		if status.IsClean() {
			sb.WriteString("Working directory is clean.\n")
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

// --- diff ---

func diffTool() mcp.Tool {
	return mcp.NewTool("diff",
		mcp.WithDescription("Preview what a pull would change: pages added, modified, or deleted remotely since the last sync. Writes nothing."),
		mcp.WithNumber("depth",
			mcp.Description("Only consider pages up to this tree depth (0 or omitted for all)"),
		),
	)
}

func diffHandler(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		cmd := commands.NewSyncCommand(deps.Remote, deps.Converter, deps.State, deps.Pages,
			ports.NopProgress{}, deps.Logger, commands.SyncOptions{
				WorkDir: deps.WorkDir,
				DryRun:  true,
				Depth:   req.GetInt("depth", 0),
			})
		if deps.Index != nil {
			cmd.WithScanner(deps.Index)
		}

		result, err := cmd.Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(formatResult(result, true)), nil
	}
}

// --- resolve_link ---

func resolveLinkTool() mcp.Tool {
	return mcp.NewTool("resolve_link",
		mcp.WithDescription("Resolve a page by ID, local path, or title to its local file and web URL."),
		mcp.WithString("ref",
			mcp.Description("Page ID, path relative to the working directory, or exact page title"),
			mcp.Required(),
		),
	)
}

func resolveLinkHandler(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ref := req.GetString("ref", "")
		if ref == "" {
			return toolError(fmt.Errorf("ref is required"))
		}

		page, err := commands.NewResolvePageCommand(deps.State, deps.Pages, deps.Remote, ref).Execute(ctx)
		if err != nil {
			return toolError(err)
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "Page ID: %s\n", page.PageID)
		fmt.Fprintf(&sb, "Title: %s\n", page.Title)
		fmt.Fprintf(&sb, "Local path: %s\n", page.LocalPath)
		if page.WebURL != "" {
			fmt.Fprintf(&sb, "URL: %s\n", page.WebURL)
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

// --- links ---

func linksTool() mcp.Tool {
	return mcp.NewTool("links",
		mcp.WithDescription("List relative markdown links. Without arguments lists links whose target file does not exist."),
		mcp.WithString("file",
			mcp.Description("List links written in this file"),
		),
		mcp.WithString("target",
			mcp.Description("List links pointing at this file"),
		),
	)
}

func linksHandler(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		cmd := commands.NewLinksCommand(deps.Index, deps.Logger, req.GetString("file", ""), req.GetString("target", ""))
		result, err := cmd.Execute(ctx)
		if err != nil {
			return toolError(err)
		}

		if len(result.Edges) == 0 {
			return mcp.NewToolResultText("No links found."), nil
		}
		var sb strings.Builder
		for _, e := range result.Edges {
			fmt.Fprintf(&sb, "%s -> %s  (%s)\n", e.SourcePath, e.TargetPath, e.LinkText)
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}
