// Package mcp exposes sync operations as MCP tools.
package mcp

import (
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"spacesync/internal/domain"
	"spacesync/internal/ports"
)

// Deps are the collaborators the tools run commands with
type Deps struct {
	WorkDir   string
	Remote    ports.RemoteStore
	Converter ports.Converter
	State     ports.StateStore
	Pages     ports.PageRepository
	Index     ports.PageIndex // optional; enables the links tool
	Logger    zerolog.Logger
}

// RegisterTools adds every tool to the MCP server
func RegisterTools(s *server.MCPServer, deps Deps) {
	RegisterReadTools(s, deps)
	RegisterWriteTools(s, deps)
}

// --- helpers ---

func toolError(err error) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(err.Error()), nil
}

func formatResult(result *domain.SyncResult, dryRun bool) string {
	var sb strings.Builder
	if dryRun {
		sb.WriteString("Dry run: nothing was written.\n")
	}
	sb.WriteString(result.Summary())
	sb.WriteByte('\n')

	for _, c := range result.Changes.Changes() {
		name := c.Title
		if c.LocalPath != "" {
			name = fmt.Sprintf("%s (%s)", c.Title, c.LocalPath)
		}
		fmt.Fprintf(&sb, "  %-8s %s  %s\n", c.Type, c.PageID, name)
	}
	writeList(&sb, "Warnings", result.Warnings)
	writeList(&sb, "Errors", result.Errors)
	return sb.String()
}

func writeList(sb *strings.Builder, heading string, lines []string) {
	if len(lines) == 0 {
		return
	}
	fmt.Fprintf(sb, "%s:\n", heading)
	for _, l := range lines {
		fmt.Fprintf(sb, "  - %s\n", l)
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
