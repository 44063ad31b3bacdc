package commands

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"spacesync/internal/domain"
	"spacesync/internal/ports"
)

// LinksResult lists links found in the local link graph
type LinksResult struct {
	Edges []domain.Edge
	Stats *domain.IndexStats
}

// LinksCommand refreshes the page index and reports links. With neither File nor
// Target set it reports relative links that no local file owns.
type LinksCommand struct {
	index  ports.PageIndex
	logger zerolog.Logger
	File   string // links written in this file
	Target string // links pointing at this file
}

// NewLinksCommand creates a new LinksCommand
func NewLinksCommand(index ports.PageIndex, logger zerolog.Logger, file, target string) *LinksCommand {
	return &LinksCommand{index: index, logger: logger, File: file, Target: target}
}

// Execute runs the links command
func (c *LinksCommand) Execute(ctx context.Context) (*LinksResult, error) {
	if c.File != "" && c.Target != "" {
		return nil, fmt.Errorf("file and target are mutually exclusive")
	}

	var stats *domain.IndexStats
	var err error
	if c.index.NeedsFullRebuild() {
		stats, err = c.index.SyncFull()
	} else {
		stats, err = c.index.SyncIncremental()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to refresh page index: %w", err)
	}
	c.logger.Debug().
		Int("scanned", stats.FilesScanned).
		Int("edges", stats.EdgesAdded).
		Dur("took", stats.Duration).
		Msg("page index refreshed")

	var edges []domain.Edge
	switch {
	case c.File != "":
		edges, err = c.index.FindLinksFromFile(domain.NormalizeLocalPath(c.File))
	case c.Target != "":
		edges, err = c.index.FindLinksTo(domain.NormalizeLocalPath(c.Target))
	default:
		edges, err = c.index.FindBrokenLinks()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query links: %w", err)
	}

	return &LinksResult{Edges: edges, Stats: stats}, nil
}
