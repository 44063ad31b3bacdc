package commands

import (
	"context"
	"fmt"
	"sort"
	"time"

	"spacesync/internal/application"
	"spacesync/internal/domain"
	"spacesync/internal/ports"
)

// StatusResult is a local-only view of the working directory
type StatusResult struct {
	SpaceKey   string
	SpaceName  string
	LastSyncAt *time.Time
	Tracked    int
	Modified   []string // tracked files whose body changed since the last pull or push
	Missing    []string // tracked files that no longer exist
	Untracked  []string // markdown files the state does not know
}

// IsClean reports whether nothing needs pushing or pulling back
func (r *StatusResult) IsClean() bool {
	return len(r.Modified) == 0 && len(r.Missing) == 0 && len(r.Untracked) == 0
}

// StatusCommand compares the working directory with the state file without
// contacting the remote
type StatusCommand struct {
	store ports.StateStore
	pages ports.PageRepository
}

// NewStatusCommand creates a new StatusCommand
func NewStatusCommand(store ports.StateStore, pages ports.PageRepository) *StatusCommand {
	return &StatusCommand{store: store, pages: pages}
}

// Execute runs the status command
func (c *StatusCommand) Execute(ctx context.Context) (*StatusResult, error) {
	if !c.store.Exists() {
		return nil, application.ErrStateNotFound
	}
	state, err := c.store.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}
	state.Normalize()

	result := &StatusResult{
		SpaceKey:   state.RemoteRootKey,
		SpaceName:  state.RemoteRootName,
		LastSyncAt: state.LastSyncAt,
		Tracked:    len(state.Pages),
	}

	tracked := make(map[string]bool, len(state.Pages))
	for _, link := range state.Pages {
		localPath := domain.NormalizeLocalPath(link.LocalPath)
		tracked[localPath] = true

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !c.pages.Exists(localPath) {
			result.Missing = append(result.Missing, localPath)
			continue
		}
		_, body, err := c.pages.Read(localPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", localPath, err)
		}
		if domain.ContentHash(body) != link.ContentHash {
			result.Modified = append(result.Modified, localPath)
		}
	}

	files, err := c.pages.ListMarkdown()
	if err != nil {
		return nil, fmt.Errorf("failed to list local pages: %w", err)
	}
	for _, f := range files {
		if !tracked[domain.NormalizeLocalPath(f)] {
			result.Untracked = append(result.Untracked, f)
		}
	}

	sort.Strings(result.Modified)
	sort.Strings(result.Missing)
	sort.Strings(result.Untracked)
	return result, nil
}
