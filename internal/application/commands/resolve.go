package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"spacesync/internal/application"
	"spacesync/internal/domain"
	"spacesync/internal/ports"
)

// ResolvedPage is a tracked page located both locally and remotely
type ResolvedPage struct {
	PageID    string
	Title     string
	LocalPath string
	AbsPath   string
	WebURL    string
}

// ResolvePageCommand finds a tracked page by ID, local path or title
type ResolvePageCommand struct {
	store  ports.StateStore
	pages  ports.PageRepository
	remote ports.RemoteStore // optional, used when front matter has no URL
	Ref    string
}

// NewResolvePageCommand creates a new ResolvePageCommand
func NewResolvePageCommand(store ports.StateStore, pages ports.PageRepository, remote ports.RemoteStore, ref string) *ResolvePageCommand {
	return &ResolvePageCommand{store: store, pages: pages, remote: remote, Ref: ref}
}

// Validate checks if the reference is usable
func (c *ResolvePageCommand) Validate() error {
	return application.ValidateRequired("pageRef", c.Ref)
}

// Execute runs the resolve command
func (c *ResolvePageCommand) Execute(ctx context.Context) (*ResolvedPage, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if !c.store.Exists() {
		return nil, application.ErrStateNotFound
	}
	state, err := c.store.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}
	state.Normalize()

	cache, _, err := c.pages.Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to scan local pages: %w", err)
	}

	ids, _ := domain.ResolveSpecificPages([]string{c.Ref}, state, cache)
	pageID := ""
	if len(ids) == 1 {
		pageID = ids[0]
	} else {
		lookup, _ := domain.BuildLookupMap(cache, false)
		if info, ok := lookup.TitleToPage[c.Ref]; ok {
			if _, tracked := state.Pages[info.PageID]; tracked {
				pageID = info.PageID
			}
		}
	}
	if pageID == "" {
		return nil, fmt.Errorf("page %q: %w", c.Ref, application.ErrNotFound)
	}

	link := state.Pages[pageID]
	page := &ResolvedPage{
		PageID:    pageID,
		Title:     cache.Pages[pageID].Title,
		LocalPath: link.LocalPath,
		AbsPath:   filepath.Join(c.pages.Root(), filepath.FromSlash(link.LocalPath)),
	}
	if page.Title == "" {
		page.Title = domain.TitleFromPath(link.LocalPath)
	}

	if c.pages.Exists(link.LocalPath) {
		if meta, _, err := c.pages.Read(link.LocalPath); err == nil {
			page.WebURL = meta.URL
		}
	}
	if page.WebURL == "" && c.remote != nil {
		doc, err := c.remote.FetchContent(ctx, pageID)
		if err != nil {
			return page, fmt.Errorf("failed to look up web URL: %w", err)
		}
		page.WebURL = doc.WebURL
	}

	return page, nil
}
