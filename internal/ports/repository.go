package ports

import (
	"context"

	"spacesync/internal/domain"
)

// StateStore persists the SpaceState of one working directory
type StateStore interface {
	Exists() bool
	Load() (*domain.SpaceState, error)
	Save(state *domain.SpaceState) error
}

// PageScanner builds the page state cache from local front matter.
// Files that cannot be parsed are reported as warnings.
type PageScanner interface {
	Scan(ctx context.Context) (*domain.PageStateCache, []string, error)
}

// PageRepository reads and writes synced markdown files.
// Paths are slash paths relative to Root.
type PageRepository interface {
	PageScanner

	Root() string
	Exists(localPath string) bool
	Read(localPath string) (domain.PageMeta, string, error)
	Write(localPath string, meta domain.PageMeta, body string) error
	Remove(localPath string) error

	// ListMarkdown returns every markdown file outside the state directory, sorted
	ListMarkdown() ([]string, error)
}
