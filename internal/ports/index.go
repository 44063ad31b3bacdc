package ports

import "spacesync/internal/domain"

// PageIndex is a persistent cache of scanned front matter and the local link graph.
// It serves as a PageScanner that only re-reads files changed since the last scan.
type PageIndex interface {
	PageScanner

	// Lifecycle
	Open(workDir string) error
	Close() error

	// Sync operations
	NeedsFullRebuild() bool
	SyncIncremental() (*domain.IndexStats, error)
	SyncFull() (*domain.IndexStats, error)

	// Node queries
	GetNode(path string) (*domain.IndexNode, error)
	GetNodeByPageID(pageID string) (*domain.IndexNode, error)

	// Edge queries (link graph)
	FindLinksTo(targetPath string) ([]domain.Edge, error)
	FindLinksFromFile(sourcePath string) ([]domain.Edge, error)
	FindBrokenLinks() ([]domain.Edge, error)

	BeginTx() (IndexTx, error)
}

// IndexTx represents a transaction for atomic cache updates
type IndexTx interface {
	UpsertNode(node *domain.IndexNode) error
	DeleteNode(path string) error

	DeleteEdgesFromFile(sourcePath string) error
	InsertEdge(edge *domain.Edge) error

	Commit() error
	Rollback() error
}
