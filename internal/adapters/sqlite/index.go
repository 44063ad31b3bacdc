package sqlite

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"spacesync/internal/domain"
	"spacesync/internal/ports"

	_ "modernc.org/sqlite"
)

const schemaVersion = "1"

// Index implements ports.PageIndex using SQLite
type Index struct {
	fs      afero.Fs
	db      *sql.DB
	workDir string
	dbPath  string
}

// Ensure Index implements PageIndex
var _ ports.PageIndex = (*Index)(nil)

// NewIndex creates a new SQLite index reading pages from fsys
func NewIndex(fsys afero.Fs) *Index {
	return &Index{fs: fsys}
}

// Open initializes the index for the given working directory
func (idx *Index) Open(workDir string) error {
	// Expand ~ in path
	if len(workDir) > 0 && workDir[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		workDir = filepath.Join(home, workDir[1:])
	}

	idx.workDir = workDir
	idx.dbPath = databasePath(workDir)

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(idx.dbPath), 0755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", idx.dbPath+"?_journal_mode=WAL")
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	idx.db = db

	_, err = db.Exec(`
		PRAGMA synchronous = NORMAL;
		PRAGMA cache_size = -64000;
		PRAGMA temp_store = MEMORY;
		PRAGMA busy_timeout = 5000;

		CREATE TABLE IF NOT EXISTS nodes (
			path TEXT PRIMARY KEY,
			page_id TEXT,
			title TEXT NOT NULL DEFAULT '',
			version INTEGER NOT NULL DEFAULT 0,
			mtime INTEGER NOT NULL,
			size INTEGER NOT NULL DEFAULT 0,
			parse_error TEXT NOT NULL DEFAULT ''
		);
		CREATE TABLE IF NOT EXISTS edges (
			source_path TEXT NOT NULL,
			target_path TEXT NOT NULL,
			link_text TEXT NOT NULL,
			PRIMARY KEY (source_path, link_text)
		);
		CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_nodes_page_id ON nodes(page_id);
		CREATE INDEX IF NOT EXISTS idx_edges_target ON edges(target_path);
		CREATE INDEX IF NOT EXISTS idx_edges_source ON edges(source_path);
	`)
	if err != nil {
		db.Close()
		return fmt.Errorf("failed to setup database: %w", err)
	}

	return nil
}

// Close closes the database connection
func (idx *Index) Close() error {
	if idx.db != nil {
		return idx.db.Close()
	}
	return nil
}

// NeedsFullRebuild returns true if the index should be fully rebuilt
func (idx *Index) NeedsFullRebuild() bool {
	var version, rootHash string

	idx.db.QueryRow("SELECT value FROM meta WHERE key = 'schema_version'").Scan(&version)
	idx.db.QueryRow("SELECT value FROM meta WHERE key = 'root_path_hash'").Scan(&rootHash)

	return version != schemaVersion || rootHash != hashRootPath(idx.workDir)
}

// databasePath returns the path for the SQLite database
func databasePath(workDir string) string {
	// XDG data directory
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}

	return filepath.Join(dataHome, "spacesync", hashRootPath(workDir)+".db")
}

// hashRootPath returns a short hash of the working directory
func hashRootPath(workDir string) string {
	h := sha256.Sum256([]byte(workDir))
	return hex.EncodeToString(h[:8]) // First 8 bytes = 16 hex chars
}

// updateMeta records the schema version and working directory hash
func (idx *Index) updateMeta() error {
	_, err := idx.db.Exec(
		`INSERT OR REPLACE INTO meta (key, value) VALUES ('schema_version', ?), ('root_path_hash', ?)`,
		schemaVersion, hashRootPath(idx.workDir),
	)
	return err
}

// Scan refreshes the index and builds the page state cache from it
func (idx *Index) Scan(ctx context.Context) (*domain.PageStateCache, []string, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	var err error
	if idx.NeedsFullRebuild() {
		_, err = idx.SyncFull()
	} else {
		_, err = idx.SyncIncremental()
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to refresh page index: %w", err)
	}

	rows, err := idx.db.QueryContext(ctx, `
		SELECT path, page_id, title, version, parse_error
		FROM nodes ORDER BY path
	`)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	cache := domain.NewPageStateCache()
	var warnings []string
	for rows.Next() {
		var p, title, parseErr string
		var pageID sql.NullString
		var version int
		if err := rows.Scan(&p, &pageID, &title, &version, &parseErr); err != nil {
			return nil, nil, err
		}

		if parseErr != "" {
			warnings = append(warnings, fmt.Sprintf("Skipping %s: %s", p, parseErr))
			continue
		}
		if !pageID.Valid || pageID.String == "" {
			continue
		}
		if existing, ok := cache.Pages[pageID.String]; ok {
			warnings = append(warnings, fmt.Sprintf("Page %s is claimed by both %s and %s; using %s",
				pageID.String, existing.LocalPath, p, existing.LocalPath))
			continue
		}
		cache.Add(domain.PageInfo{PageID: pageID.String, LocalPath: p, Title: title, Version: version})
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return cache, warnings, nil
}

const nodeColumns = `path, page_id, title, version, mtime, size, parse_error`

func scanNode(row *sql.Row) (*domain.IndexNode, error) {
	var node domain.IndexNode
	var pageID sql.NullString

	err := row.Scan(&node.Path, &pageID, &node.Title, &node.Version, &node.Mtime, &node.Size, &node.ParseError)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	node.PageID = pageID.String
	return &node, nil
}

// GetNode retrieves a node by path
func (idx *Index) GetNode(path string) (*domain.IndexNode, error) {
	return scanNode(idx.db.QueryRow(`SELECT `+nodeColumns+` FROM nodes WHERE path = ?`, path))
}

// GetNodeByPageID retrieves the first node, by path, carrying a page ID
func (idx *Index) GetNodeByPageID(pageID string) (*domain.IndexNode, error) {
	return scanNode(idx.db.QueryRow(`SELECT `+nodeColumns+` FROM nodes WHERE page_id = ? ORDER BY path LIMIT 1`, pageID))
}

// FindLinksTo returns all edges pointing at a file
func (idx *Index) FindLinksTo(targetPath string) ([]domain.Edge, error) {
	return idx.queryEdges(`
		SELECT source_path, target_path, link_text
		FROM edges WHERE target_path = ?
		ORDER BY source_path, link_text
	`, targetPath)
}

// FindLinksFromFile returns all edges from a source file
func (idx *Index) FindLinksFromFile(sourcePath string) ([]domain.Edge, error) {
	return idx.queryEdges(`
		SELECT source_path, target_path, link_text
		FROM edges WHERE source_path = ?
		ORDER BY link_text
	`, sourcePath)
}

// FindBrokenLinks returns edges whose target is not an indexed file
func (idx *Index) FindBrokenLinks() ([]domain.Edge, error) {
	return idx.queryEdges(`
		SELECT e.source_path, e.target_path, e.link_text
		FROM edges e LEFT JOIN nodes n ON n.path = e.target_path
		WHERE n.path IS NULL
		ORDER BY e.source_path, e.link_text
	`)
}

func (idx *Index) queryEdges(query string, args ...any) ([]domain.Edge, error) {
	rows, err := idx.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var edges []domain.Edge
	for rows.Next() {
		var e domain.Edge
		if err := rows.Scan(&e.SourcePath, &e.TargetPath, &e.LinkText); err != nil {
			return nil, err
		}
		edges = append(edges, e)
	}

	return edges, rows.Err()
}

// BeginTx starts a new transaction
func (idx *Index) BeginTx() (ports.IndexTx, error) {
	tx, err := idx.db.Begin()
	if err != nil {
		return nil, err
	}
	return &indexTx{tx: tx}, nil
}
