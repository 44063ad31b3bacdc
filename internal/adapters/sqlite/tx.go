package sqlite

import (
	"database/sql"

	"spacesync/internal/domain"
	"spacesync/internal/ports"
)

// indexTx implements ports.IndexTx
type indexTx struct {
	tx *sql.Tx
}

// Ensure indexTx implements IndexTx
var _ ports.IndexTx = (*indexTx)(nil)

// UpsertNode inserts or updates a node
func (t *indexTx) UpsertNode(node *domain.IndexNode) error {
	_, err := t.tx.Exec(`
		INSERT OR REPLACE INTO nodes (path, page_id, title, version, mtime, size, parse_error)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, node.Path, nullString(node.PageID), node.Title, node.Version, node.Mtime, node.Size, node.ParseError)
	return err
}

// DeleteNode removes a node by path
func (t *indexTx) DeleteNode(path string) error {
	_, err := t.tx.Exec(`DELETE FROM nodes WHERE path = ?`, path)
	return err
}

// DeleteEdgesFromFile removes all edges from a source file
func (t *indexTx) DeleteEdgesFromFile(sourcePath string) error {
	_, err := t.tx.Exec(`DELETE FROM edges WHERE source_path = ?`, sourcePath)
	return err
}

// InsertEdge adds a new edge
func (t *indexTx) InsertEdge(edge *domain.Edge) error {
	_, err := t.tx.Exec(`
		INSERT OR REPLACE INTO edges (source_path, target_path, link_text)
		VALUES (?, ?, ?)
	`, edge.SourcePath, edge.TargetPath, edge.LinkText)
	return err
}

// Commit commits the transaction
func (t *indexTx) Commit() error {
	return t.tx.Commit()
}

// Rollback aborts the transaction
func (t *indexTx) Rollback() error {
	return t.tx.Rollback()
}

// nullString returns nil for empty strings (for nullable columns)
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
