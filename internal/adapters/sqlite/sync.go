package sqlite

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"

	"spacesync/internal/domain"
	"spacesync/internal/ports"
)

// SyncFull performs a complete rebuild of the index
func (idx *Index) SyncFull() (*domain.IndexStats, error) {
	start := time.Now()
	stats := &domain.IndexStats{}

	// Clear existing data
	if _, err := idx.db.Exec(`DELETE FROM edges; DELETE FROM nodes;`); err != nil {
		return nil, err
	}

	tx, err := idx.BeginTx()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	err = idx.walk(func(relPath string, info os.FileInfo) error {
		stats.FilesScanned++
		if err := idx.indexFile(tx, relPath, info, stats); err != nil {
			return err
		}
		stats.NodesAdded++
		return nil
	})
	if err != nil {
		return stats, err
	}
	if err := tx.Commit(); err != nil {
		return stats, err
	}

	if err := idx.updateMeta(); err != nil {
		return stats, err
	}

	stats.Duration = time.Since(start)
	return stats, nil
}

// SyncIncremental re-reads only files whose mtime or size changed since they were indexed
func (idx *Index) SyncIncremental() (*domain.IndexStats, error) {
	start := time.Now()
	stats := &domain.IndexStats{}

	type fileStamp struct{ mtime, size int64 }
	existing := make(map[string]fileStamp)
	rows, err := idx.db.Query(`SELECT path, mtime, size FROM nodes`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var p string
		var st fileStamp
		if err := rows.Scan(&p, &st.mtime, &st.size); err != nil {
			rows.Close()
			return nil, err
		}
		existing[p] = st
	}
	rows.Close()

	tx, err := idx.BeginTx()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// Track paths we've seen during this walk
	seen := make(map[string]bool)

	err = idx.walk(func(relPath string, info os.FileInfo) error {
		seen[relPath] = true
		stats.FilesScanned++

		old, known := existing[relPath]
		if known && old.mtime == info.ModTime().UnixNano() && old.size == info.Size() {
			return nil
		}

		if known {
			if err := tx.DeleteEdgesFromFile(relPath); err != nil {
				return err
			}
		}
		if err := idx.indexFile(tx, relPath, info, stats); err != nil {
			return err
		}
		if known {
			stats.NodesUpdated++
		} else {
			stats.NodesAdded++
		}
		return nil
	})
	if err != nil {
		return stats, err
	}

	// Delete nodes that no longer exist
	for p := range existing {
		if seen[p] {
			continue
		}
		if err := tx.DeleteNode(p); err != nil {
			return stats, err
		}
		if err := tx.DeleteEdgesFromFile(p); err != nil {
			return stats, err
		}
		stats.NodesDeleted++
	}

	if err := tx.Commit(); err != nil {
		return stats, err
	}

	stats.Duration = time.Since(start)
	return stats, nil
}

// walk visits every markdown file below the working directory, skipping hidden directories
func (idx *Index) walk(visit func(relPath string, info os.FileInfo) error) error {
	return afero.Walk(idx.fs, idx.workDir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip errors
		}

		if info.IsDir() {
			if p != idx.workDir && strings.HasPrefix(info.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(info.Name()), domain.PageExt) {
			return nil
		}

		relPath, err := filepath.Rel(idx.workDir, p)
		if err != nil {
			return nil
		}
		return visit(filepath.ToSlash(relPath), info)
	})
}

// indexFile stores a file's front matter and outgoing links
func (idx *Index) indexFile(tx ports.IndexTx, relPath string, info os.FileInfo, stats *domain.IndexStats) error {
	node := &domain.IndexNode{
		Path:  relPath,
		Mtime: info.ModTime().UnixNano(),
		Size:  info.Size(),
	}

	content, err := afero.ReadFile(idx.fs, filepath.Join(idx.workDir, filepath.FromSlash(relPath)))
	if err != nil {
		node.ParseError = err.Error()
		return tx.UpsertNode(node)
	}

	meta, body, err := domain.ParseDocument(string(content))
	if err != nil {
		node.ParseError = err.Error()
	} else {
		node.PageID = meta.PageID
		node.Title = meta.Title
		node.Version = meta.Version
	}
	if err := tx.UpsertNode(node); err != nil {
		return err
	}

	for _, link := range domain.ExtractLocalLinks(body) {
		target, ok := domain.ResolveLinkPath(link.Target, relPath)
		if !ok {
			continue
		}
		edge := &domain.Edge{SourcePath: relPath, TargetPath: target, LinkText: link.Target}
		if err := tx.InsertEdge(edge); err != nil {
			return err
		}
		stats.EdgesAdded++
	}
	return nil
}
