package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"spacesync/internal/domain"
	"spacesync/internal/ports"
)

// Repository implements ports.PageRepository on top of an afero filesystem
type Repository struct {
	fs   afero.Fs
	root string
}

// Ensure Repository implements PageRepository
var _ ports.PageRepository = (*Repository)(nil)

// NewRepository creates a new filesystem repository rooted at the working directory
func NewRepository(fsys afero.Fs, root string) *Repository {
	return &Repository{fs: fsys, root: ExpandHome(root)}
}

// ExpandHome expands a leading ~ to the user's home directory
func ExpandHome(p string) string {
	if strings.HasPrefix(p, "~") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, p[1:])
	}
	return p
}

// Root returns the working directory
func (r *Repository) Root() string {
	return r.root
}

func (r *Repository) abs(localPath string) string {
	return filepath.Join(r.root, filepath.FromSlash(domain.NormalizeLocalPath(localPath)))
}

// Exists reports whether a regular file exists at localPath
func (r *Repository) Exists(localPath string) bool {
	info, err := r.fs.Stat(r.abs(localPath))
	return err == nil && !info.IsDir()
}

// Read returns the front matter and body of a page file
func (r *Repository) Read(localPath string) (domain.PageMeta, string, error) {
	data, err := afero.ReadFile(r.fs, r.abs(localPath))
	if err != nil {
		return domain.PageMeta{}, "", fmt.Errorf("failed to read %s: %w", localPath, err)
	}
	meta, body, err := domain.ParseDocument(string(data))
	if err != nil {
		return domain.PageMeta{}, "", fmt.Errorf("%s: %w", localPath, err)
	}
	return meta, body, nil
}

// Write renders the page and replaces the file, creating directories as needed
func (r *Repository) Write(localPath string, meta domain.PageMeta, body string) error {
	text, err := domain.RenderDocument(meta, body)
	if err != nil {
		return err
	}
	return writeFileAtomic(r.fs, r.abs(localPath), []byte(text))
}

// Remove deletes a page file and any directories it leaves empty
func (r *Repository) Remove(localPath string) error {
	target := r.abs(localPath)
	if err := r.fs.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", localPath, err)
	}

	for dir := filepath.Dir(target); dir != r.root && strings.HasPrefix(dir, r.root); dir = filepath.Dir(dir) {
		empty, err := afero.IsEmpty(r.fs, dir)
		if err != nil || !empty {
			break
		}
		if err := r.fs.Remove(dir); err != nil {
			break
		}
	}
	return nil
}

// ListMarkdown returns every markdown file below the root, skipping hidden directories
func (r *Repository) ListMarkdown() ([]string, error) {
	var files []string
	err := afero.Walk(r.fs, r.root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			if p == r.root {
				return err
			}
			return nil // Skip unreadable entries
		}

		if info.IsDir() {
			if p != r.root && strings.HasPrefix(info.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(info.Name()), domain.PageExt) {
			return nil
		}

		rel, err := filepath.Rel(r.root, p)
		if err != nil {
			return nil
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", r.root, err)
	}

	sort.Strings(files)
	return files, nil
}

// Scan builds the page state cache from front matter. Unparseable files and
// files claiming an already seen page ID are reported as warnings.
func (r *Repository) Scan(ctx context.Context) (*domain.PageStateCache, []string, error) {
	files, err := r.ListMarkdown()
	if err != nil {
		return nil, nil, err
	}

	cache := domain.NewPageStateCache()
	var warnings []string
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		meta, _, err := r.Read(f)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("Skipping %s: %v", f, err))
			continue
		}
		if !meta.IsTracked() {
			continue
		}
		if existing, ok := cache.Pages[meta.PageID]; ok {
			warnings = append(warnings, fmt.Sprintf("Page %s is claimed by both %s and %s; using %s",
				meta.PageID, existing.LocalPath, f, existing.LocalPath))
			continue
		}

		cache.Add(domain.PageInfo{
			PageID:    meta.PageID,
			LocalPath: f,
			Title:     meta.Title,
			Version:   meta.Version,
		})
	}
	return cache, warnings, nil
}

// writeFileAtomic writes to a sibling temp file and renames it into place
func writeFileAtomic(fsys afero.Fs, target string, data []byte) error {
	if err := fsys.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp := target + ".tmp"
	if err := afero.WriteFile(fsys, tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := fsys.Rename(tmp, target); err != nil {
		fsys.Remove(tmp)
		return fmt.Errorf("failed to replace %s: %w", target, err)
	}
	return nil
}
