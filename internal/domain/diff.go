package domain

import (
	"path"
	"sort"
	"strings"
)

// ChangeType classifies a page in a SyncDiff
type ChangeType int

const (
	ChangeAdded ChangeType = iota
	ChangeModified
	ChangeDeleted
)

func (t ChangeType) String() string {
	switch t {
	case ChangeAdded:
		return "added"
	case ChangeModified:
		return "modified"
	case ChangeDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// Change is one page that differs between remote and local
type Change struct {
	Type      ChangeType
	PageID    string
	Title     string
	LocalPath string // empty until planned for added pages
}

// SyncDiff partitions changed pages. A page ID appears in at most one list.
type SyncDiff struct {
	Added    []Change
	Modified []Change
	Deleted  []Change
}

// Total returns the number of changes
func (d SyncDiff) Total() int {
	return len(d.Added) + len(d.Modified) + len(d.Deleted)
}

// IsEmpty reports whether nothing changed
func (d SyncDiff) IsEmpty() bool {
	return d.Total() == 0
}

// Changes returns all changes in apply order: added, modified, deleted
func (d SyncDiff) Changes() []Change {
	out := make([]Change, 0, d.Total())
	out = append(out, d.Added...)
	out = append(out, d.Modified...)
	out = append(out, d.Deleted...)
	return out
}

// DiffOptions tunes ComputeDiff
type DiffOptions struct {
	// Force classifies every tracked remote page as modified
	Force bool
}

// ComputeDiff classifies remote pages against the local state.
// Versions come from the page cache; a page the cache does not know has version 0,
// so it is always re-pulled. A nil local state makes every page added.
func ComputeDiff(remote []RemoteNode, local *SpaceState, cache *PageStateCache, opts DiffOptions) SyncDiff {
	var diff SyncDiff
	seen := make(map[string]bool, len(remote))

	for _, node := range remote {
		if node.Kind != NodePage || seen[node.ID] {
			continue
		}
		seen[node.ID] = true

		if local == nil {
			diff.Added = append(diff.Added, Change{Type: ChangeAdded, PageID: node.ID, Title: node.Title})
			continue
		}

		link, tracked := local.Pages[node.ID]
		if !tracked {
			diff.Added = append(diff.Added, Change{Type: ChangeAdded, PageID: node.ID, Title: node.Title})
			continue
		}

		if opts.Force || node.Version > cache.Version(node.ID) {
			diff.Modified = append(diff.Modified, Change{
				Type:      ChangeModified,
				PageID:    node.ID,
				Title:     node.Title,
				LocalPath: link.LocalPath,
			})
		}
	}

	if local == nil {
		return diff
	}

	ids := make([]string, 0, len(local.Pages))
	for id := range local.Pages {
		if !seen[id] {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	for _, id := range ids {
		link := local.Pages[id]
		diff.Deleted = append(diff.Deleted, Change{
			Type:      ChangeDeleted,
			PageID:    id,
			Title:     TitleFromPath(link.LocalPath),
			LocalPath: link.LocalPath,
		})
	}

	return diff
}

// TitleFromPath derives a display title from a tracked path when the remote page is gone.
// "Guide/README.md" gives "Guide", "notes/setup.md" gives "setup".
func TitleFromPath(localPath string) string {
	p := NormalizeLocalPath(localPath)
	base := path.Base(p)
	title := strings.TrimSuffix(base, path.Ext(base))

	if strings.EqualFold(title, "readme") {
		if dir := path.Dir(p); dir != "." {
			return path.Base(dir)
		}
		return title
	}
	if len(title) > len("readme") && strings.EqualFold(title[len(title)-len("readme"):], "readme") {
		title = strings.TrimRight(title[:len(title)-len("readme")], "-_ .")
	}
	return title
}

// ResolveSpecificPages maps user references (page IDs or local paths) to tracked page IDs.
// Every reference that matches nothing produces a warning.
func ResolveSpecificPages(refs []string, local *SpaceState, cache *PageStateCache) (ids []string, warnings []string) {
	if local == nil {
		for _, ref := range refs {
			warnings = append(warnings, "Page not found: "+ref)
		}
		return nil, warnings
	}

	seen := make(map[string]bool, len(refs))
	for _, ref := range refs {
		id, ok := resolvePageRef(strings.TrimSpace(ref), local, cache)
		if !ok {
			warnings = append(warnings, "Page not found: "+ref)
			continue
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids, warnings
}

func resolvePageRef(ref string, local *SpaceState, cache *PageStateCache) (string, bool) {
	if ref == "" {
		return "", false
	}
	if _, ok := local.Pages[ref]; ok {
		return ref, true
	}

	p := NormalizeLocalPath(ref)
	if cache != nil {
		if id, ok := cache.PathToPageID[p]; ok {
			if _, tracked := local.Pages[id]; tracked {
				return id, true
			}
		}
	}
	return local.PageIDForPath(p)
}
