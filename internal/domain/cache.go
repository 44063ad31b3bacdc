package domain

// PageInfo is what a local file's front matter says about a page
type PageInfo struct {
	PageID    string
	LocalPath string
	Title     string
	Version   int
}

// PageStateCache indexes local files by page ID and by path.
// It is rebuilt from disk on every run and never persisted.
type PageStateCache struct {
	Pages        map[string]PageInfo
	PathToPageID map[string]string
}

// NewPageStateCache returns an empty cache
func NewPageStateCache() *PageStateCache {
	return &PageStateCache{
		Pages:        map[string]PageInfo{},
		PathToPageID: map[string]string{},
	}
}

// Add inserts or replaces a page, keeping the reverse index consistent
func (c *PageStateCache) Add(info PageInfo) {
	info.LocalPath = NormalizeLocalPath(info.LocalPath)
	if old, ok := c.Pages[info.PageID]; ok && old.LocalPath != info.LocalPath {
		if c.PathToPageID[old.LocalPath] == info.PageID {
			delete(c.PathToPageID, old.LocalPath)
		}
	}
	if owner, ok := c.PathToPageID[info.LocalPath]; ok && owner != info.PageID {
		delete(c.Pages, owner)
	}
	c.Pages[info.PageID] = info
	c.PathToPageID[info.LocalPath] = info.PageID
}

// Version returns the cached local version of a page, 0 when unknown
func (c *PageStateCache) Version(pageID string) int {
	if c == nil {
		return 0
	}
	return c.Pages[pageID].Version
}

// Clone returns an independent copy
func (c *PageStateCache) Clone() *PageStateCache {
	out := NewPageStateCache()
	if c == nil {
		return out
	}
	for id, info := range c.Pages {
		out.Pages[id] = info
	}
	for p, id := range c.PathToPageID {
		out.PathToPageID[p] = id
	}
	return out
}
