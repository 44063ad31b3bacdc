package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func changeIDs(changes []Change) []string {
	ids := make([]string, 0, len(changes))
	for _, c := range changes {
		ids = append(ids, c.PageID)
	}
	return ids
}

func TestComputeDiff_Scenario(t *testing.T) {
	remote := []RemoteNode{
		{ID: "1", Title: "Home", Version: 1},
		{ID: "2", Title: "Guide", Version: 2, ParentID: "1"},
	}
	local := &SpaceState{Pages: map[string]PageLink{"1": {LocalPath: "home.md", Version: 1}}}
	cache := NewPageStateCache()
	cache.Add(PageInfo{PageID: "1", LocalPath: "home.md", Title: "Home", Version: 1})

	diff := ComputeDiff(remote, local, cache, DiffOptions{})

	assert.Equal(t, []string{"2"}, changeIDs(diff.Added))
	assert.Empty(t, diff.Modified)
	assert.Empty(t, diff.Deleted)
}

func TestComputeDiff_Partition(t *testing.T) {
	remote := []RemoteNode{
		{ID: "a", Title: "A", Version: 3},
		{ID: "b", Title: "B", Version: 2},
		{ID: "c", Title: "C", Version: 1},
		{ID: "f", Title: "Folder", Kind: NodeFolder},
	}
	local := &SpaceState{Pages: map[string]PageLink{
		"b": {LocalPath: "b.md", Version: 1},
		"c": {LocalPath: "c.md", Version: 1},
		"z": {LocalPath: "docs/zeta.md", Version: 4},
	}}
	cache := NewPageStateCache()
	cache.Add(PageInfo{PageID: "b", LocalPath: "b.md", Version: 1})
	cache.Add(PageInfo{PageID: "c", LocalPath: "c.md", Version: 1})

	diff := ComputeDiff(remote, local, cache, DiffOptions{})

	assert.Equal(t, []string{"a"}, changeIDs(diff.Added))
	assert.Equal(t, []string{"b"}, changeIDs(diff.Modified))
	require.Len(t, diff.Deleted, 1)
	assert.Equal(t, "z", diff.Deleted[0].PageID)
	assert.Equal(t, "zeta", diff.Deleted[0].Title)
	assert.Equal(t, "docs/zeta.md", diff.Deleted[0].LocalPath)

	seen := map[string]bool{}
	for _, c := range diff.Changes() {
		assert.False(t, seen[c.PageID], "page %s listed twice", c.PageID)
		seen[c.PageID] = true
	}
}

func TestComputeDiff_MissingCacheVersionForcesRepull(t *testing.T) {
	remote := []RemoteNode{{ID: "a", Title: "A", Version: 1}}
	local := &SpaceState{Pages: map[string]PageLink{"a": {LocalPath: "a.md", Version: 1}}}

	diff := ComputeDiff(remote, local, NewPageStateCache(), DiffOptions{})

	assert.Equal(t, []string{"a"}, changeIDs(diff.Modified))
}

func TestComputeDiff_NilLocal(t *testing.T) {
	remote := []RemoteNode{{ID: "a", Version: 1}, {ID: "b", Version: 1}, {ID: "a", Version: 1}}

	diff := ComputeDiff(remote, nil, nil, DiffOptions{})

	assert.Equal(t, []string{"a", "b"}, changeIDs(diff.Added))
	assert.Empty(t, diff.Modified)
	assert.Empty(t, diff.Deleted)
}

func TestComputeDiff_Force(t *testing.T) {
	remote := []RemoteNode{{ID: "a", Title: "A", Version: 1}}
	local := &SpaceState{Pages: map[string]PageLink{"a": {LocalPath: "a.md", Version: 1}}}
	cache := NewPageStateCache()
	cache.Add(PageInfo{PageID: "a", LocalPath: "a.md", Version: 1})

	assert.Empty(t, ComputeDiff(remote, local, cache, DiffOptions{}).Modified)
	assert.Equal(t, []string{"a"}, changeIDs(ComputeDiff(remote, local, cache, DiffOptions{Force: true}).Modified))
}

func TestTitleFromPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"notes/setup.md", "setup"},
		{"./Guide.md", "Guide"},
		{"Guide/README.md", "Guide"},
		{"Guide/readme.md", "Guide"},
		{"ProjectReadme.md", "Project"},
		{"project-readme.md", "project"},
		{"README.md", "README"},
		{"plain", "plain"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, TitleFromPath(tt.path))
		})
	}
}

func TestResolveSpecificPages(t *testing.T) {
	local := &SpaceState{Pages: map[string]PageLink{
		"100": {LocalPath: "docs/intro.md"},
		"200": {LocalPath: "guide.md"},
	}}
	cache := NewPageStateCache()
	cache.Add(PageInfo{PageID: "200", LocalPath: "guide.md"})

	ids, warnings := ResolveSpecificPages([]string{"./docs/intro.md", "200", "guide.md", "missing.md"}, local, cache)

	assert.Equal(t, []string{"100", "200"}, ids)
	assert.Equal(t, []string{"Page not found: missing.md"}, warnings)
}

func TestResolveSpecificPages_NoState(t *testing.T) {
	ids, warnings := ResolveSpecificPages([]string{"1"}, nil, nil)

	assert.Empty(t, ids)
	assert.Len(t, warnings, 1)
}
