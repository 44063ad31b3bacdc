package sqlite

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

const testRoot = "/work"

func setupIndex(t *testing.T, files map[string]string) (afero.Fs, *Index) {
	t.Helper()
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	fsys := afero.NewMemMapFs()
	for name, content := range files {
		writeFile(t, fsys, name, content)
	}

	idx := NewIndex(fsys)
	if err := idx.Open(testRoot); err != nil {
		t.Fatalf("failed to open index: %v", err)
	}
	t.Cleanup(func() {
		if err := idx.Close(); err != nil {
			t.Errorf("failed to close index: %v", err)
		}
	})
	return fsys, idx
}

func writeFile(t *testing.T, fsys afero.Fs, name, content string) {
	t.Helper()
	p := filepath.Join(testRoot, filepath.FromSlash(name))
	if err := fsys.MkdirAll(filepath.Dir(p), 0755); err != nil {
		t.Fatal(err)
	}
	if err := afero.WriteFile(fsys, p, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func sampleFiles() map[string]string {
	return map[string]string{
		"Home/README.md": "---\npageId: \"1\"\ntitle: Home\nversion: 2\n---\n\nSee [guide](./Guide.md) and [gone](./Missing.md).\n",
		"Home/Guide.md":  "---\npageId: \"2\"\ntitle: Guide\nversion: 4\n---\n\nBack to [home](./README.md#top) or [auth](<API/Auth Flow.md>).\n",
		"notes.md":       "Local notes linking [guide](Home/Guide.md) and [web](https://example.com/x.md).\n",
		".git/skip.md":   "[x](./nowhere.md)\n",
	}
}

func TestSyncFull_IndexesNodesAndEdges(t *testing.T) {
	_, idx := setupIndex(t, sampleFiles())

	if !idx.NeedsFullRebuild() {
		t.Fatal("fresh index should need a full rebuild")
	}

	stats, err := idx.SyncFull()
	if err != nil {
		t.Fatalf("SyncFull failed: %v", err)
	}
	if stats.NodesAdded != 3 {
		t.Errorf("expected 3 nodes, got %d", stats.NodesAdded)
	}
	if stats.EdgesAdded != 5 {
		t.Errorf("expected 5 edges, got %d", stats.EdgesAdded)
	}
	if idx.NeedsFullRebuild() {
		t.Error("index should not need a rebuild after SyncFull")
	}

	node, err := idx.GetNode("Home/Guide.md")
	if err != nil || node == nil {
		t.Fatalf("GetNode failed: %v", err)
	}
	if node.PageID != "2" || node.Title != "Guide" || node.Version != 4 {
		t.Errorf("unexpected node: %+v", node)
	}

	byID, err := idx.GetNodeByPageID("1")
	if err != nil || byID == nil || byID.Path != "Home/README.md" {
		t.Errorf("GetNodeByPageID returned %+v, %v", byID, err)
	}

	missing, err := idx.GetNode("nope.md")
	if err != nil || missing != nil {
		t.Errorf("expected nil node for unknown path, got %+v, %v", missing, err)
	}
}

func TestFindLinks(t *testing.T) {
	_, idx := setupIndex(t, sampleFiles())
	if _, err := idx.SyncFull(); err != nil {
		t.Fatalf("SyncFull failed: %v", err)
	}

	to, err := idx.FindLinksTo("Home/Guide.md")
	if err != nil {
		t.Fatalf("FindLinksTo failed: %v", err)
	}
	if len(to) != 2 || to[0].SourcePath != "Home/README.md" || to[1].SourcePath != "notes.md" {
		t.Errorf("unexpected backlinks: %+v", to)
	}

	from, err := idx.FindLinksFromFile("Home/Guide.md")
	if err != nil {
		t.Fatalf("FindLinksFromFile failed: %v", err)
	}
	if len(from) != 2 {
		t.Fatalf("expected 2 outgoing links, got %+v", from)
	}
	if from[0].TargetPath != "Home/README.md" {
		t.Errorf("fragment should be stripped from target, got %s", from[0].TargetPath)
	}

	broken, err := idx.FindBrokenLinks()
	if err != nil {
		t.Fatalf("FindBrokenLinks failed: %v", err)
	}
	var targets []string
	for _, e := range broken {
		targets = append(targets, e.TargetPath)
	}
	want := "Home/API/Auth Flow.md,Home/Missing.md"
	if strings.Join(targets, ",") != want {
		t.Errorf("expected broken %s, got %v", want, targets)
	}
}

func TestSyncIncremental_TracksChanges(t *testing.T) {
	fsys, idx := setupIndex(t, sampleFiles())
	if _, err := idx.SyncFull(); err != nil {
		t.Fatalf("SyncFull failed: %v", err)
	}

	stats, err := idx.SyncIncremental()
	if err != nil {
		t.Fatalf("SyncIncremental failed: %v", err)
	}
	if stats.NodesAdded+stats.NodesUpdated+stats.NodesDeleted != 0 {
		t.Errorf("expected no changes, got %+v", stats)
	}

	writeFile(t, fsys, "Home/Guide.md", "---\npageId: \"2\"\ntitle: Guide\nversion: 5\n---\n\nNo links any more, just a longer body.\n")
	writeFile(t, fsys, "new.md", "[home](Home/README.md)\n")
	if err := fsys.Remove(filepath.Join(testRoot, "notes.md")); err != nil {
		t.Fatal(err)
	}

	stats, err = idx.SyncIncremental()
	if err != nil {
		t.Fatalf("SyncIncremental failed: %v", err)
	}
	if stats.NodesAdded != 1 || stats.NodesUpdated != 1 || stats.NodesDeleted != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}

	from, _ := idx.FindLinksFromFile("Home/Guide.md")
	if len(from) != 0 {
		t.Errorf("stale edges kept: %+v", from)
	}
	gone, _ := idx.FindLinksFromFile("notes.md")
	if len(gone) != 0 {
		t.Errorf("edges of deleted file kept: %+v", gone)
	}
	node, _ := idx.GetNode("Home/Guide.md")
	if node == nil || node.Version != 5 {
		t.Errorf("node not refreshed: %+v", node)
	}
}

func TestScan_BuildsCacheAndWarns(t *testing.T) {
	files := sampleFiles()
	files["broken.md"] = "---\npageId: [\n"
	files["dup.md"] = "---\npageId: \"2\"\ntitle: Copy\n---\n"
	_, idx := setupIndex(t, files)

	cache, warnings, err := idx.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	if len(cache.Pages) != 2 {
		t.Errorf("expected 2 tracked pages, got %d", len(cache.Pages))
	}
	if cache.Pages["2"].LocalPath != "Home/Guide.md" {
		t.Errorf("first path in order should win, got %s", cache.Pages["2"].LocalPath)
	}
	if len(warnings) != 2 {
		t.Fatalf("expected 2 warnings, got %v", warnings)
	}
	if !strings.Contains(warnings[0], "broken.md") || !strings.Contains(warnings[1], "dup.md") {
		t.Errorf("unexpected warnings: %v", warnings)
	}
}

func TestScan_Cancelled(t *testing.T) {
	_, idx := setupIndex(t, sampleFiles())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := idx.Scan(ctx); err == nil {
		t.Error("expected cancellation error")
	}
}

func TestSyncFull_RecordsMeta(t *testing.T) {
	_, idx := setupIndex(t, sampleFiles())
	if _, err := idx.SyncFull(); err != nil {
		t.Fatalf("SyncFull failed: %v", err)
	}

	want := map[string]string{
		"schema_version": schemaVersion,
		"root_path_hash": hashRootPath(testRoot),
	}
	for key, value := range want {
		var got string
		if err := idx.db.QueryRow("SELECT value FROM meta WHERE key = ?", key).Scan(&got); err != nil {
			t.Fatalf("reading %s: %v", key, err)
		}
		if got != value {
			t.Errorf("%s = %q, want %q", key, got, value)
		}
	}

	if idx.NeedsFullRebuild() {
		t.Error("index should not need a rebuild once meta is recorded")
	}
	stats, err := idx.SyncIncremental()
	if err != nil {
		t.Fatalf("SyncIncremental failed: %v", err)
	}
	if stats.NodesUpdated != 0 {
		t.Errorf("expected no updated nodes, got %d", stats.NodesUpdated)
	}
}
