package filesystem

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"spacesync/internal/application"
	"spacesync/internal/domain"
)

const testRoot = "/work"

func setupTestRepo(t *testing.T, files map[string]string) (afero.Fs, *Repository) {
	t.Helper()

	fsys := afero.NewMemMapFs()
	for name, content := range files {
		p := filepath.Join(testRoot, filepath.FromSlash(name))
		if err := fsys.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatalf("failed to create dir: %v", err)
		}
		if err := afero.WriteFile(fsys, p, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
	return fsys, NewRepository(fsys, testRoot)
}

func page(id, title string, version int) string {
	return "---\npageId: \"" + id + "\"\ntitle: " + title + "\nversion: " + string(rune('0'+version)) + "\n---\n\nBody of " + title + "\n"
}

func TestWriteRead_RoundTrip(t *testing.T) {
	fsys, repo := setupTestRepo(t, nil)

	meta := domain.PageMeta{PageID: "42", Title: "Guide", Version: 3, SpaceKey: "DOCS"}
	if err := repo.Write("Home/Guide.md", meta, "# Guide\n\nHello\n"); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	if !repo.Exists("Home/Guide.md") {
		t.Fatal("expected file to exist")
	}
	if ok, _ := afero.Exists(fsys, "/work/Home/Guide.md.tmp"); ok {
		t.Error("temp file left behind")
	}

	got, body, err := repo.Read("./Home/Guide.md")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if got.PageID != "42" || got.Version != 3 || got.SpaceKey != "DOCS" {
		t.Errorf("unexpected meta: %+v", got)
	}
	if body != "# Guide\n\nHello\n" {
		t.Errorf("unexpected body: %q", body)
	}
}

func TestRead_MissingFile(t *testing.T) {
	_, repo := setupTestRepo(t, nil)

	if _, _, err := repo.Read("nope.md"); err == nil {
		t.Fatal("expected error for missing file")
	}
	if repo.Exists("nope.md") {
		t.Error("Exists should be false")
	}
}

func TestRemove_PrunesEmptyDirectories(t *testing.T) {
	fsys, repo := setupTestRepo(t, map[string]string{
		"a/b/page.md": page("1", "Page", 1),
		"a/keep.md":   page("2", "Keep", 1),
	})

	if err := repo.Remove("a/b/page.md"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	if ok, _ := afero.DirExists(fsys, "/work/a/b"); ok {
		t.Error("empty directory should be removed")
	}
	if ok, _ := afero.DirExists(fsys, "/work/a"); !ok {
		t.Error("non-empty parent must stay")
	}
	if err := repo.Remove("a/b/page.md"); err != nil {
		t.Errorf("removing a missing file should succeed, got %v", err)
	}
}

func TestListMarkdown_SkipsHiddenAndNonMarkdown(t *testing.T) {
	_, repo := setupTestRepo(t, map[string]string{
		"b.md":                  "plain",
		"a/README.md":           "plain",
		"a/image.png":           "binary",
		".spacesync/state.json": "{}",
		".git/notes.md":         "hidden",
		"x/.drafts/draft.md":    "hidden",
	})

	files, err := repo.ListMarkdown()
	if err != nil {
		t.Fatalf("ListMarkdown failed: %v", err)
	}

	want := []string{"a/README.md", "b.md"}
	if !reflect.DeepEqual(files, want) {
		t.Errorf("expected %v, got %v", want, files)
	}
}

func TestScan_BuildsCacheFromFrontMatter(t *testing.T) {
	_, repo := setupTestRepo(t, map[string]string{
		"Home/README.md": page("1", "Home", 2),
		"Home/Guide.md":  page("2", "Guide", 5),
		"notes.md":       "no front matter here",
		"broken.md":      "---\npageId: [\n",
	})

	cache, warnings, err := repo.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	if len(cache.Pages) != 2 {
		t.Fatalf("expected 2 tracked pages, got %d", len(cache.Pages))
	}
	if cache.Pages["2"].LocalPath != "Home/Guide.md" || cache.Pages["2"].Version != 5 {
		t.Errorf("unexpected entry: %+v", cache.Pages["2"])
	}
	if cache.PathToPageID["Home/README.md"] != "1" {
		t.Errorf("reverse index missing Home/README.md")
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "broken.md") {
		t.Errorf("expected one warning about broken.md, got %v", warnings)
	}
}

func TestScan_DuplicatePageIDKeepsFirst(t *testing.T) {
	_, repo := setupTestRepo(t, map[string]string{
		"a.md": page("7", "A", 1),
		"b.md": page("7", "B", 1),
	})

	cache, warnings, err := repo.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if cache.Pages["7"].LocalPath != "a.md" {
		t.Errorf("expected a.md to win, got %s", cache.Pages["7"].LocalPath)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "b.md") {
		t.Errorf("expected duplicate warning, got %v", warnings)
	}
}

func TestScan_Cancelled(t *testing.T) {
	_, repo := setupTestRepo(t, map[string]string{"a.md": page("1", "A", 1)})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, _, err := repo.Scan(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestStateStore_SaveLoad(t *testing.T) {
	fsys := afero.NewMemMapFs()
	store := NewStateStore(fsys, testRoot)

	if store.Exists() {
		t.Fatal("state should not exist yet")
	}
	if _, err := store.Load(); !errors.Is(err, application.ErrStateNotFound) {
		t.Fatalf("expected ErrStateNotFound, got %v", err)
	}

	state := domain.NewSpaceState(domain.Space{ID: "s1", Key: "DOCS", Name: "Docs"})
	state.SetPage("1", domain.PageLink{LocalPath: "Home/README.md", Version: 2, ContentHash: "abc"})
	state.SetFolder("f1", domain.FolderLink{Title: "Guides", LocalPath: "Guides"})
	state.MarkSynced(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))

	if err := store.Save(state); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if store.Path() != filepath.Join(testRoot, ".spacesync", "state.json") {
		t.Errorf("unexpected path %s", store.Path())
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.RemoteRootKey != "DOCS" || loaded.Pages["1"].ContentHash != "abc" {
		t.Errorf("unexpected state: %+v", loaded)
	}
	if loaded.Folders["f1"].LocalPath != "Guides" {
		t.Errorf("folder not persisted: %+v", loaded.Folders)
	}
	if loaded.LastSyncAt == nil || !loaded.LastSyncAt.Equal(*state.LastSyncAt) {
		t.Errorf("LastSyncAt not persisted")
	}
}

func TestStateStore_NormalizesMissingMaps(t *testing.T) {
	fsys := afero.NewMemMapFs()
	store := NewStateStore(fsys, testRoot)
	if err := afero.WriteFile(fsys, store.Path(), []byte(`{"remoteRootKey":"DOCS"}`), 0644); err != nil {
		t.Fatal(err)
	}

	state, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if state.Pages == nil || state.Folders == nil {
		t.Error("maps should be initialized")
	}
}

func TestStateStore_CorruptFile(t *testing.T) {
	fsys := afero.NewMemMapFs()
	store := NewStateStore(fsys, testRoot)
	if err := afero.WriteFile(fsys, store.Path(), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := store.Load()
	if err == nil || errors.Is(err, application.ErrStateNotFound) {
		t.Errorf("expected parse error, got %v", err)
	}
}

func TestWatcher_BatchesMarkdownChanges(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, ".spacesync"), 0755); err != nil {
		t.Fatal(err)
	}

	w, err := NewWatcher(root, 50*time.Millisecond, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan []string, 4)
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, func(b []string) { got <- b }) }()

	os.WriteFile(filepath.Join(root, ".spacesync", "state.json"), []byte("{}"), 0644)
	os.WriteFile(filepath.Join(root, "ignored.txt"), []byte("x"), 0644)
	if err := os.WriteFile(filepath.Join(root, "page.md"), []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case batch := <-got:
		if !reflect.DeepEqual(batch, []string{"page.md"}) {
			t.Errorf("expected [page.md], got %v", batch)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for batch")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcher_RetriesBatchWhileConsumerBusy(t *testing.T) {
	w := &Watcher{
		debounce: 10 * time.Millisecond,
		logger:   zerolog.Nop(),
		pending:  map[string]struct{}{"b.md": {}, "a.md": {}},
	}
	t.Cleanup(func() {
		w.mu.Lock()
		w.closed = true
		w.mu.Unlock()
	})

	batches := make(chan []string, 1)
	batches <- []string{"busy.md"}
	w.flush(batches)

	w.mu.Lock()
	if len(w.pending) != 2 {
		t.Errorf("expected pending paths kept, got %v", w.pending)
	}
	w.mu.Unlock()

	if first := <-batches; !reflect.DeepEqual(first, []string{"busy.md"}) {
		t.Fatalf("unexpected first batch %v", first)
	}

	select {
	case batch := <-batches:
		if !reflect.DeepEqual(batch, []string{"a.md", "b.md"}) {
			t.Errorf("expected [a.md b.md], got %v", batch)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("pending paths were never delivered")
	}
}
