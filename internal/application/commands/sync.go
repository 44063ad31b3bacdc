package commands

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"spacesync/internal/application"
	"spacesync/internal/domain"
	"spacesync/internal/ports"
)

// SyncOptions controls a pull
type SyncOptions struct {
	WorkDir       string
	DryRun        bool
	Force         bool
	Depth         int      // 0 = unlimited
	SpecificPages []string // paths or IDs; skips the tree fetch when set
}

// SyncCommand pulls remote changes into the working directory.
// Pages are applied one at a time; a failing page is recorded and the run continues.
type SyncCommand struct {
	remote    ports.RemoteStore
	converter ports.Converter
	store     ports.StateStore
	pages     ports.PageRepository
	scanner   ports.PageScanner
	progress  safeProgress
	folders   *FolderHierarchy
	logger    zerolog.Logger
	now       func() time.Time

	Options SyncOptions
}

// NewSyncCommand creates a new SyncCommand
func NewSyncCommand(
	remote ports.RemoteStore,
	converter ports.Converter,
	store ports.StateStore,
	pages ports.PageRepository,
	progress ports.ProgressSink,
	logger zerolog.Logger,
	opts SyncOptions,
) *SyncCommand {
	return &SyncCommand{
		remote:    remote,
		converter: converter,
		store:     store,
		pages:     pages,
		scanner:   pages,
		progress:  newSafeProgress(progress, logger),
		folders:   NewFolderHierarchy(remote, store, logger),
		logger:    logger,
		now:       time.Now,
		Options:   opts,
	}
}

// WithScanner replaces the page scanner, e.g. with the persistent index
func (c *SyncCommand) WithScanner(scanner ports.PageScanner) *SyncCommand {
	if scanner != nil {
		c.scanner = scanner
	}
	return c
}

// Validate checks if the sync options are valid
func (c *SyncCommand) Validate() error {
	if err := application.ValidateRequired("workDir", c.Options.WorkDir); err != nil {
		return err
	}
	return application.ValidateDepth("depth", c.Options.Depth)
}

// syncRun holds everything scoped to one Execute call
type syncRun struct {
	state  *domain.SpaceState
	cache  *domain.PageStateCache
	lookup *domain.PageLookupMap
	result *domain.SyncResult
	logger zerolog.Logger

	// page IDs that own a directory
	containers map[string]bool
	// memoised author and editor lookups, nil for failed ones
	users map[string]*domain.User
	// directory -> title of the container page that failed this run
	blocked map[string]string
	// directory -> folder or container page ID known from the remote tree
	dirOwners map[string]string
	// up-to-date pages whose planned directory differs from their tracked one
	relocations []domain.Change
}

// Execute runs the pull. The returned result is non-nil whenever the run got past
// loading state, including when a fatal folder error aborts it.
func (c *SyncCommand) Execute(ctx context.Context) (*domain.SyncResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	run := &syncRun{
		users:     map[string]*domain.User{},
		blocked:   map[string]string{},
		dirOwners: map[string]string{},
		result:    domain.NewSyncResult(),
		logger:    c.logger.With().Str("run", uuid.NewString()).Logger(),
	}

	state, err := c.loadState()
	if err != nil {
		return nil, err
	}
	run.state = state

	cache, scanWarnings, err := c.scanner.Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to scan local pages: %w", err)
	}
	run.cache = cache
	run.result.Warnings = append(run.result.Warnings, scanWarnings...)

	var diff domain.SyncDiff
	if len(c.Options.SpecificPages) > 0 {
		diff = c.specificDiff(run)
	} else {
		diff, err = c.treeDiff(ctx, run)
		if err != nil {
			return nil, err
		}
	}

	run.result.Changes = diff
	c.progress.DiffCompleted(len(diff.Added), len(diff.Modified), len(diff.Deleted))
	run.logger.Info().
		Int("added", len(diff.Added)).
		Int("modified", len(diff.Modified)).
		Int("deleted", len(diff.Deleted)).
		Bool("dry_run", c.Options.DryRun).
		Msg("computed diff")

	if c.Options.DryRun {
		if err := c.previewFolders(ctx, run, diff); err != nil {
			return run.result, err
		}
		for _, r := range run.relocations {
			run.result.Warn("%s: would move %s to %s", r.Title, run.state.Pages[r.PageID].LocalPath, r.LocalPath)
		}
		return run.result, nil
	}

	c.buildLookup(run, diff)

	if err := c.relocate(ctx, run); err != nil {
		return run.result, err
	}

	for _, change := range applyOrder(diff, run.containers) {
		if ctx.Err() != nil {
			run.result.Cancelled = true
			run.logger.Info().Int("applied", run.result.Applied).Msg("sync cancelled")
			break
		}

		c.progress.ItemStarted(change)

		var applied bool
		var err error
		if change.Type == domain.ChangeDeleted {
			applied, err = c.applyDelete(run, change)
		} else {
			applied, err = c.applyPage(ctx, run, change)
		}

		if err != nil {
			c.progress.ItemFailed(change, err)
			var folderErr *application.FolderHierarchyError
			if errors.As(err, &folderErr) {
				return run.result, err
			}
			run.result.Fail("Failed to sync page %q: %v", change.Title, err)
			run.logger.Error().Err(err).Str("page", change.PageID).Msg("page sync failed")
			if run.containers[change.PageID] {
				run.blocked[domain.ContainerDir(change.LocalPath)] = change.Title
			}
			continue
		}

		if applied {
			run.result.Applied++
		}
		c.progress.ItemCompleted(change)
	}

	if run.result.Cancelled && run.result.Applied == 0 {
		return run.result, nil
	}

	run.state.MarkSynced(c.now())
	if err := c.store.Save(run.state); err != nil {
		return run.result, fmt.Errorf("failed to save state: %w", err)
	}
	return run.result, nil
}

func (c *SyncCommand) loadState() (*domain.SpaceState, error) {
	if !c.store.Exists() {
		return nil, application.ErrStateNotFound
	}
	state, err := c.store.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}
	state.Normalize()
	if err := state.Validate(); err != nil {
		return nil, fmt.Errorf("state file is inconsistent: %w", err)
	}
	return state, nil
}

// specificDiff treats every resolvable reference as modified at its tracked path
func (c *SyncCommand) specificDiff(run *syncRun) domain.SyncDiff {
	ids, warnings := domain.ResolveSpecificPages(c.Options.SpecificPages, run.state, run.cache)
	run.result.Warnings = append(run.result.Warnings, warnings...)

	run.containers = map[string]bool{}
	var diff domain.SyncDiff
	for _, id := range ids {
		link := run.state.Pages[id]
		title := run.cache.Pages[id].Title
		if title == "" {
			title = domain.TitleFromPath(link.LocalPath)
		}
		if domain.IsContainerPath(link.LocalPath) {
			run.containers[id] = true
			run.dirOwners[domain.ContainerDir(link.LocalPath)] = id
		}
		diff.Modified = append(diff.Modified, domain.Change{
			Type:      domain.ChangeModified,
			PageID:    id,
			Title:     title,
			LocalPath: link.LocalPath,
		})
	}
	return diff
}

// treeDiff fetches the remote tree, tracks its folders and plans every local path
func (c *SyncCommand) treeDiff(ctx context.Context, run *syncRun) (domain.SyncDiff, error) {
	c.progress.FetchStarted()
	nodes, err := c.remote.FetchTree(context.WithoutCancel(ctx), run.state.RemoteRootID)
	if err != nil {
		var authErr *application.AuthError
		if errors.As(err, &authErr) {
			return domain.SyncDiff{}, fmt.Errorf("cannot access remote space %s: %w", run.state.RemoteRootKey, err)
		}
		return domain.SyncDiff{}, fmt.Errorf("failed to fetch remote tree: %w", err)
	}
	// depth limits what is pulled; paths and deletions are judged against the whole tree
	all := nodes
	nodes = domain.FilterByDepth(all, c.Options.Depth)
	c.progress.FetchCompleted(len(nodes))

	planned := domain.PlanLocalPaths(all)

	run.containers = map[string]bool{}
	for _, n := range all {
		if n.ParentID != "" {
			run.containers[n.ParentID] = true
		}
	}
	for _, n := range all {
		switch {
		case n.Kind == domain.NodeFolder:
			run.dirOwners[planned[n.ID]] = n.ID
		case run.containers[n.ID]:
			run.dirOwners[domain.ContainerDir(planned[n.ID])] = n.ID
		}
	}

	c.reconcileFolders(run, nodes, planned)

	visible := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		visible[n.ID] = true
	}

	diff := domain.ComputeDiff(all, run.state, run.cache, domain.DiffOptions{Force: c.Options.Force})
	diff.Added = withinDepth(diff.Added, visible, planned)
	diff.Modified = withinDepth(diff.Modified, visible, planned)

	changed := make(map[string]bool)
	for _, ch := range diff.Changes() {
		changed[ch.PageID] = true
	}
	for _, n := range nodes {
		link, tracked := run.state.Pages[n.ID]
		if n.Kind == domain.NodeFolder || !tracked || changed[n.ID] {
			continue
		}
		current := domain.NormalizeLocalPath(link.LocalPath)
		if path.Dir(current) != path.Dir(planned[n.ID]) {
			run.relocations = append(run.relocations, domain.Change{
				Type:      domain.ChangeModified,
				PageID:    n.ID,
				Title:     n.Title,
				LocalPath: planned[n.ID],
			})
		}
	}
	return diff, nil
}

// withinDepth keeps the changes for visible nodes and gives them their planned paths
func withinDepth(changes []domain.Change, visible map[string]bool, planned map[string]string) []domain.Change {
	out := changes[:0]
	for _, ch := range changes {
		if !visible[ch.PageID] {
			continue
		}
		ch.LocalPath = planned[ch.PageID]
		out = append(out, ch)
	}
	return out
}

// relocate rewrites up-to-date pages whose directory changed, e.g. a page that gained
// its first child and now owns a directory. They are not part of the diff.
func (c *SyncCommand) relocate(ctx context.Context, run *syncRun) error {
	moves := applyOrder(domain.SyncDiff{Modified: run.relocations}, run.containers)
	for _, change := range moves {
		if ctx.Err() != nil {
			return nil
		}
		from := run.state.Pages[change.PageID].LocalPath
		moved, err := c.applyPage(ctx, run, change)
		if err != nil {
			var folderErr *application.FolderHierarchyError
			if errors.As(err, &folderErr) {
				return err
			}
			run.result.Warn("Could not move %q from %s to %s: %v", change.Title, from, change.LocalPath, err)
			if run.containers[change.PageID] {
				run.blocked[domain.ContainerDir(change.LocalPath)] = change.Title
			}
			continue
		}
		if !moved {
			continue
		}
		run.logger.Info().Str("page", change.PageID).Str("from", from).Str("to", change.LocalPath).Msg("moved page")
	}
	return nil
}

// reconcileFolders records remote folders under their planned directories
func (c *SyncCommand) reconcileFolders(run *syncRun, nodes []domain.RemoteNode, planned map[string]string) {
	for _, n := range nodes {
		if n.Kind != domain.NodeFolder {
			continue
		}
		dir := planned[n.ID]
		if owner, ok := run.state.FolderIDForPath(dir); ok && owner != n.ID {
			run.result.Warn("Folder %q maps to %s, which is already tracked by folder %s", n.Title, dir, owner)
			continue
		}
		run.state.SetFolder(n.ID, domain.FolderLink{Title: n.Title, ParentID: n.ParentID, LocalPath: dir})
	}
}

// previewFolders reports pages whose folders a real run would have to create
func (c *SyncCommand) previewFolders(ctx context.Context, run *syncRun, diff domain.SyncDiff) error {
	pending := append(append([]domain.Change{}, diff.Added...), diff.Modified...)
	for _, change := range pending {
		fr, err := c.folders.EnsureKnown(ctx, run.state, run.dirOwners, c.Options.WorkDir, folderAnchor(change, run.containers), true)
		if err != nil {
			var folderErr *application.FolderHierarchyError
			if errors.As(err, &folderErr) {
				return err
			}
			run.result.Warn("%s: %v", change.Title, err)
			continue
		}
		if fr.NeedsFolders {
			run.result.Warn("%s: would create folders for %s", change.Title, path.Dir(change.LocalPath))
		}
	}
	return nil
}

// buildLookup indexes scanned pages plus where this run will put the pages it pulls
func (c *SyncCommand) buildLookup(run *syncRun, diff domain.SyncDiff) {
	lookupCache := run.cache.Clone()
	pending := append(append([]domain.Change{}, diff.Added...), diff.Modified...)
	for _, change := range append(pending, run.relocations...) {
		lookupCache.Add(domain.PageInfo{
			PageID:    change.PageID,
			LocalPath: change.LocalPath,
			Title:     change.Title,
			Version:   run.cache.Version(change.PageID),
		})
	}
	lookup, warnings := domain.BuildLookupMap(lookupCache, true)
	run.lookup = lookup
	run.result.Warnings = append(run.result.Warnings, warnings...)
}

// applyOrder puts pages before deletions and every container page before the pages
// inside its directory. Ties keep diff order.
func applyOrder(diff domain.SyncDiff, containers map[string]bool) []domain.Change {
	pending := append(append([]domain.Change{}, diff.Added...), diff.Modified...)
	sort.SliceStable(pending, func(i, j int) bool {
		return folderLevel(pending[i], containers) < folderLevel(pending[j], containers)
	})
	return append(pending, diff.Deleted...)
}

func folderLevel(change domain.Change, containers map[string]bool) int {
	return len(domain.SplitDir(path.Dir(folderAnchor(change, containers))))
}

// folderAnchor is the path whose directories must exist before the page is written.
// A container page sits inside the directory it owns, so its anchor is that directory.
func folderAnchor(change domain.Change, containers map[string]bool) string {
	if containers[change.PageID] && domain.IsContainerPath(change.LocalPath) {
		return domain.ContainerDir(change.LocalPath)
	}
	return change.LocalPath
}

func (c *SyncCommand) applyDelete(run *syncRun, change domain.Change) (bool, error) {
	if change.LocalPath != "" && c.pages.Exists(change.LocalPath) {
		if err := c.pages.Remove(change.LocalPath); err != nil {
			return false, fmt.Errorf("failed to remove %s: %w", change.LocalPath, err)
		}
	}
	delete(run.state.Pages, change.PageID)
	if err := c.store.Save(run.state); err != nil {
		return false, fmt.Errorf("failed to save state: %w", err)
	}
	run.logger.Info().Str("page", change.PageID).Str("path", change.LocalPath).Msg("removed page")
	return true, nil
}

// applyPage fetches, converts and writes one page. It returns false without an
// error when the page is skipped with a warning.
func (c *SyncCommand) applyPage(ctx context.Context, run *syncRun, change domain.Change) (bool, error) {
	localPath := domain.NormalizeLocalPath(change.LocalPath)
	isContainer := run.containers[change.PageID]

	if domain.IsReservedFilename(localPath, isContainer) {
		run.result.Warn("Skipping %q: %s is a reserved file name", change.Title, localPath)
		return false, nil
	}
	if owner, ok := run.state.PageIDForPath(localPath); ok && owner != change.PageID {
		run.result.Warn("Skipping %q: %s is already tracked by page %s", change.Title, localPath, owner)
		return false, nil
	}
	if owner, ok := run.cache.PathToPageID[localPath]; ok && owner != change.PageID {
		run.result.Warn("Skipping %q: %s belongs to page %s", change.Title, localPath, owner)
		return false, nil
	}
	for dir, title := range run.blocked {
		if localPath == dir || len(localPath) > len(dir) && localPath[:len(dir)+1] == dir+"/" {
			return false, fmt.Errorf("parent page %q was not synced", title)
		}
	}

	doc, err := c.remote.FetchContent(context.WithoutCancel(ctx), change.PageID)
	if err != nil {
		return false, fmt.Errorf("failed to fetch content: %w", err)
	}
	author := c.userName(ctx, run, doc.AuthorID)
	editor := c.userName(ctx, run, doc.LastEditorID)

	if path.Dir(folderAnchor(change, run.containers)) != "." {
		fr, err := c.folders.EnsureKnown(ctx, run.state, run.dirOwners, c.Options.WorkDir, folderAnchor(change, run.containers), false)
		if err != nil {
			return false, err
		}
		run.result.Warnings = append(run.result.Warnings, fr.Notices...)
	}

	converted, err := c.converter.ToLocal(doc.Body, run.lookup, localPath)
	if err != nil {
		return false, fmt.Errorf("failed to convert content: %w", err)
	}
	for _, w := range converted.Warnings {
		run.result.Warn("%s: %s", doc.Title, w)
	}

	if !domain.IsWithin(c.Options.WorkDir, filepath.Join(c.Options.WorkDir, filepath.FromSlash(localPath))) {
		return false, fmt.Errorf("refusing to write %s outside the working directory", localPath)
	}

	meta := domain.PageMeta{
		PageID:     doc.ID,
		Title:      doc.Title,
		Version:    doc.Version,
		SpaceKey:   run.state.RemoteRootKey,
		ParentID:   doc.ParentID,
		Author:     author,
		LastEditor: editor,
		URL:        doc.WebURL,
	}
	var lastModified *time.Time
	if !doc.LastModified.IsZero() {
		t := doc.LastModified.UTC()
		lastModified = &t
		meta.LastModified = &t
	}

	if err := c.pages.Write(localPath, meta, converted.Text); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", localPath, err)
	}

	if prev, ok := run.state.Pages[change.PageID]; ok {
		prevPath := domain.NormalizeLocalPath(prev.LocalPath)
		if prevPath != localPath && c.pages.Exists(prevPath) {
			if err := c.pages.Remove(prevPath); err != nil {
				run.result.Warn("%s: could not remove previous file %s: %v", doc.Title, prevPath, err)
			}
		}
	}

	run.state.SetPage(change.PageID, domain.PageLink{
		LocalPath:    localPath,
		Version:      doc.Version,
		LastModified: lastModified,
		ContentHash:  domain.ContentHash(converted.Text),
	})
	if err := c.store.Save(run.state); err != nil {
		return false, fmt.Errorf("failed to save state: %w", err)
	}

	run.logger.Debug().
		Str("page", change.PageID).
		Str("path", localPath).
		Int("version", doc.Version).
		Msg("wrote page")
	return true, nil
}

// userName resolves an account ID once per run; lookup failures fall back to the ID
func (c *SyncCommand) userName(ctx context.Context, run *syncRun, accountID string) string {
	if accountID == "" {
		return ""
	}
	if user, ok := run.users[accountID]; ok {
		if user == nil {
			return accountID
		}
		return user.Name()
	}

	user, err := c.remote.FetchUser(context.WithoutCancel(ctx), accountID)
	if err != nil {
		run.logger.Warn().Err(err).Str("account", accountID).Msg("user lookup failed")
		run.users[accountID] = nil
		return accountID
	}
	run.users[accountID] = user
	return user.Name()
}
