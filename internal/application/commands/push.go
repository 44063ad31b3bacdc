package commands

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"spacesync/internal/application"
	"spacesync/internal/domain"
	"spacesync/internal/ports"
)

// PushOptions controls a push
type PushOptions struct {
	WorkDir string
	DryRun  bool
	Pages   []string // paths or IDs; every tracked page when empty

	// ChangedOnly skips named pages whose body is unchanged, as when every tracked page is pushed
	ChangedOnly bool
}

// PushCommand uploads locally edited pages. Each update carries the version the
// file was pulled at; a newer remote version is reported as a conflict, never merged.
type PushCommand struct {
	remote    ports.RemoteStore
	converter ports.Converter
	store     ports.StateStore
	pages     ports.PageRepository
	progress  safeProgress
	folders   *FolderHierarchy
	logger    zerolog.Logger

	Options PushOptions
}

// NewPushCommand creates a new PushCommand
func NewPushCommand(
	remote ports.RemoteStore,
	converter ports.Converter,
	store ports.StateStore,
	pages ports.PageRepository,
	progress ports.ProgressSink,
	logger zerolog.Logger,
	opts PushOptions,
) *PushCommand {
	return &PushCommand{
		remote:    remote,
		converter: converter,
		store:     store,
		pages:     pages,
		progress:  newSafeProgress(progress, logger),
		folders:   NewFolderHierarchy(remote, store, logger),
		logger:    logger,
		Options:   opts,
	}
}

// Validate checks if the push options are valid
func (c *PushCommand) Validate() error {
	return application.ValidateRequired("workDir", c.Options.WorkDir)
}

type pushItem struct {
	change domain.Change
	meta   domain.PageMeta
	body   string
}

// Execute runs the push
func (c *PushCommand) Execute(ctx context.Context) (*domain.SyncResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	logger := c.logger.With().Str("run", uuid.NewString()).Logger()

	if !c.store.Exists() {
		return nil, application.ErrStateNotFound
	}
	state, err := c.store.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}
	state.Normalize()

	cache, scanWarnings, err := c.pages.Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to scan local pages: %w", err)
	}

	result := domain.NewSyncResult()
	result.Warnings = append(result.Warnings, scanWarnings...)

	items, err := c.collect(state, cache, result)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		result.Changes.Modified = append(result.Changes.Modified, item.change)
	}
	c.progress.DiffCompleted(0, len(items), 0)

	if c.Options.DryRun {
		for _, item := range items {
			fr, err := c.folders.Ensure(ctx, state, c.Options.WorkDir, pushAnchor(item.change.LocalPath), true)
			if err != nil {
				return result, err
			}
			if fr.NeedsFolders {
				result.Warn("%s: would create folders for %s", item.change.Title, item.change.LocalPath)
			}
		}
		return result, nil
	}

	lookup, dupWarnings := domain.BuildLookupMap(cache, true)
	result.Warnings = append(result.Warnings, dupWarnings...)

	for _, item := range items {
		if ctx.Err() != nil {
			result.Cancelled = true
			break
		}

		c.progress.ItemStarted(item.change)
		if err := c.pushPage(ctx, state, lookup, item, result); err != nil {
			c.progress.ItemFailed(item.change, err)
			var folderErr *application.FolderHierarchyError
			if errors.As(err, &folderErr) {
				return result, err
			}
			result.Fail("Failed to push page %q: %v", item.change.Title, err)
			logger.Error().Err(err).Str("page", item.change.PageID).Msg("page push failed")
			continue
		}
		result.Applied++
		c.progress.ItemCompleted(item.change)
	}

	logger.Info().Str("summary", result.Summary()).Msg("push finished")
	return result, nil
}

// collect finds tracked pages whose body changed since the last pull or push
func (c *PushCommand) collect(state *domain.SpaceState, cache *domain.PageStateCache, result *domain.SyncResult) ([]pushItem, error) {
	var ids []string
	if len(c.Options.Pages) > 0 {
		resolved, warnings := domain.ResolveSpecificPages(c.Options.Pages, state, cache)
		ids = resolved
		result.Warnings = append(result.Warnings, warnings...)
	} else {
		for id := range state.Pages {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		files, err := c.pages.ListMarkdown()
		if err != nil {
			return nil, fmt.Errorf("failed to list local pages: %w", err)
		}
		for _, f := range files {
			if _, ok := state.PageIDForPath(f); !ok {
				result.Warn("Untracked file %s is not pushed; only pulled pages can be updated", f)
			}
		}
	}

	var items []pushItem
	for _, id := range ids {
		link := state.Pages[id]
		if !c.pages.Exists(link.LocalPath) {
			result.Warn("Tracked page %s is missing locally: %s", id, link.LocalPath)
			continue
		}
		meta, body, err := c.pages.Read(link.LocalPath)
		if err != nil {
			result.Fail("Failed to read %s: %v", link.LocalPath, err)
			continue
		}
		if meta.PageID != "" && meta.PageID != id {
			result.Warn("Skipping %s: front matter names page %s but the state tracks %s", link.LocalPath, meta.PageID, id)
			continue
		}
		if (len(c.Options.Pages) == 0 || c.Options.ChangedOnly) && domain.ContentHash(body) == link.ContentHash {
			continue
		}

		title := meta.Title
		if title == "" {
			title = domain.TitleFromPath(link.LocalPath)
			meta.Title = title
		}
		if meta.Version == 0 {
			meta.Version = link.Version
		}
		meta.PageID = id

		items = append(items, pushItem{
			change: domain.Change{Type: domain.ChangeModified, PageID: id, Title: title, LocalPath: link.LocalPath},
			meta:   meta,
			body:   body,
		})
	}
	return items, nil
}

func (c *PushCommand) pushPage(ctx context.Context, state *domain.SpaceState, lookup *domain.PageLookupMap, item pushItem, result *domain.SyncResult) error {
	localPath := domain.NormalizeLocalPath(item.change.LocalPath)

	fr, err := c.folders.Ensure(ctx, state, c.Options.WorkDir, pushAnchor(localPath), false)
	if err != nil {
		return err
	}
	result.Warnings = append(result.Warnings, fr.Notices...)

	converted, err := c.converter.ToRemote(item.body, lookup, localPath, ".")
	if err != nil {
		return fmt.Errorf("failed to convert content: %w", err)
	}
	for _, w := range converted.Warnings {
		result.Warn("%s: %s", item.change.Title, w)
	}

	doc, err := c.remote.Update(context.WithoutCancel(ctx), item.change.PageID, domain.UpdateRequest{
		Version: item.meta.Version,
		Title:   item.meta.Title,
		Body:    converted.Text,
	})
	if err != nil {
		return err
	}

	meta := item.meta
	if fr.ParentID != "" && fr.ParentID != meta.ParentID && fr.ParentID != item.change.PageID {
		if err := c.remote.Move(context.WithoutCancel(ctx), item.change.PageID, fr.ParentID); err != nil {
			result.Warn("%s: updated but could not be moved under %s: %v", item.change.Title, fr.ParentID, err)
		} else {
			meta.ParentID = fr.ParentID
		}
	}

	meta.Version = doc.Version
	var lastModified *time.Time
	if !doc.LastModified.IsZero() {
		t := doc.LastModified.UTC()
		lastModified = &t
		meta.LastModified = &t
	}
	if doc.WebURL != "" {
		meta.URL = doc.WebURL
	}

	if err := c.pages.Write(localPath, meta, item.body); err != nil {
		return fmt.Errorf("pushed version %d but failed to update %s: %w", doc.Version, localPath, err)
	}

	state.SetPage(item.change.PageID, domain.PageLink{
		LocalPath:    localPath,
		Version:      doc.Version,
		LastModified: lastModified,
		ContentHash:  domain.ContentHash(item.body),
	})
	if err := c.store.Save(state); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}

	c.logger.Debug().Str("page", item.change.PageID).Int("version", doc.Version).Msg("pushed page")
	return nil
}

// pushAnchor is the path whose directories hold the page's remote parent
func pushAnchor(localPath string) string {
	if domain.IsContainerPath(localPath) {
		return domain.ContainerDir(localPath)
	}
	return localPath
}
