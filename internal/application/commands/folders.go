package commands

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"spacesync/internal/application"
	"spacesync/internal/domain"
	"spacesync/internal/ports"
)

// MaxFolderDepth is the deepest directory chain mirrored as remote folders
const MaxFolderDepth = 10

// FolderResult is the outcome of ensuring the folder chain for one file
type FolderResult struct {
	ParentID     string   // empty when the file lives at the root or a dry run stopped early
	Notices      []string // sanitized folder titles
	NeedsFolders bool     // dry run found folders that would be created
	Created      []string // IDs of folders created by this call
}

// FolderHierarchy mirrors local directories as remote folders and records them in
// the space state. State is saved after every folder it creates.
type FolderHierarchy struct {
	remote ports.RemoteStore
	store  ports.StateStore
	logger zerolog.Logger
}

// NewFolderHierarchy creates a new FolderHierarchy
func NewFolderHierarchy(remote ports.RemoteStore, store ports.StateStore, logger zerolog.Logger) *FolderHierarchy {
	return &FolderHierarchy{remote: remote, store: store, logger: logger}
}

// Ensure makes sure every directory above filePath exists remotely and returns the
// ID of the immediate parent. filePath is relative to workDir or absolute inside it.
func (h *FolderHierarchy) Ensure(ctx context.Context, state *domain.SpaceState, workDir, filePath string, dryRun bool) (*FolderResult, error) {
	return h.EnsureKnown(ctx, state, nil, workDir, filePath, dryRun)
}

// EnsureKnown is Ensure with extra directory owners (directory -> remote ID) that
// count as existing even though the state does not track them yet.
func (h *FolderHierarchy) EnsureKnown(ctx context.Context, state *domain.SpaceState, known map[string]string, workDir, filePath string, dryRun bool) (*FolderResult, error) {
	result := &FolderResult{}

	rel, err := relativeToWorkDir(workDir, filePath)
	if err != nil {
		return nil, err
	}

	rel = strings.TrimPrefix(rel, "./")
	rawDir := "."
	if i := strings.LastIndex(rel, "/"); i >= 0 {
		rawDir = rel[:i]
	}
	for _, seg := range strings.Split(rawDir, "/") {
		if seg == ".." {
			return nil, &application.FolderHierarchyError{
				Path:   filePath,
				Reason: "path traversal is not allowed",
				Code:   application.CodeInvalidPath,
			}
		}
	}

	segments := domain.SplitDir(rawDir)
	if len(segments) == 0 {
		return result, nil
	}
	if len(segments) > MaxFolderDepth {
		return nil, &application.FolderHierarchyError{
			Path:   filePath,
			Reason: fmt.Sprintf("folder depth %d exceeds the maximum of %d", len(segments), MaxFolderDepth),
			Code:   application.CodeDepthExceeded,
		}
	}

	state.Normalize()
	parentID := ""
	current := ""
	for _, seg := range segments {
		current = path.Join(current, seg)

		if id, ok := state.FolderIDForPath(current); ok {
			parentID = id
			continue
		}
		// a page written as <dir>/README.md already stands for its directory
		if id, ok := state.PageIDForPath(path.Join(current, domain.IndexFileName)); ok {
			parentID = id
			continue
		}
		if id, ok := known[current]; ok {
			parentID = id
			continue
		}

		title, changed := domain.SanitizeFolderTitle(seg)
		if title == "" {
			return nil, &application.FolderHierarchyError{
				Path:   current,
				Reason: "folder name is empty after sanitizing",
				Code:   application.CodeInvalidPath,
			}
		}
		if changed {
			result.Notices = append(result.Notices, fmt.Sprintf("Folder %q will be created as %q", seg, title))
		}

		if dryRun {
			result.ParentID = ""
			result.NeedsFolders = true
			return result, nil
		}

		folder, err := h.remote.CreateFolder(context.WithoutCancel(ctx), domain.FolderRequest{
			SpaceID:  state.RemoteRootID,
			ParentID: parentID,
			Title:    title,
		})
		if err != nil {
			var apiErr *application.APIError
			if errors.As(err, &apiErr) && apiErr.IsDuplicate() {
				return nil, &application.FolderHierarchyError{
					Path:   current,
					Reason: fmt.Sprintf("a remote folder named %q already exists but is not tracked locally; run 'spacesync pull' to refresh before retrying", title),
					Code:   application.CodeFolderExists,
					Err:    err,
				}
			}
			return nil, fmt.Errorf("failed to create folder %q: %w", current, err)
		}

		state.SetFolder(folder.ID, domain.FolderLink{
			Title:     folder.Title,
			ParentID:  parentID,
			LocalPath: current,
		})
		if err := h.store.Save(state); err != nil {
			return nil, fmt.Errorf("failed to save state after creating folder %q: %w", current, err)
		}

		h.logger.Info().
			Str("folder", folder.ID).
			Str("path", current).
			Str("parent", parentID).
			Msg("created remote folder")

		result.Created = append(result.Created, folder.ID)
		parentID = folder.ID
	}

	result.ParentID = parentID
	return result, nil
}

// relativeToWorkDir expresses filePath as a slash path relative to workDir
func relativeToWorkDir(workDir, filePath string) (string, error) {
	if !filepath.IsAbs(filePath) {
		return filepath.ToSlash(strings.TrimSpace(filePath)), nil
	}

	rel, err := filepath.Rel(workDir, filePath)
	if err != nil {
		return "", &application.FolderHierarchyError{
			Path:   filePath,
			Reason: "path is not inside the working directory",
			Code:   application.CodeInvalidPath,
			Err:    err,
		}
	}
	return filepath.ToSlash(rel), nil
}
