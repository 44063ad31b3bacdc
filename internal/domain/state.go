package domain

import (
	"fmt"
	"sort"
	"time"
)

// SpaceState is the persisted record of what has been synced for one working directory
type SpaceState struct {
	RemoteRootID   string                `json:"remoteRootId"`
	RemoteRootKey  string                `json:"remoteRootKey"`
	RemoteRootName string                `json:"remoteRootName"`
	Pages          map[string]PageLink   `json:"pages"`
	Folders        map[string]FolderLink `json:"folders"`
	LastSyncAt     *time.Time            `json:"lastSyncAt,omitempty"`
}

// PageLink ties a remote page ID to its local file
type PageLink struct {
	LocalPath    string     `json:"localPath"`
	Version      int        `json:"version,omitempty"` // 0 when unknown
	LastModified *time.Time `json:"lastModified,omitempty"`
	ContentHash  string     `json:"contentHash,omitempty"` // body hash at last pull or push
}

// FolderLink ties a remote folder ID to a local directory
type FolderLink struct {
	Title     string `json:"title"`
	ParentID  string `json:"parentId,omitempty"`
	LocalPath string `json:"localPath"`
}

// NewSpaceState returns an initialized state for a remote space
func NewSpaceState(space Space) *SpaceState {
	return &SpaceState{
		RemoteRootID:   space.ID,
		RemoteRootKey:  space.Key,
		RemoteRootName: space.Name,
		Pages:          map[string]PageLink{},
		Folders:        map[string]FolderLink{},
	}
}

// Normalize replaces nil maps after decoding
func (s *SpaceState) Normalize() {
	if s.Pages == nil {
		s.Pages = map[string]PageLink{}
	}
	if s.Folders == nil {
		s.Folders = map[string]FolderLink{}
	}
}

// DuplicatePathError reports two remote IDs claiming the same local path
type DuplicatePathError struct {
	Kind      string // "page" or "folder"
	LocalPath string
	IDs       []string
}

func (e *DuplicatePathError) Error() string {
	return fmt.Sprintf("%s path %q is claimed by %v", e.Kind, e.LocalPath, e.IDs)
}

// Validate checks that pages and folders are each injective on LocalPath
func (s *SpaceState) Validate() error {
	if err := checkInjective("page", pageOwners(s.Pages)); err != nil {
		return err
	}
	return checkInjective("folder", folderOwners(s.Folders))
}

func pageOwners(pages map[string]PageLink) map[string][]string {
	owners := make(map[string][]string, len(pages))
	for id, link := range pages {
		p := NormalizeLocalPath(link.LocalPath)
		owners[p] = append(owners[p], id)
	}
	return owners
}

func folderOwners(folders map[string]FolderLink) map[string][]string {
	owners := make(map[string][]string, len(folders))
	for id, link := range folders {
		p := NormalizeLocalPath(link.LocalPath)
		owners[p] = append(owners[p], id)
	}
	return owners
}

func checkInjective(kind string, owners map[string][]string) error {
	paths := make([]string, 0, len(owners))
	for p := range owners {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		if ids := owners[p]; len(ids) > 1 {
			sort.Strings(ids)
			return &DuplicatePathError{Kind: kind, LocalPath: p, IDs: ids}
		}
	}
	return nil
}

// PageIDForPath returns the tracked page that owns localPath
func (s *SpaceState) PageIDForPath(localPath string) (string, bool) {
	want := NormalizeLocalPath(localPath)
	for id, link := range s.Pages {
		if NormalizeLocalPath(link.LocalPath) == want {
			return id, true
		}
	}
	return "", false
}

// FolderIDForPath returns the tracked folder whose directory is localPath
func (s *SpaceState) FolderIDForPath(localPath string) (string, bool) {
	want := NormalizeLocalPath(localPath)
	for id, link := range s.Folders {
		if NormalizeLocalPath(link.LocalPath) == want {
			return id, true
		}
	}
	return "", false
}

// SetPage records a page under its normalized path
func (s *SpaceState) SetPage(id string, link PageLink) {
	s.Normalize()
	link.LocalPath = NormalizeLocalPath(link.LocalPath)
	s.Pages[id] = link
}

// SetFolder records a folder
func (s *SpaceState) SetFolder(id string, link FolderLink) {
	s.Normalize()
	link.LocalPath = NormalizeLocalPath(link.LocalPath)
	s.Folders[id] = link
}

// MarkSynced sets LastSyncAt
func (s *SpaceState) MarkSynced(at time.Time) {
	at = at.UTC()
	s.LastSyncAt = &at
}
