package domain

import "time"

// NodeKind tags a remote tree node
type NodeKind int

const (
	NodePage NodeKind = iota
	NodeFolder
)

func (k NodeKind) String() string {
	switch k {
	case NodePage:
		return "page"
	case NodeFolder:
		return "folder"
	default:
		return "unknown"
	}
}

// Space identifies the synced remote collection
type Space struct {
	ID   string
	Key  string
	Name string
}

// RemoteNode is one entry of the remote tree
type RemoteNode struct {
	ID       string
	Title    string
	ParentID string // empty at the root
	Version  int
	Kind     NodeKind
}

// RemoteDocument is a page with its content and metadata
type RemoteDocument struct {
	ID           string
	Title        string
	ParentID     string
	Version      int
	Body         string // storage format
	AuthorID     string
	LastEditorID string
	LastModified time.Time
	WebURL       string
}

// Folder is a remote container without content
type Folder struct {
	ID       string
	Title    string
	ParentID string
}

// User is a remote account identity
type User struct {
	AccountID   string
	DisplayName string
	Email       string
}

// Name returns the best human label for the user
func (u User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	if u.Email != "" {
		return u.Email
	}
	return u.AccountID
}

// UpdateRequest carries an optimistic-concurrency page update.
// Version is the version the caller believes is current.
type UpdateRequest struct {
	Version int
	Title   string
	Body    string
}

// FolderRequest describes a folder to create
type FolderRequest struct {
	SpaceID  string
	ParentID string
	Title    string
}
