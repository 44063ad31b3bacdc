package domain

import "time"

// IndexNode is a cached markdown file of the working directory
type IndexNode struct {
	Path    string // Relative slash path from the working directory (primary key)
	PageID  string // Empty for untracked files
	Title   string
	Version int
	Mtime   int64 // Unix nanoseconds for incremental scans
	Size    int64
	// ParseError is set when the front matter could not be read
	ParseError string
}

// Edge is a relative markdown link between two local files
type Edge struct {
	SourcePath string // File containing the link
	TargetPath string // Link resolved against the source's directory
	LinkText   string // Original link target as written
}

// IndexStats holds statistics from an index scan
type IndexStats struct {
	NodesAdded   int
	NodesUpdated int
	NodesDeleted int
	EdgesAdded   int
	FilesScanned int
	Duration     time.Duration
}
