package ports

import "spacesync/internal/domain"

// ConvertResult is converted text plus anything that could not be converted cleanly
type ConvertResult struct {
	Text     string
	Warnings []string
}

// Converter translates page bodies between the remote storage format and markdown.
// Unresolved links are left as written and reported as warnings, never as errors.
type Converter interface {
	// ToLocal converts a remote body for the document at currentPath
	ToLocal(remoteBody string, lookup *domain.PageLookupMap, currentPath string) (*ConvertResult, error)

	// ToRemote converts local markdown back into the remote storage format
	ToRemote(localText string, lookup *domain.PageLookupMap, currentPath, spaceRoot string) (*ConvertResult, error)
}
