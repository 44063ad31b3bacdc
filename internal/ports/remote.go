package ports

import (
	"context"

	"spacesync/internal/domain"
)

// RemoteStore is the typed client for the remote document store.
// Implementations retry rate-limited calls internally and surface the
// error kinds defined in the application package.
type RemoteStore interface {
	FetchSpace(ctx context.Context, key string) (*domain.Space, error)
	FetchTree(ctx context.Context, rootID string) ([]domain.RemoteNode, error)
	FetchContent(ctx context.Context, pageID string) (*domain.RemoteDocument, error)
	FetchUser(ctx context.Context, accountID string) (*domain.User, error)

	CreateFolder(ctx context.Context, req domain.FolderRequest) (*domain.Folder, error)
	Update(ctx context.Context, pageID string, req domain.UpdateRequest) (*domain.RemoteDocument, error)
	Move(ctx context.Context, pageID, newParentID string) error
}
