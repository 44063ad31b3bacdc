package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"spacesync/internal/domain"
)

// CreateFolder creates a folder in a space, under ParentID when set
func (c *Client) CreateFolder(ctx context.Context, req domain.FolderRequest) (*domain.Folder, error) {
	payload := createFolderRequest{SpaceID: req.SpaceID, Title: req.Title, ParentID: req.ParentID}

	status, data, err := c.do(ctx, http.MethodPost, apiPrefix+"/folders", payload)
	if err != nil {
		return nil, err
	}
	if !isSuccess(status) {
		return nil, statusError(status, data, req.Title)
	}

	var f folderPayload
	if err := decode(status, data, &f); err != nil {
		return nil, err
	}
	title := f.Title
	if title == "" {
		title = req.Title
	}
	return &domain.Folder{ID: f.ID, Title: title, ParentID: f.ParentID}, nil
}

func (c *Client) fetchFolder(ctx context.Context, id string) (*folderPayload, error) {
	status, data, err := c.do(ctx, http.MethodGet, fmt.Sprintf("%s/folders/%s", apiPrefix, url.PathEscape(id)), nil)
	if err != nil {
		return nil, err
	}
	if !isSuccess(status) {
		return nil, statusError(status, data, id)
	}

	var f folderPayload
	if err := decode(status, data, &f); err != nil {
		return nil, err
	}
	return &f, nil
}
