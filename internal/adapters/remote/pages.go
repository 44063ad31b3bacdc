package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"spacesync/internal/application"
	"spacesync/internal/domain"
)

const (
	parentTypePage   = "page"
	parentTypeFolder = "folder"
	pageListLimit    = 250
)

// FetchSpace looks up a space by key
func (c *Client) FetchSpace(ctx context.Context, key string) (*domain.Space, error) {
	status, data, err := c.do(ctx, http.MethodGet, apiPrefix+"/spaces?keys="+url.QueryEscape(key), nil)
	if err != nil {
		return nil, err
	}
	if !isSuccess(status) {
		return nil, statusError(status, data, key)
	}

	var list spaceListPayload
	if err := decode(status, data, &list); err != nil {
		return nil, err
	}
	for _, s := range list.Results {
		if s.Key == key {
			return &domain.Space{ID: s.ID, Key: s.Key, Name: s.Name}, nil
		}
	}
	return nil, &application.NotFoundError{ID: key}
}

// FetchTree lists every current page of a space plus the folders above them.
// Pages come first in API order, then folders in discovery order.
func (c *Client) FetchTree(ctx context.Context, spaceID string) ([]domain.RemoteNode, error) {
	var nodes []domain.RemoteNode
	folderIDs := map[string]bool{}
	var pendingFolders []string

	next := fmt.Sprintf("%s/spaces/%s/pages?status=current&limit=%d", apiPrefix, url.PathEscape(spaceID), pageListLimit)
	for next != "" {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		status, data, err := c.do(ctx, http.MethodGet, next, nil)
		if err != nil {
			return nil, err
		}
		if !isSuccess(status) {
			return nil, statusError(status, data, spaceID)
		}

		var page pageListPayload
		if err := decode(status, data, &page); err != nil {
			return nil, err
		}
		for _, p := range page.Results {
			nodes = append(nodes, domain.RemoteNode{
				ID:       p.ID,
				Title:    p.Title,
				ParentID: p.ParentID,
				Version:  p.Version.Number,
				Kind:     domain.NodePage,
			})
			if p.ParentType == parentTypeFolder && p.ParentID != "" && !folderIDs[p.ParentID] {
				folderIDs[p.ParentID] = true
				pendingFolders = append(pendingFolders, p.ParentID)
			}
		}
		next = page.Links.Next
	}

	for len(pendingFolders) > 0 {
		id := pendingFolders[0]
		pendingFolders = pendingFolders[1:]

		folder, err := c.fetchFolder(ctx, id)
		if err != nil {
			var notFound *application.NotFoundError
			if errors.As(err, &notFound) {
				continue
			}
			return nil, err
		}
		nodes = append(nodes, domain.RemoteNode{
			ID:       folder.ID,
			Title:    folder.Title,
			ParentID: folder.ParentID,
			Kind:     domain.NodeFolder,
		})
		if folder.ParentType == parentTypeFolder && folder.ParentID != "" && !folderIDs[folder.ParentID] {
			folderIDs[folder.ParentID] = true
			pendingFolders = append(pendingFolders, folder.ParentID)
		}
	}

	return nodes, nil
}

// FetchContent returns a page with its storage-format body
func (c *Client) FetchContent(ctx context.Context, pageID string) (*domain.RemoteDocument, error) {
	status, data, err := c.do(ctx, http.MethodGet,
		fmt.Sprintf("%s/pages/%s?body-format=storage", apiPrefix, url.PathEscape(pageID)), nil)
	if err != nil {
		return nil, err
	}
	if !isSuccess(status) {
		return nil, statusError(status, data, pageID)
	}

	var p pagePayload
	if err := decode(status, data, &p); err != nil {
		return nil, err
	}
	return c.document(&p), nil
}

func (c *Client) document(p *pagePayload) *domain.RemoteDocument {
	doc := &domain.RemoteDocument{
		ID:           p.ID,
		Title:        p.Title,
		ParentID:     p.ParentID,
		Version:      p.Version.Number,
		Body:         p.Body.Storage.Value,
		AuthorID:     p.AuthorID,
		LastEditorID: p.Version.AuthorID,
		LastModified: p.Version.CreatedAt,
	}
	if p.Links.WebUI != "" {
		base := p.Links.Base
		if base == "" {
			base = c.baseURL + "/wiki"
		}
		doc.WebURL = base + p.Links.WebUI
	}
	return doc
}

// FetchUser resolves an account ID to a user
func (c *Client) FetchUser(ctx context.Context, accountID string) (*domain.User, error) {
	status, data, err := c.do(ctx, http.MethodGet, "/wiki/rest/api/user?accountId="+url.QueryEscape(accountID), nil)
	if err != nil {
		return nil, err
	}
	if !isSuccess(status) {
		return nil, statusError(status, data, accountID)
	}

	var u userPayload
	if err := decode(status, data, &u); err != nil {
		return nil, err
	}
	name := u.DisplayName
	if name == "" {
		name = u.PublicName
	}
	return &domain.User{AccountID: u.AccountID, DisplayName: name, Email: u.Email}, nil
}

// Update replaces a page's title and body. req.Version is the version the
// caller last saw; the remote answers 409 when it has moved on.
func (c *Client) Update(ctx context.Context, pageID string, req domain.UpdateRequest) (*domain.RemoteDocument, error) {
	payload := updatePageRequest{
		ID:     pageID,
		Status: "current",
		Title:  req.Title,
		Body:   storageBody{Representation: "storage", Value: req.Body},
	}
	payload.Version.Number = req.Version + 1

	status, data, err := c.do(ctx, http.MethodPut, fmt.Sprintf("%s/pages/%s", apiPrefix, url.PathEscape(pageID)), payload)
	if err != nil {
		return nil, err
	}
	if status == http.StatusConflict {
		conflict := &application.VersionConflictError{PageID: pageID, Local: req.Version}
		if current, err := c.FetchContent(ctx, pageID); err == nil {
			conflict.Remote = current.Version
		}
		return nil, conflict
	}
	if !isSuccess(status) {
		return nil, statusError(status, data, pageID)
	}

	var p pagePayload
	if err := decode(status, data, &p); err != nil {
		return nil, err
	}
	return c.document(&p), nil
}

// Move re-parents a page under another page or folder
func (c *Client) Move(ctx context.Context, pageID, newParentID string) error {
	if newParentID == "" {
		return fmt.Errorf("cannot move page %s: no target parent", pageID)
	}

	status, data, err := c.do(ctx, http.MethodPut,
		fmt.Sprintf("/wiki/rest/api/content/%s/move/append/%s", url.PathEscape(pageID), url.PathEscape(newParentID)), nil)
	if err != nil {
		return err
	}
	if !isSuccess(status) {
		return statusError(status, data, pageID)
	}
	return nil
}
