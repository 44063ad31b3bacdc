package remote

import (
	"errors"
	"time"
)

type linksPayload struct {
	Next  string `json:"next"`
	Base  string `json:"base"`
	WebUI string `json:"webui"`
}

type spacePayload struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Name string `json:"name"`
}

type spaceListPayload struct {
	Results []spacePayload `json:"results"`
}

func (p *spaceListPayload) validate() error {
	for _, s := range p.Results {
		if s.ID == "" || s.Key == "" {
			return errors.New("space without id or key")
		}
	}
	return nil
}

type versionPayload struct {
	Number    int       `json:"number"`
	CreatedAt time.Time `json:"createdAt"`
	AuthorID  string    `json:"authorId"`
}

type pageSummary struct {
	ID         string         `json:"id"`
	Title      string         `json:"title"`
	ParentID   string         `json:"parentId"`
	ParentType string         `json:"parentType"`
	Version    versionPayload `json:"version"`
}

type pageListPayload struct {
	Results []pageSummary `json:"results"`
	Links   linksPayload  `json:"_links"`
}

func (p *pageListPayload) validate() error {
	for _, page := range p.Results {
		if page.ID == "" {
			return errors.New("page without id")
		}
	}
	return nil
}

type pagePayload struct {
	ID         string         `json:"id"`
	Title      string         `json:"title"`
	ParentID   string         `json:"parentId"`
	ParentType string         `json:"parentType"`
	AuthorID   string         `json:"authorId"`
	Version    versionPayload `json:"version"`
	Body       struct {
		Storage struct {
			Value string `json:"value"`
		} `json:"storage"`
	} `json:"body"`
	Links linksPayload `json:"_links"`
}

func (p *pagePayload) validate() error {
	if p.ID == "" {
		return errors.New("page without id")
	}
	if p.Version.Number <= 0 {
		return errors.New("page without version number")
	}
	return nil
}

type folderPayload struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	ParentID   string `json:"parentId"`
	ParentType string `json:"parentType"`
}

func (p *folderPayload) validate() error {
	if p.ID == "" {
		return errors.New("folder without id")
	}
	return nil
}

type userPayload struct {
	AccountID   string `json:"accountId"`
	DisplayName string `json:"displayName"`
	PublicName  string `json:"publicName"`
	Email       string `json:"email"`
}

func (p *userPayload) validate() error {
	if p.AccountID == "" {
		return errors.New("user without accountId")
	}
	return nil
}

type storageBody struct {
	Representation string `json:"representation"`
	Value          string `json:"value"`
}

type updatePageRequest struct {
	ID      string      `json:"id"`
	Status  string      `json:"status"`
	Title   string      `json:"title"`
	Body    storageBody `json:"body"`
	Version struct {
		Number int `json:"number"`
	} `json:"version"`
}

type createFolderRequest struct {
	SpaceID  string `json:"spaceId"`
	Title    string `json:"title"`
	ParentID string `json:"parentId,omitempty"`
}
