package mcp

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spacesync/internal/adapters/convert"
	"spacesync/internal/adapters/filesystem"
	"spacesync/internal/application"
	"spacesync/internal/domain"
)

// stubRemote serves a fixed single-page space
type stubRemote struct {
	nodes []domain.RemoteNode
	docs  map[string]*domain.RemoteDocument
}

func (r *stubRemote) FetchSpace(ctx context.Context, key string) (*domain.Space, error) {
	return &domain.Space{ID: "root", Key: key, Name: "Docs"}, nil
}

func (r *stubRemote) FetchTree(ctx context.Context, rootID string) ([]domain.RemoteNode, error) {
	return r.nodes, nil
}

func (r *stubRemote) FetchContent(ctx context.Context, pageID string) (*domain.RemoteDocument, error) {
	if doc, ok := r.docs[pageID]; ok {
		return doc, nil
	}
	return nil, &application.NotFoundError{ID: pageID}
}

func (r *stubRemote) FetchUser(ctx context.Context, accountID string) (*domain.User, error) {
	return &domain.User{AccountID: accountID, DisplayName: "Ada"}, nil
}

func (r *stubRemote) CreateFolder(ctx context.Context, req domain.FolderRequest) (*domain.Folder, error) {
	return &domain.Folder{ID: "f-" + req.Title, Title: req.Title, ParentID: req.ParentID}, nil
}

func (r *stubRemote) Update(ctx context.Context, pageID string, req domain.UpdateRequest) (*domain.RemoteDocument, error) {
	return &domain.RemoteDocument{ID: pageID, Title: req.Title, Version: req.Version + 1}, nil
}

func (r *stubRemote) Move(ctx context.Context, pageID, newParentID string) error {
	return nil
}

func newTestDeps(t *testing.T) (Deps, afero.Fs) {
	t.Helper()
	fsys := afero.NewMemMapFs()
	remote := &stubRemote{
		nodes: []domain.RemoteNode{{ID: "1", Title: "Home", Version: 2}},
		docs: map[string]*domain.RemoteDocument{
			"1": {ID: "1", Title: "Home", Version: 2, Body: "<p>Hello</p>", WebURL: "https://site.example/wiki/home"},
		},
	}
	return Deps{
		WorkDir:   "/work",
		Remote:    remote,
		Converter: convert.New(),
		State:     filesystem.NewStateStore(fsys, "/work"),
		Pages:     filesystem.NewRepository(fsys, "/work"),
		Logger:    zerolog.Nop(),
	}, fsys
}

func callTool(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) (string, bool) {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args

	res, err := handler(context.Background(), req)
	require.NoError(t, err)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text, res.IsError
}

func initState(t *testing.T, deps Deps) {
	t.Helper()
	require.NoError(t, deps.State.Save(domain.NewSpaceState(domain.Space{ID: "root", Key: "DOCS", Name: "Docs"})))
}

func TestStatusTool_RequiresInit(t *testing.T) {
	deps, _ := newTestDeps(t)

	text, isErr := callTool(t, statusHandler(deps), nil)
	assert.True(t, isErr)
	assert.Contains(t, text, "spacesync init")
}

func TestDiffThenPull(t *testing.T) {
	deps, fsys := newTestDeps(t)
	initState(t, deps)

	text, isErr := callTool(t, diffHandler(deps), nil)
	require.False(t, isErr, text)
	assert.Contains(t, text, "Dry run")
	assert.Contains(t, text, "1 added")
	exists, _ := afero.Exists(fsys, "/work/Home.md")
	assert.False(t, exists, "diff must not write files")

	text, isErr = callTool(t, pullHandler(deps), map[string]any{})
	require.False(t, isErr, text)
	assert.Contains(t, text, "1 applied")

	meta, body, err := deps.Pages.Read("Home.md")
	require.NoError(t, err)
	assert.Equal(t, "1", meta.PageID)
	assert.Contains(t, body, "Hello")

	text, isErr = callTool(t, statusHandler(deps), nil)
	require.False(t, isErr, text)
	assert.Contains(t, text, "Tracked pages: 1")
	assert.Contains(t, text, "clean")
}

func TestResolveLinkTool(t *testing.T) {
	deps, _ := newTestDeps(t)
	initState(t, deps)
	_, isErr := callTool(t, pullHandler(deps), nil)
	require.False(t, isErr)

	text, isErr := callTool(t, resolveLinkHandler(deps), map[string]any{"ref": "Home"})
	require.False(t, isErr, text)
	assert.Contains(t, text, "Page ID: 1")
	assert.Contains(t, text, "Local path: Home.md")
	assert.Contains(t, text, "https://site.example/wiki/home")

	text, isErr = callTool(t, resolveLinkHandler(deps), map[string]any{})
	assert.True(t, isErr)
	assert.Contains(t, text, "ref is required")
}

func TestPushTool_DryRunReportsNothingWhenClean(t *testing.T) {
	deps, _ := newTestDeps(t)
	initState(t, deps)
	_, isErr := callTool(t, pullHandler(deps), nil)
	require.False(t, isErr)

	text, isErr := callTool(t, pushHandler(deps), map[string]any{"dry_run": true})
	require.False(t, isErr, text)
	assert.Contains(t, text, "Dry run")
	assert.Contains(t, text, "0 applied")
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a.md", "42"}, splitList(" a.md, ,42 "))
	assert.Nil(t, splitList(""))
}
