package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"spacesync/internal/domain"
	"spacesync/internal/ports"
)

// fakeRemote is an in-memory remote store
type fakeRemote struct {
	space      domain.Space
	nodes      []domain.RemoteNode
	docs       map[string]*domain.RemoteDocument
	users      map[string]*domain.User
	treeErr    error
	contentErr map[string]error
	createErr  error
	updateErr  map[string]error

	fetchedContent []string
	userCalls      int
	created        []domain.FolderRequest
	updates        map[string]domain.UpdateRequest
	moves          map[string]string
	nextID         int
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		space:      domain.Space{ID: "root", Key: "DOCS", Name: "Documentation"},
		docs:       map[string]*domain.RemoteDocument{},
		users:      map[string]*domain.User{},
		contentErr: map[string]error{},
		updateErr:  map[string]error{},
		updates:    map[string]domain.UpdateRequest{},
		moves:      map[string]string{},
	}
}

// addPage registers a page both in the tree and as content
func (r *fakeRemote) addPage(id, title, parentID string, version int) {
	r.nodes = append(r.nodes, domain.RemoteNode{ID: id, Title: title, ParentID: parentID, Version: version, Kind: domain.NodePage})
	r.docs[id] = &domain.RemoteDocument{
		ID:       id,
		Title:    title,
		ParentID: parentID,
		Version:  version,
		Body:     "<p>" + title + " body</p>",
		AuthorID: "acct-1",
		WebURL:   "https://wiki.example.com/pages/" + id,
	}
}

func (r *fakeRemote) FetchSpace(ctx context.Context, key string) (*domain.Space, error) {
	if key != r.space.Key {
		return nil, fmt.Errorf("space %s not found", key)
	}
	s := r.space
	return &s, nil
}

func (r *fakeRemote) FetchTree(ctx context.Context, rootID string) ([]domain.RemoteNode, error) {
	if r.treeErr != nil {
		return nil, r.treeErr
	}
	return append([]domain.RemoteNode(nil), r.nodes...), nil
}

func (r *fakeRemote) FetchContent(ctx context.Context, pageID string) (*domain.RemoteDocument, error) {
	r.fetchedContent = append(r.fetchedContent, pageID)
	if err := r.contentErr[pageID]; err != nil {
		return nil, err
	}
	doc, ok := r.docs[pageID]
	if !ok {
		return nil, fmt.Errorf("page %s not found", pageID)
	}
	d := *doc
	return &d, nil
}

func (r *fakeRemote) FetchUser(ctx context.Context, accountID string) (*domain.User, error) {
	r.userCalls++
	if u, ok := r.users[accountID]; ok {
		return u, nil
	}
	return nil, fmt.Errorf("user %s not found", accountID)
}

func (r *fakeRemote) CreateFolder(ctx context.Context, req domain.FolderRequest) (*domain.Folder, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	r.created = append(r.created, req)
	r.nextID++
	return &domain.Folder{ID: fmt.Sprintf("folder-%d", r.nextID), Title: req.Title, ParentID: req.ParentID}, nil
}

func (r *fakeRemote) Update(ctx context.Context, pageID string, req domain.UpdateRequest) (*domain.RemoteDocument, error) {
	if err := r.updateErr[pageID]; err != nil {
		return nil, err
	}
	r.updates[pageID] = req
	doc := r.docs[pageID]
	if doc == nil {
		doc = &domain.RemoteDocument{ID: pageID}
		r.docs[pageID] = doc
	}
	doc.Version = req.Version + 1
	doc.Title = req.Title
	doc.Body = req.Body
	d := *doc
	return &d, nil
}

func (r *fakeRemote) Move(ctx context.Context, pageID, newParentID string) error {
	r.moves[pageID] = newParentID
	if doc := r.docs[pageID]; doc != nil {
		doc.ParentID = newParentID
	}
	return nil
}

// memStateStore keeps a serialized copy of the state, like the file store does
type memStateStore struct {
	data  []byte
	saves int
}

func newMemStateStore(state *domain.SpaceState) *memStateStore {
	s := &memStateStore{}
	if state != nil {
		_ = s.Save(state)
		s.saves = 0
	}
	return s
}

func (s *memStateStore) Exists() bool { return s.data != nil }

func (s *memStateStore) Load() (*domain.SpaceState, error) {
	if s.data == nil {
		return nil, fmt.Errorf("no state")
	}
	var state domain.SpaceState
	if err := json.Unmarshal(s.data, &state); err != nil {
		return nil, err
	}
	state.Normalize()
	return &state, nil
}

func (s *memStateStore) Save(state *domain.SpaceState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	s.data = data
	s.saves++
	return nil
}

func (s *memStateStore) current() *domain.SpaceState {
	state, err := s.Load()
	if err != nil {
		return nil
	}
	return state
}

type memFile struct {
	meta domain.PageMeta
	body string
}

// memPages is an in-memory page repository
type memPages struct {
	root  string
	files map[string]memFile
}

func newMemPages(root string) *memPages {
	return &memPages{root: root, files: map[string]memFile{}}
}

func (p *memPages) Root() string { return p.root }

func (p *memPages) Scan(ctx context.Context) (*domain.PageStateCache, []string, error) {
	cache := domain.NewPageStateCache()
	for localPath, f := range p.files {
		if f.meta.IsTracked() {
			cache.Add(domain.PageInfo{PageID: f.meta.PageID, LocalPath: localPath, Title: f.meta.Title, Version: f.meta.Version})
		}
	}
	return cache, nil, nil
}

func (p *memPages) Exists(localPath string) bool {
	_, ok := p.files[domain.NormalizeLocalPath(localPath)]
	return ok
}

func (p *memPages) Read(localPath string) (domain.PageMeta, string, error) {
	f, ok := p.files[domain.NormalizeLocalPath(localPath)]
	if !ok {
		return domain.PageMeta{}, "", fmt.Errorf("%s: file does not exist", localPath)
	}
	return f.meta, f.body, nil
}

func (p *memPages) Write(localPath string, meta domain.PageMeta, body string) error {
	p.files[domain.NormalizeLocalPath(localPath)] = memFile{meta: meta, body: body}
	return nil
}

func (p *memPages) Remove(localPath string) error {
	delete(p.files, domain.NormalizeLocalPath(localPath))
	return nil
}

func (p *memPages) ListMarkdown() ([]string, error) {
	paths := make([]string, 0, len(p.files))
	for localPath := range p.files {
		paths = append(paths, localPath)
	}
	sort.Strings(paths)
	return paths, nil
}

// passthroughConverter strips paragraph tags and reports unresolved markers
type passthroughConverter struct{}

func (passthroughConverter) ToLocal(remoteBody string, lookup *domain.PageLookupMap, currentPath string) (*ports.ConvertResult, error) {
	text := strings.TrimSuffix(strings.TrimPrefix(remoteBody, "<p>"), "</p>")
	res := &ports.ConvertResult{Text: text}
	if strings.Contains(text, "[[missing]]") {
		res.Warnings = append(res.Warnings, "unresolved link to missing")
	}
	return res, nil
}

func (passthroughConverter) ToRemote(localText string, lookup *domain.PageLookupMap, currentPath, spaceRoot string) (*ports.ConvertResult, error) {
	return &ports.ConvertResult{Text: "<p>" + strings.TrimSpace(localText) + "</p>"}, nil
}

// recordingSink records events and can run a hook after each completed item
type recordingSink struct {
	events     []string
	onComplete func(domain.Change)
	panicOn    string
}

func (s *recordingSink) record(event string) {
	s.events = append(s.events, event)
	if s.panicOn == event {
		panic("sink failure")
	}
}

func (s *recordingSink) FetchStarted() {
	s.record("fetch")
}

func (s *recordingSink) FetchCompleted(n int) {
	s.record(fmt.Sprintf("fetched:%d", n))
}

func (s *recordingSink) DiffCompleted(a, m, d int) {
	s.record(fmt.Sprintf("diff:%d/%d/%d", a, m, d))
}

func (s *recordingSink) ItemStarted(c domain.Change) {
	s.record("start:" + c.PageID)
}

func (s *recordingSink) ItemCompleted(c domain.Change) {
	s.record("done:" + c.PageID)
	if s.onComplete != nil {
		s.onComplete(c)
	}
}

func (s *recordingSink) ItemFailed(c domain.Change, err error) {
	s.record("fail:" + c.PageID)
}

// trackedState returns a state that already tracks the given pages at version 1
func trackedState(pages map[string]string) *domain.SpaceState {
	state := domain.NewSpaceState(domain.Space{ID: "root", Key: "DOCS", Name: "Documentation"})
	for id, localPath := range pages {
		state.SetPage(id, domain.PageLink{LocalPath: localPath, Version: 1})
	}
	return state
}
