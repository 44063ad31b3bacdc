package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlanLocalPaths(t *testing.T) {
	nodes := []RemoteNode{
		{ID: "1", Title: "Home"},
		{ID: "2", Title: "Getting Started", ParentID: "1"},
		{ID: "3", Title: "API", ParentID: "1"},
		{ID: "4", Title: "Auth: Tokens", ParentID: "3"},
		{ID: "f1", Title: "Archive", ParentID: "1", Kind: NodeFolder},
		{ID: "5", Title: "Old Notes", ParentID: "f1"},
		{ID: "6", Title: "Orphan", ParentID: "missing"},
	}

	planned := PlanLocalPaths(nodes)

	assert.Equal(t, "Home/README.md", planned["1"])
	assert.Equal(t, "Home/Getting-Started.md", planned["2"])
	assert.Equal(t, "Home/API/README.md", planned["3"])
	assert.Equal(t, "Home/API/Auth-Tokens.md", planned["4"])
	assert.Equal(t, "Home/Archive", planned["f1"])
	assert.Equal(t, "Home/Archive/Old-Notes.md", planned["5"])
	assert.Equal(t, "Orphan.md", planned["6"])
}

func TestPlanLocalPaths_SiblingCollision(t *testing.T) {
	nodes := []RemoteNode{
		{ID: "b", Title: "Notes"},
		{ID: "a", Title: "Notes!"},
	}

	planned := PlanLocalPaths(nodes)

	assert.Equal(t, "Notes.md", planned["a"])
	assert.Equal(t, "Notes-b.md", planned["b"])
}

func TestFilterByDepth(t *testing.T) {
	nodes := []RemoteNode{
		{ID: "1"},
		{ID: "2", ParentID: "1"},
		{ID: "3", ParentID: "2"},
	}

	assert.Len(t, FilterByDepth(nodes, 0), 3)
	assert.Len(t, FilterByDepth(nodes, 2), 2)
	assert.Len(t, FilterByDepth(nodes, 1), 1)
}
