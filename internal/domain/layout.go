package domain

import (
	"path"
	"sort"
)

// PlanLocalPaths assigns a local path to every node of a remote tree.
// Folders map to directories; a page with children maps to <dir>/README.md inside a
// directory named after it; a leaf page maps to <slug>.md. Sibling name collisions are
// broken by appending "-<id>" in ID order. Nodes whose parent is not in the tree are
// placed at the root. Folder entries hold the directory path.
func PlanLocalPaths(nodes []RemoteNode) map[string]string {
	byID := make(map[string]RemoteNode, len(nodes))
	children := make(map[string][]string, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}
	for _, n := range nodes {
		parent := n.ParentID
		if _, ok := byID[parent]; !ok {
			parent = ""
		}
		children[parent] = append(children[parent], n.ID)
	}

	planned := make(map[string]string, len(nodes))
	var walk func(parentID, dir string)
	walk = func(parentID, dir string) {
		ids := children[parentID]
		sort.Strings(ids)

		used := map[string]bool{}
		for _, id := range ids {
			node := byID[id]
			hasChildren := len(children[id]) > 0

			name := SlugifyTitle(node.Title)
			if used[name] {
				name = name + "-" + SlugifyTitle(id)
			}
			used[name] = true

			switch {
			case node.Kind == NodeFolder:
				sub := path.Join(dir, name)
				planned[id] = sub
				walk(id, sub)
			case hasChildren:
				sub := path.Join(dir, name)
				planned[id] = path.Join(sub, IndexFileName)
				walk(id, sub)
			default:
				planned[id] = path.Join(dir, name+PageExt)
			}
		}
	}
	walk("", ".")

	return planned
}

// IsContainerPath reports whether localPath is the index file of a directory
func IsContainerPath(localPath string) bool {
	return path.Base(NormalizeLocalPath(localPath)) == IndexFileName
}

// ContainerDir returns the directory a container page owns
func ContainerDir(localPath string) string {
	return path.Dir(NormalizeLocalPath(localPath))
}

// FilterByDepth keeps nodes at most depth levels below the root; depth <= 0 keeps all
func FilterByDepth(nodes []RemoteNode, depth int) []RemoteNode {
	if depth <= 0 {
		return nodes
	}

	byID := make(map[string]RemoteNode, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}

	levels := make(map[string]int, len(nodes))
	var level func(id string, guard int) int
	level = func(id string, guard int) int {
		if l, ok := levels[id]; ok {
			return l
		}
		n := byID[id]
		parent, ok := byID[n.ParentID]
		if !ok || guard > len(nodes) {
			levels[id] = 1
			return 1
		}
		l := level(parent.ID, guard+1) + 1
		levels[id] = l
		return l
	}

	out := make([]RemoteNode, 0, len(nodes))
	for _, n := range nodes {
		if level(n.ID, 0) <= depth {
			out = append(out, n)
		}
	}
	return out
}
