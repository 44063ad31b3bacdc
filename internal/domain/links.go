package domain

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"sort"
	"strings"
)

// PageLookupMap resolves references by page ID, local path or title.
// IDToPage and PathToPage are injective; TitleToPage keeps one page per title.
type PageLookupMap struct {
	IDToPage    map[string]PageInfo
	PathToPage  map[string]PageInfo
	TitleToPage map[string]PageInfo
}

// LinkTarget is a resolved remote page reference
type LinkTarget struct {
	Title  string
	PageID string
}

// BuildLookupMap indexes the cache. When two pages share a title the smaller page ID
// wins, independent of map iteration order. With warnDuplicates set, each collision
// produces a warning naming both paths.
func BuildLookupMap(cache *PageStateCache, warnDuplicates bool) (*PageLookupMap, []string) {
	m := &PageLookupMap{
		IDToPage:    map[string]PageInfo{},
		PathToPage:  map[string]PageInfo{},
		TitleToPage: map[string]PageInfo{},
	}
	if cache == nil {
		return m, nil
	}

	ids := make([]string, 0, len(cache.Pages))
	for id := range cache.Pages {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var warnings []string
	for _, id := range ids {
		info := cache.Pages[id]
		info.LocalPath = NormalizeLocalPath(info.LocalPath)
		m.IDToPage[id] = info
		m.PathToPage[info.LocalPath] = info

		if info.Title == "" {
			continue
		}
		existing, ok := m.TitleToPage[info.Title]
		if !ok {
			m.TitleToPage[info.Title] = info
			continue
		}
		if existing.PageID == info.PageID {
			continue
		}

		winner, loser := existing, info
		if info.PageID < existing.PageID {
			winner, loser = info, existing
		}
		m.TitleToPage[info.Title] = winner

		if warnDuplicates {
			warnings = append(warnings, fmt.Sprintf(
				"Duplicate title %q: %s and %s; links to this title will resolve to %s",
				info.Title, winner.LocalPath, loser.LocalPath, winner.LocalPath))
		}
	}

	return m, warnings
}

// RemoteLinkToRelativePath turns a title reference found in remote content into a path
// relative to the document at currentLocalPath. ok is false when no page has that title;
// callers keep the original reference.
func RemoteLinkToRelativePath(targetTitle, currentLocalPath string, m *PageLookupMap) (string, bool) {
	if m == nil {
		return "", false
	}
	target, ok := m.TitleToPage[targetTitle]
	if !ok {
		return "", false
	}

	fromDir := path.Dir(NormalizeLocalPath(currentLocalPath))
	rel := relativePath(fromDir, target.LocalPath)
	if !strings.HasPrefix(rel, ".") {
		rel = "./" + rel
	}
	return rel, true
}

// RelativePathToRemoteLink resolves a relative link written in the document at
// currentLocalPath. spaceRoot is the directory the lookup map's paths are relative to,
// expressed relative to the working directory ("." for the working directory itself).
func RelativePathToRemoteLink(rel, currentLocalPath, spaceRoot string, m *PageLookupMap) (*LinkTarget, bool) {
	if m == nil {
		return nil, false
	}

	joined, ok := ResolveLinkPath(rel, currentLocalPath)
	if !ok {
		return nil, false
	}

	root := NormalizeLocalPath(spaceRoot)
	key := joined
	if root != "." {
		key = relativePath(root, joined)
		if strings.HasPrefix(key, "..") {
			return nil, false
		}
	}

	info, ok := m.PathToPage[NormalizeLocalPath(key)]
	if !ok {
		return nil, false
	}
	return &LinkTarget{Title: info.Title, PageID: info.PageID}, true
}

// ResolveLinkPath joins a relative link with the directory of the document it appears
// in. External links, absolute paths and empty links do not resolve.
func ResolveLinkPath(link, currentLocalPath string) (string, bool) {
	target := stripLinkSuffix(link)
	if target == "" || isExternalLink(target) || strings.HasPrefix(target, "/") {
		return "", false
	}
	if decoded, err := url.PathUnescape(target); err == nil {
		target = decoded
	}

	fromDir := path.Dir(NormalizeLocalPath(currentLocalPath))
	return path.Join(fromDir, target), true
}

// markdownLink matches inline links and images: [text](target "title")
var markdownLink = regexp.MustCompile(`!?\[([^\]]*)\]\((?:<([^>]+)>|([^)\s]+))(?:\s+"[^"]*")?\)`)

// LocalLink is a relative markdown link found in a document body
type LocalLink struct {
	Text   string
	Target string
}

// ExtractLocalLinks returns the relative links to markdown files in body, in order
func ExtractLocalLinks(body string) []LocalLink {
	var links []LocalLink
	for _, m := range markdownLink.FindAllStringSubmatch(body, -1) {
		target := m[2]
		if target == "" {
			target = m[3]
		}
		stripped := stripLinkSuffix(target)
		if stripped == "" || isExternalLink(stripped) || strings.HasPrefix(stripped, "/") {
			continue
		}
		if !strings.EqualFold(path.Ext(stripped), PageExt) {
			continue
		}
		links = append(links, LocalLink{Text: m[1], Target: target})
	}
	return links
}

// relativePath computes the slash path from directory base to target
func relativePath(base, target string) string {
	base = NormalizeLocalPath(base)
	target = NormalizeLocalPath(target)

	var baseParts, targetParts []string
	if base != "." {
		baseParts = strings.Split(base, "/")
	}
	if target != "." {
		targetParts = strings.Split(target, "/")
	}

	common := 0
	for common < len(baseParts) && common < len(targetParts) && baseParts[common] == targetParts[common] {
		common++
	}

	parts := make([]string, 0, len(baseParts)-common+len(targetParts)-common)
	for i := common; i < len(baseParts); i++ {
		parts = append(parts, "..")
	}
	parts = append(parts, targetParts[common:]...)
	if len(parts) == 0 {
		return "."
	}
	return strings.Join(parts, "/")
}

func stripLinkSuffix(link string) string {
	if i := strings.IndexAny(link, "#?"); i >= 0 {
		link = link[:i]
	}
	return strings.TrimSpace(link)
}

func isExternalLink(link string) bool {
	if strings.HasPrefix(link, "//") {
		return true
	}
	u, err := url.Parse(link)
	return err == nil && u.Scheme != ""
}
