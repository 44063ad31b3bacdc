package domain

import (
	"path"
	"path/filepath"
	"strings"
	"unicode"
)

// StateDirName holds the state file and other tool metadata inside a working directory
const StateDirName = ".spacesync"

// IndexFileName is the file a container page is written to inside its directory
const IndexFileName = "README.md"

// PageExt is the extension of synced page files
const PageExt = ".md"

// NormalizeLocalPath returns a clean slash-separated path relative to the working directory.
// Leading "./" is stripped; "." stays ".".
func NormalizeLocalPath(p string) string {
	p = strings.TrimSpace(filepath.ToSlash(p))
	for strings.HasPrefix(p, "./") {
		p = p[2:]
	}
	if p == "" {
		return "."
	}
	return path.Clean(p)
}

// IsWithin reports whether target stays inside root once both are cleaned
func IsWithin(root, target string) bool {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return false
	}
	absTarget, err := filepath.Abs(target)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(absRoot, absTarget)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

const invalidFolderChars = `|\/:*?"<>`

// SanitizeFolderTitle replaces characters the remote rejects in folder titles.
// changed reports whether the result differs from the input.
func SanitizeFolderTitle(segment string) (title string, changed bool) {
	title = strings.Map(func(r rune) rune {
		if strings.ContainsRune(invalidFolderChars, r) {
			return '-'
		}
		return r
	}, segment)
	title = strings.TrimSpace(title)
	return title, title != segment
}

// SlugifyTitle turns a page title into a file or directory name
func SlugifyTitle(title string) string {
	var sb strings.Builder
	lastDash := false
	for _, r := range strings.TrimSpace(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			sb.WriteRune(r)
			lastDash = false
		case r == '.' || r == '_':
			sb.WriteRune(r)
			lastDash = false
		default:
			if !lastDash && sb.Len() > 0 {
				sb.WriteByte('-')
				lastDash = true
			}
		}
	}
	slug := strings.Trim(sb.String(), "-.")
	if slug == "" {
		return "untitled"
	}
	return slug
}

var reservedDeviceNames = map[string]bool{
	"con": true, "prn": true, "aux": true, "nul": true,
	"com1": true, "com2": true, "com3": true, "com4": true, "com5": true,
	"com6": true, "com7": true, "com8": true, "com9": true,
	"lpt1": true, "lpt2": true, "lpt3": true, "lpt4": true, "lpt5": true,
	"lpt6": true, "lpt7": true, "lpt8": true, "lpt9": true,
}

// IsReservedFilename reports whether a page may not be written at localPath.
// isContainer is true when the page is the index of its own directory.
func IsReservedFilename(localPath string, isContainer bool) bool {
	p := NormalizeLocalPath(localPath)
	for _, seg := range strings.Split(p, "/") {
		if seg == StateDirName {
			return true
		}
		base := strings.ToLower(strings.TrimSuffix(seg, path.Ext(seg)))
		if reservedDeviceNames[base] {
			return true
		}
	}
	if !isContainer && strings.EqualFold(path.Base(p), IndexFileName) {
		return true
	}
	return false
}

// SplitDir returns the slash-separated segments of a directory path; "." has none
func SplitDir(dir string) []string {
	dir = NormalizeLocalPath(dir)
	if dir == "." {
		return nil
	}
	return strings.Split(dir, "/")
}
