package domain

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const frontMatterDelimiter = "---"

// PageMeta is the metadata embedded at the top of every synced file
type PageMeta struct {
	PageID       string     `yaml:"pageId"`
	Title        string     `yaml:"title"`
	Version      int        `yaml:"version"`
	SpaceKey     string     `yaml:"spaceKey,omitempty"`
	ParentID     string     `yaml:"parentId,omitempty"`
	Author       string     `yaml:"author,omitempty"`
	LastEditor   string     `yaml:"lastEditor,omitempty"`
	LastModified *time.Time `yaml:"lastModified,omitempty"`
	URL          string     `yaml:"url,omitempty"`
}

// IsTracked reports whether the metadata identifies a remote page
func (m PageMeta) IsTracked() bool {
	return m.PageID != ""
}

// ParseDocument splits a file into front matter and body.
// Text without a leading front matter block yields an empty PageMeta and the whole text as body.
func ParseDocument(text string) (PageMeta, string, error) {
	var meta PageMeta

	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	if !strings.HasPrefix(normalized, frontMatterDelimiter+"\n") {
		return meta, text, nil
	}

	rest := normalized[len(frontMatterDelimiter)+1:]
	end := strings.Index(rest, "\n"+frontMatterDelimiter)
	var raw, body string
	switch {
	case strings.HasPrefix(rest, frontMatterDelimiter):
		raw, body = "", rest[len(frontMatterDelimiter):]
	case end >= 0:
		raw, body = rest[:end], rest[end+1+len(frontMatterDelimiter):]
	default:
		return meta, text, fmt.Errorf("unterminated front matter")
	}

	// the closing delimiter must end its line
	if body != "" && body[0] != '\n' {
		return meta, text, fmt.Errorf("malformed front matter delimiter")
	}
	// drop the delimiter's newline and one separating blank line
	body = strings.TrimPrefix(strings.TrimPrefix(body, "\n"), "\n")

	if err := yaml.Unmarshal([]byte(raw), &meta); err != nil {
		return PageMeta{}, text, fmt.Errorf("failed to parse front matter: %w", err)
	}
	return meta, body, nil
}

// RenderDocument writes front matter followed by the body
func RenderDocument(meta PageMeta, body string) (string, error) {
	var buf bytes.Buffer
	buf.WriteString(frontMatterDelimiter + "\n")

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(meta); err != nil {
		return "", fmt.Errorf("failed to encode front matter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("failed to encode front matter: %w", err)
	}

	buf.WriteString(frontMatterDelimiter + "\n")
	if body != "" {
		buf.WriteString("\n")
		buf.WriteString(strings.TrimLeft(body, "\n"))
		if !strings.HasSuffix(body, "\n") {
			buf.WriteString("\n")
		}
	}
	return buf.String(), nil
}

// ContentHash fingerprints a body, ignoring leading blank lines and trailing whitespace
func ContentHash(body string) string {
	normalized := strings.TrimRight(strings.TrimLeft(strings.ReplaceAll(body, "\r\n", "\n"), "\n"), " \t\n")
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}
