// Package convert translates page bodies between the remote storage format
// (XHTML with ac:/ri: macros) and markdown.
package convert

import (
	"bytes"
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldhtml "github.com/yuin/goldmark/renderer/html"

	"spacesync/internal/domain"
	"spacesync/internal/ports"
)

// Converter implements ports.Converter
type Converter struct {
	md goldmark.Markdown
}

// Ensure Converter implements Converter
var _ ports.Converter = (*Converter)(nil)

// New creates a converter
func New() *Converter {
	return &Converter{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(goldhtml.WithUnsafe(), goldhtml.WithXHTML()),
		),
	}
}

var (
	acLink      = regexp.MustCompile(`(?s)<ac:link(?:\s[^>]*)?>(.*?)</ac:link>|<ac:link(?:\s[^>]*)?/>`)
	riPage      = regexp.MustCompile(`(?s)<ri:page\s([^>]*?)/?>`)
	riAttr      = regexp.MustCompile(`(ri:[a-z-]+)="([^"]*)"`)
	cdataBody   = regexp.MustCompile(`(?s)<ac:plain-text-link-body>\s*<!\[CDATA\[(.*?)\]\]>\s*</ac:plain-text-link-body>`)
	richBody    = regexp.MustCompile(`(?s)<ac:link-body>(.*?)</ac:link-body>`)
	tag         = regexp.MustCompile(`<[^>]+>`)
	placeholder = regexp.MustCompile(`SPACESYNCRAW(\d+)END`)
	anchor      = regexp.MustCompile(`(?s)<a href="([^"]*)"(?:\s+title="[^"]*")?>(.*?)</a>`)
	blankRuns   = regexp.MustCompile(`\n{3,}`)
)

// ToLocal converts a storage-format body into markdown. Page links the lookup
// map knows become relative links; the rest stay as raw markup.
func (c *Converter) ToLocal(remoteBody string, lookup *domain.PageLookupMap, currentPath string) (*ports.ConvertResult, error) {
	result := &ports.ConvertResult{}
	var raw []string

	prepared := acLink.ReplaceAllStringFunc(remoteBody, func(link string) string {
		title, spaceKey := linkTarget(link)
		text := linkText(link, title)

		if title != "" && spaceKey == "" {
			if rel, ok := domain.RemoteLinkToRelativePath(title, currentPath, lookup); ok {
				return fmt.Sprintf(`<a href="%s">%s</a>`, html.EscapeString(escapeSpaces(rel)), html.EscapeString(text))
			}
		}

		switch {
		case title == "":
			result.Warnings = append(result.Warnings, "link without a page target kept as raw markup")
		case spaceKey != "":
			result.Warnings = append(result.Warnings, fmt.Sprintf("link to page %q in space %s kept as raw markup", title, spaceKey))
		default:
			result.Warnings = append(result.Warnings, fmt.Sprintf("unresolved link to page %q kept as raw markup", title))
		}
		raw = append(raw, link)
		return rawToken(len(raw) - 1)
	})

	markdown, err := htmltomarkdown.ConvertString(prepared)
	if err != nil {
		return nil, fmt.Errorf("failed to convert to markdown: %w", err)
	}

	markdown = restoreRaw(markdown, raw)

	result.Text = strings.TrimSpace(blankRuns.ReplaceAllString(markdown, "\n\n")) + "\n"
	if strings.TrimSpace(result.Text) == "" {
		result.Text = ""
	}
	return result, nil
}

// ToRemote converts markdown into storage format. Relative links to tracked
// pages become page links; unresolved ones stay ordinary anchors.
func (c *Converter) ToRemote(localText string, lookup *domain.PageLookupMap, currentPath, spaceRoot string) (*ports.ConvertResult, error) {
	// markdown does not treat namespaced tags as inline HTML, so shield them
	var raw []string
	shielded := acLink.ReplaceAllStringFunc(localText, func(link string) string {
		raw = append(raw, link)
		return rawToken(len(raw) - 1)
	})

	var buf bytes.Buffer
	if err := c.md.Convert([]byte(shielded), &buf); err != nil {
		return nil, fmt.Errorf("failed to render markdown: %w", err)
	}

	result := &ports.ConvertResult{}
	rendered := anchor.ReplaceAllStringFunc(buf.String(), func(a string) string {
		m := anchor.FindStringSubmatch(a)
		href := html.UnescapeString(m[1])
		if !isLocalPageLink(href) {
			return a
		}

		target, ok := domain.RelativePathToRemoteLink(href, currentPath, spaceRoot, lookup)
		if !ok {
			result.Warnings = append(result.Warnings, fmt.Sprintf("unresolved link %s kept as a plain link", href))
			return a
		}

		text := html.UnescapeString(tag.ReplaceAllString(m[2], ""))
		if text == "" {
			text = target.Title
		}
		return pageLink(target.Title, text)
	})
	result.Text = restoreRaw(rendered, raw)
	return result, nil
}

func rawToken(i int) string {
	return "SPACESYNCRAW" + strconv.Itoa(i) + "END"
}

func restoreRaw(text string, raw []string) string {
	return placeholder.ReplaceAllStringFunc(text, func(token string) string {
		i, err := strconv.Atoi(placeholder.FindStringSubmatch(token)[1])
		if err != nil || i >= len(raw) {
			return token
		}
		return raw[i]
	})
}

func pageLink(title, text string) string {
	return fmt.Sprintf(`<ac:link><ri:page ri:content-title="%s" /><ac:plain-text-link-body><![CDATA[%s]]></ac:plain-text-link-body></ac:link>`,
		html.EscapeString(title), strings.ReplaceAll(text, "]]>", "]]]]><![CDATA[>"))
}

// linkTarget returns the page title and, for cross-space links, the space key
func linkTarget(link string) (title, spaceKey string) {
	page := riPage.FindStringSubmatch(link)
	if page == nil {
		return "", ""
	}
	for _, attr := range riAttr.FindAllStringSubmatch(page[1], -1) {
		switch attr[1] {
		case "ri:content-title":
			title = html.UnescapeString(attr[2])
		case "ri:space-key":
			spaceKey = html.UnescapeString(attr[2])
		}
	}
	return title, spaceKey
}

func linkText(link, fallback string) string {
	if m := cdataBody.FindStringSubmatch(link); m != nil {
		return m[1]
	}
	if m := richBody.FindStringSubmatch(link); m != nil {
		return html.UnescapeString(strings.TrimSpace(tag.ReplaceAllString(m[1], "")))
	}
	return fallback
}

func isLocalPageLink(href string) bool {
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "/") || strings.Contains(href, "://") || strings.HasPrefix(href, "mailto:") {
		return false
	}
	p := href
	if i := strings.IndexAny(p, "#?"); i >= 0 {
		p = p[:i]
	}
	return strings.HasSuffix(strings.ToLower(p), domain.PageExt)
}

func escapeSpaces(p string) string {
	return strings.ReplaceAll(p, " ", "%20")
}
