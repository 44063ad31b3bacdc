package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderAndParseDocument(t *testing.T) {
	modified := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	meta := PageMeta{
		PageID:       "123",
		Title:        "Getting Started: Part 1",
		Version:      7,
		SpaceKey:     "DOCS",
		Author:       "Ada",
		LastModified: &modified,
	}
	body := "# Getting Started\n\nSee [Guide](./Guide.md).\n"

	text, err := RenderDocument(meta, body)
	require.NoError(t, err)
	assert.Contains(t, text, "pageId: \"123\"")

	gotMeta, gotBody, err := ParseDocument(text)
	require.NoError(t, err)
	assert.Equal(t, meta.PageID, gotMeta.PageID)
	assert.Equal(t, meta.Title, gotMeta.Title)
	assert.Equal(t, meta.Version, gotMeta.Version)
	assert.True(t, modified.Equal(*gotMeta.LastModified))
	assert.Equal(t, body, gotBody)
	assert.Equal(t, ContentHash(body), ContentHash(gotBody))
}

func TestParseDocument_NoFrontMatter(t *testing.T) {
	meta, body, err := ParseDocument("# Plain\n")

	require.NoError(t, err)
	assert.False(t, meta.IsTracked())
	assert.Equal(t, "# Plain\n", body)
}

func TestParseDocument_Errors(t *testing.T) {
	_, _, err := ParseDocument("---\npageId: 1\nno end")
	assert.Error(t, err)

	_, _, err = ParseDocument("---\npageId: [1\n---\nbody")
	assert.Error(t, err)
}

func TestParseDocument_CRLF(t *testing.T) {
	meta, body, err := ParseDocument("---\r\npageId: \"9\"\r\ntitle: T\r\nversion: 2\r\n---\r\n\r\nhello\r\n")

	require.NoError(t, err)
	assert.Equal(t, "9", meta.PageID)
	assert.Equal(t, 2, meta.Version)
	assert.Equal(t, "hello\n", body)
}
