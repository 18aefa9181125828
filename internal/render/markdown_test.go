package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkdownHTML(t *testing.T) {
	m := NewMarkdown()

	out, err := m.HTML("**Olivier** massif\n\n<script>alert(1)</script>\n\n[atelier](https://example.com)")
	require.NoError(t, err)

	html := string(out)
	assert.Contains(t, html, "<strong>Olivier</strong>")
	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "nofollow")

	empty, err := m.HTML("   ")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMarkdownPlain(t *testing.T) {
	m := NewMarkdown()

	assert.Equal(t, "Bol en bois d'olivier", m.Plain("# Bol\nen *bois* d'olivier", 0))
	assert.Equal(t, "Planche…", m.Plain("Planche à découper", 7))
}
