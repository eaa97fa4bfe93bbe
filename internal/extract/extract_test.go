package extract_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mithril-search/mithril/internal/extract"
)

const samplePage = `<!DOCTYPE html>
<html><head>
<title>Cats and Dogs</title>
<meta name="description" content="A page about cats and dogs">
<base href="https://example.test/docs/">
</head>
<body>
<script>var x = 1;</script>
<p>The cat sat on the mat. The dog barked.</p>
<a href="/b">next</a>
<a href="relative.html">rel</a>
<a href="https://other.test/x">external</a>
</body></html>`

func TestExtractBasic(t *testing.T) {
	res, err := extract.Extract([]byte(samplePage))
	require.NoError(t, err)
	require.Equal(t, []string{"cats", "and", "dogs"}, res.Title)
	require.Equal(t, []string{"a", "page", "about", "cats", "and", "dogs"}, res.Description)
	require.Contains(t, res.Words, "cat")
	require.Contains(t, res.Words, "dog")
	require.NotContains(t, res.Words, "x") // script content must be stripped
	require.Equal(t, "https://example.test/docs/", res.BaseHref)
	require.ElementsMatch(t, []string{"/b", "relative.html", "https://other.test/x"}, res.RawLinks)
}

func TestExtractRejectsEmptyDocument(t *testing.T) {
	_, err := extract.Extract([]byte(`<html><head></head><body></body></html>`))
	require.Error(t, err)
}
