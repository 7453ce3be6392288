package htmlrewrite

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func attr(t *testing.T, html []byte, selector, name string) string {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(html)))
	require.NoError(t, err)
	val, ok := doc.Find(selector).First().Attr(name)
	require.True(t, ok, "missing %s on %s", name, selector)
	return val
}

func TestAbsolutizeResources(t *testing.T) {
	t.Parallel()

	in := []byte(`<html><head>
<link rel="stylesheet" href="/static/site.css">
<script src="js/app.js"></script>
</head><body>
<img id="rel" src="../img/a.png">
<img id="lazy" data-src="//cdn.example.net/b.png">
<img id="inline" src="data:image/png;base64,AAAA">
<iframe src="https://other.example/embed"></iframe>
<a id="link" href="/not-a-resource">x</a>
<script id="js" src="javascript:void(0)"></script>
</body></html>`)

	out, err := AbsolutizeResources(in, "https://example.com/articles/123/")
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/static/site.css", attr(t, out, "link", "href"))
	assert.Equal(t, "https://example.com/articles/123/js/app.js", attr(t, out, "script", "src"))
	assert.Equal(t, "https://example.com/articles/img/a.png", attr(t, out, "#rel", "src"))
	assert.Equal(t, "https://cdn.example.net/b.png", attr(t, out, "#lazy", "data-src"))
	assert.Equal(t, "data:image/png;base64,AAAA", attr(t, out, "#inline", "src"))
	assert.Equal(t, "https://other.example/embed", attr(t, out, "iframe", "src"))
	assert.Equal(t, "/not-a-resource", attr(t, out, "#link", "href"), "anchors are not resources")
	assert.Equal(t, "javascript:void(0)", attr(t, out, "#js", "src"))
}

func TestAbsolutizeResources_HonorsBaseElement(t *testing.T) {
	t.Parallel()

	in := []byte(`<html><head><base href="https://assets.example.com/v2/"></head><body><img src="logo.svg"></body></html>`)
	out, err := AbsolutizeResources(in, "https://example.com/page")
	require.NoError(t, err)
	assert.Equal(t, "https://assets.example.com/v2/logo.svg", attr(t, out, "img", "src"))
}

func TestAbsolutizeResources_Idempotent(t *testing.T) {
	t.Parallel()

	in := []byte(`<html><head></head><body><img src="/a.png"></body></html>`)
	once, err := AbsolutizeResources(in, "https://example.com/")
	require.NoError(t, err)
	twice, err := AbsolutizeResources(once, "https://example.com/")
	require.NoError(t, err)
	assert.Equal(t, string(once), string(twice))
}

func TestAbsolutizeResources_BadBase(t *testing.T) {
	t.Parallel()

	_, err := AbsolutizeResources([]byte("<html></html>"), "http://%zz")
	assert.Error(t, err)
}
