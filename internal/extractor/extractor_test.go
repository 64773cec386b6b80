package extractor_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/site-auditor/internal/domain"
	"github.com/jonesrussell/north-cloud/site-auditor/internal/extractor"
	"github.com/jonesrussell/north-cloud/site-auditor/internal/fetcher"
)

const pageURL = "https://example.com/blog/post"

const fullPage = `<!DOCTYPE html>
<html lang="en">
<head>
  <title>  A Practical Guide to Technical SEO Audits  </title>
  <meta name="description" content="Learn how to audit a site.">
  <meta name="Keywords" content="seo, audit">
  <meta name="robots" content="index, follow">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <link rel="canonical" href="/blog/post">
  <link rel="stylesheet" href="/css/site.css" media="screen">
  <link rel="icon" href="/favicon.ico">
  <script src="/js/app.js" async></script>
  <script>var inline = "not counted words";</script>
</head>
<body>
  <h1>Guide</h1>
  <h2>Why audit</h2>
  <h2>How   to
      audit</h2>
  <h3>Tools</h3>
  <p>Audits find broken links and thin pages.</p>
  <img src="/img/a.png" alt="Chart" width="100" height="50">
  <img src="/img/b.png">
  <img src="/img/c.png" alt="">
  <a href="/about">About us</a>
  <a href="https://other.example.org/x" rel="nofollow" title="Other">Other site</a>
  <a href="mailto:hi@example.com">Mail</a>
  <a href="javascript:void(0)">JS</a>
  <a href="#top">Top</a>
</body>
</html>`

func newResponse(body, contentType string) *fetcher.Response {
	return &fetcher.Response{
		RequestURL:    "https://example.com/old",
		FinalURL:      pageURL,
		StatusCode:    200,
		ContentType:   contentType,
		Body:          []byte(body),
		ContentLength: int64(len(body)),
		Latency:       120 * time.Millisecond,
		RedirectChain: []string{"https://example.com/old"},
		FetchedAt:     time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func allOptions() extractor.Options {
	return extractor.Options{IncludeImages: true, IncludeScripts: true, IncludeStyles: true}
}

func TestExtract_FullPage(t *testing.T) {
	t.Parallel()

	snap, err := extractor.New(allOptions()).Extract(newResponse(fullPage, "text/html; charset=utf-8"))
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/old", snap.URL)
	assert.Equal(t, pageURL, snap.FinalURL)
	assert.Equal(t, []string{"https://example.com/old"}, snap.RedirectChain)
	assert.Equal(t, 120*time.Millisecond, snap.ResponseTime)

	assert.Equal(t, "A Practical Guide to Technical SEO Audits", snap.Title)
	assert.Equal(t, "Learn how to audit a site.", snap.MetaDescription)
	assert.Equal(t, "seo, audit", snap.MetaKeywords)
	assert.Equal(t, "index, follow", snap.MetaRobots)
	assert.Equal(t, "width=device-width, initial-scale=1", snap.Viewport)
	assert.Equal(t, "https://example.com/blog/post", snap.CanonicalURL)
	assert.Equal(t, "en", snap.Language)

	assert.Equal(t, []string{"Guide"}, snap.H1)
	assert.Equal(t, []string{"Why audit", "How to audit"}, snap.H2)
	assert.Equal(t, []string{"Tools"}, snap.H3)

	require.Len(t, snap.Images, 3)
	assert.Equal(t, "https://example.com/img/a.png", snap.Images[0].Src)
	assert.True(t, snap.Images[0].HasAlt())
	assert.Equal(t, "100", snap.Images[0].Width)
	assert.Nil(t, snap.Images[1].Alt)
	require.NotNil(t, snap.Images[2].Alt)
	assert.False(t, snap.Images[2].HasAlt())

	require.Len(t, snap.Links, 3)
	assert.Equal(t, domain.Link{URL: "https://example.com/about", Text: "About us", Type: domain.LinkInternal}, snap.Links[0])
	assert.Equal(t, domain.LinkExternal, snap.Links[1].Type)
	assert.Equal(t, "nofollow", snap.Links[1].Rel)
	assert.Equal(t, "Other", snap.Links[1].Title)
	assert.Equal(t, "https://example.com/blog/post#top", snap.Links[2].URL)

	require.Len(t, snap.Scripts, 1)
	assert.Equal(t, "https://example.com/js/app.js", snap.Scripts[0].Src)
	assert.True(t, snap.Scripts[0].Async)
	assert.False(t, snap.Scripts[0].Defer)

	require.Len(t, snap.Stylesheets, 1)
	assert.Equal(t, domain.Stylesheet{Href: "https://example.com/css/site.css", Media: "screen", Type: "text/css"}, snap.Stylesheets[0])

	// 7 heading words, 7 words of copy and 7 words of anchor text.
	assert.Equal(t, 21, snap.WordCount)
	assert.Equal(t, 1, snap.ReadingTime)
}

func TestExtract_OptionalAssetsOmitted(t *testing.T) {
	t.Parallel()

	snap, err := extractor.New(extractor.Options{}).Extract(newResponse(fullPage, "text/html"))
	require.NoError(t, err)

	assert.Empty(t, snap.Images)
	assert.Empty(t, snap.Scripts)
	assert.Empty(t, snap.Stylesheets)
	assert.NotEmpty(t, snap.Links)
}

func TestExtract_MissingElements(t *testing.T) {
	t.Parallel()

	body := `<html><head><meta property="og:url" content="https://example.com/canon"></head><body><p>one two</p></body></html>`
	snap, err := extractor.New(allOptions()).Extract(newResponse(body, ""))
	require.NoError(t, err)

	assert.Empty(t, snap.Title)
	assert.Empty(t, snap.MetaDescription)
	assert.Empty(t, snap.H1)
	assert.Equal(t, "https://example.com/canon", snap.CanonicalURL)
	assert.Equal(t, 2, snap.WordCount)
}

func TestExtract_BaseHref(t *testing.T) {
	t.Parallel()

	body := `<html><head><base href="https://cdn.example.com/assets/"></head><body>
<a href="page">x</a><a href="https://example.com/about">about</a></body></html>`
	snap, err := extractor.New(allOptions()).Extract(newResponse(body, "text/html"))
	require.NoError(t, err)

	require.Len(t, snap.Links, 2)
	assert.Equal(t, "https://cdn.example.com/assets/page", snap.Links[0].URL)
	assert.Equal(t, domain.LinkExternal, snap.Links[0].Type)

	// Classification follows the host that served the page, not <base>.
	assert.Equal(t, "https://example.com/about", snap.Links[1].URL)
	assert.Equal(t, domain.LinkInternal, snap.Links[1].Type)
}

func TestExtract_DecodesLegacyCharset(t *testing.T) {
	t.Parallel()

	// "Café" in ISO-8859-1.
	body := "<html><head><title>Caf\xe9</title></head><body></body></html>"
	snap, err := extractor.New(allOptions()).Extract(newResponse(body, "text/html; charset=iso-8859-1"))
	require.NoError(t, err)

	assert.Equal(t, "Café", snap.Title)
}

func TestExtract_EmptyBody(t *testing.T) {
	t.Parallel()

	snap, err := extractor.New(allOptions()).Extract(newResponse("  ", "text/html"))
	require.NoError(t, err)

	assert.Zero(t, snap.WordCount)
	assert.Zero(t, snap.ReadingTime)
	assert.Equal(t, 200, snap.StatusCode)
}

func TestExtract_ReadingTime(t *testing.T) {
	t.Parallel()

	body := "<html><body><p>" + strings.Repeat("word ", 450) + "</p></body></html>"
	snap, err := extractor.New(allOptions()).Extract(newResponse(body, "text/html"))
	require.NoError(t, err)

	assert.Equal(t, 450, snap.WordCount)
	assert.Equal(t, 2, snap.ReadingTime)
}

func TestExtract_UnsupportedContent(t *testing.T) {
	t.Parallel()

	_, err := extractor.New(allOptions()).Extract(newResponse("%PDF-1.7", "application/pdf"))
	require.ErrorIs(t, err, extractor.ErrUnsupportedContent)
}
