// Package extractor turns a fetched HTML document into a PageSnapshot.
package extractor

import (
	"bytes"
	"errors"
	"fmt"
	"mime"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"

	"github.com/jonesrussell/north-cloud/site-auditor/internal/domain"
	"github.com/jonesrussell/north-cloud/site-auditor/internal/fetcher"
)

// wordsPerMinute is the reading speed used for ReadingTime.
const wordsPerMinute = 200

// nonTextSelectors lists elements whose text is not visible page copy.
const nonTextSelectors = "script, style, noscript, template"

// ErrUnsupportedContent is returned for responses that are not HTML.
var ErrUnsupportedContent = errors.New("unsupported content type")

// Options selects which optional asset lists are collected.
type Options struct {
	IncludeImages  bool
	IncludeScripts bool
	IncludeStyles  bool
}

// Extractor parses HTML documents with goquery.
type Extractor struct {
	opts Options
}

// New creates an Extractor.
func New(opts Options) *Extractor {
	return &Extractor{opts: opts}
}

// Extract builds a snapshot for resp. The returned snapshot has Depth 0;
// callers set it from the crawl target.
func (e *Extractor) Extract(resp *fetcher.Response) (*domain.PageSnapshot, error) {
	if !isHTML(resp.ContentType) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedContent, resp.ContentType)
	}

	snap := &domain.PageSnapshot{
		URL:           resp.RequestURL,
		FinalURL:      resp.FinalURL,
		StatusCode:    resp.StatusCode,
		ResponseTime:  resp.Latency,
		ContentLength: resp.ContentLength,
		ContentType:   resp.ContentType,
		RedirectChain: resp.RedirectChain,
		CrawledAt:     resp.FetchedAt,
	}
	if snap.CrawledAt.IsZero() {
		snap.CrawledAt = time.Now()
	}
	if len(bytes.TrimSpace(resp.Body)) == 0 {
		return snap, nil
	}

	reader, err := charset.NewReader(bytes.NewReader(resp.Body), resp.ContentType)
	if err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	base, err := baseURL(doc, resp.FinalURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	snap.Title = strings.TrimSpace(doc.Find("title").First().Text())
	snap.MetaDescription = metaContent(doc, "description")
	snap.MetaKeywords = metaContent(doc, "keywords")
	snap.MetaRobots = metaContent(doc, "robots")
	snap.Viewport = metaContent(doc, "viewport")
	snap.CanonicalURL = canonical(doc, base)
	snap.Language = strings.TrimSpace(doc.Find("html").AttrOr("lang", ""))

	snap.H1 = headingTexts(doc, "h1")
	snap.H2 = headingTexts(doc, "h2")
	snap.H3 = headingTexts(doc, "h3")
	snap.Links = links(doc, base, pageHost(resp))

	if e.opts.IncludeImages {
		snap.Images = images(doc, base)
	}
	if e.opts.IncludeScripts {
		snap.Scripts = scripts(doc, base)
	}
	if e.opts.IncludeStyles {
		snap.Stylesheets = stylesheets(doc, base)
	}

	snap.WordCount = countWords(visibleText(doc))
	if snap.WordCount > 0 {
		snap.ReadingTime = max(1, snap.WordCount/wordsPerMinute)
	}

	return snap, nil
}

func isHTML(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.Contains(strings.ToLower(contentType), "html")
	}
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}

// baseURL honours a <base href> element when present.
func baseURL(doc *goquery.Document, pageURL string) (*url.URL, error) {
	page, err := url.Parse(pageURL)
	if err != nil {
		return nil, err
	}
	if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
		if ref, refErr := url.Parse(strings.TrimSpace(href)); refErr == nil {
			return page.ResolveReference(ref), nil
		}
	}
	return page, nil
}

func metaContent(doc *goquery.Document, name string) string {
	var content string
	doc.Find("meta[name]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if strings.EqualFold(strings.TrimSpace(s.AttrOr("name", "")), name) {
			content = strings.TrimSpace(s.AttrOr("content", ""))
			return false
		}
		return true
	})
	return content
}

// canonical prefers <link rel=canonical>, then meta name=canonical, then og:url.
func canonical(doc *goquery.Document, base *url.URL) string {
	candidates := []string{
		doc.Find("link[rel='canonical']").First().AttrOr("href", ""),
		metaContent(doc, "canonical"),
		doc.Find("meta[property='og:url']").First().AttrOr("content", ""),
	}
	for _, c := range candidates {
		if abs := absolute(base, c); abs != "" {
			return abs
		}
	}
	return ""
}

func headingTexts(doc *goquery.Document, tag string) []string {
	var out []string
	doc.Find(tag).Each(func(_ int, s *goquery.Selection) {
		out = append(out, collapseSpace(s.Text()))
	})
	return out
}

func images(doc *goquery.Document, base *url.URL) []domain.Image {
	var out []domain.Image
	doc.Find("img[src]").Each(func(_ int, s *goquery.Selection) {
		src := absolute(base, s.AttrOr("src", ""))
		if src == "" {
			return
		}
		img := domain.Image{
			Src:    src,
			Title:  s.AttrOr("title", ""),
			Width:  s.AttrOr("width", ""),
			Height: s.AttrOr("height", ""),
		}
		if alt, ok := s.Attr("alt"); ok {
			alt = strings.TrimSpace(alt)
			img.Alt = &alt
		}
		out = append(out, img)
	})
	return out
}

// pageHost is the host the page was served from. Links are internal when
// they point back at it, whatever <base href> says.
func pageHost(resp *fetcher.Response) string {
	raw := resp.FinalURL
	if raw == "" {
		raw = resp.RequestURL
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Host
}

func links(doc *goquery.Document, base *url.URL, host string) []domain.Link {
	var out []domain.Link
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		abs := absolute(base, href)
		if abs == "" {
			return
		}
		u, err := url.Parse(abs)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return
		}

		linkType := domain.LinkInternal
		if !strings.EqualFold(u.Host, host) {
			linkType = domain.LinkExternal
		}
		out = append(out, domain.Link{
			URL:   abs,
			Text:  collapseSpace(s.Text()),
			Title: s.AttrOr("title", ""),
			Rel:   s.AttrOr("rel", ""),
			Type:  linkType,
		})
	})
	return out
}

func scripts(doc *goquery.Document, base *url.URL) []domain.Script {
	var out []domain.Script
	doc.Find("script[src]").Each(func(_ int, s *goquery.Selection) {
		src := absolute(base, s.AttrOr("src", ""))
		if src == "" {
			return
		}
		_, async := s.Attr("async")
		_, deferred := s.Attr("defer")
		out = append(out, domain.Script{
			Src:   src,
			Type:  s.AttrOr("type", ""),
			Async: async,
			Defer: deferred,
		})
	})
	return out
}

func stylesheets(doc *goquery.Document, base *url.URL) []domain.Stylesheet {
	var out []domain.Stylesheet
	doc.Find("link[href]").Each(func(_ int, s *goquery.Selection) {
		if !hasToken(s.AttrOr("rel", ""), "stylesheet") {
			return
		}
		href := absolute(base, s.AttrOr("href", ""))
		if href == "" {
			return
		}
		out = append(out, domain.Stylesheet{
			Href:  href,
			Media: s.AttrOr("media", ""),
			Type:  s.AttrOr("type", "text/css"),
		})
	})
	return out
}

func visibleText(doc *goquery.Document) string {
	root := doc.Find("body").First()
	if root.Length() == 0 {
		root = doc.Selection
	}
	root = root.Clone()
	root.Find(nonTextSelectors).Remove()
	return root.Text()
}

// countWords counts runs of letters, digits and underscores.
func countWords(text string) int {
	count := 0
	inWord := false
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			if !inWord {
				count++
				inWord = true
			}
			continue
		}
		inWord = false
	}
	return count
}

func absolute(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	lower := strings.ToLower(ref)
	for _, prefix := range []string{"javascript:", "mailto:", "tel:", "data:"} {
		if strings.HasPrefix(lower, prefix) {
			return ""
		}
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	return base.ResolveReference(u).String()
}

func hasToken(list, token string) bool {
	for _, f := range strings.Fields(list) {
		if strings.EqualFold(f, token) {
			return true
		}
	}
	return false
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
