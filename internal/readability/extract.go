// Package readability finds the main content of an HTML page by scoring
// paragraph containers, then cleans the winning subtree and serializes it to
// a small set of structural tags.
package readability

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"
)

// ErrExtractionEmpty is returned when no readable text survives extraction,
// including the retry that keeps unlikely candidates.
var ErrExtractionEmpty = errors.New("readability: no readable content")

// Options tunes one extraction.
type Options struct {
	// PreserveUnlikely keeps nodes whose class or id look like navigation,
	// comments or other boilerplate.
	PreserveUnlikely bool
	// MultiCandidate also gathers the siblings of every candidate scoring
	// above 50, not only those of the top candidate.
	MultiCandidate bool
	// IgnoreContentHints disables narrowing the body to the largest article,
	// main or story container.
	IgnoreContentHints bool
	// FlattenDivs unwraps div elements in the serialized content.
	FlattenDivs bool
}

// Article is the result of an extraction.
type Article struct {
	Title         string
	Byline        string
	PublishedTime string
	// Content is the cleaned HTML fragment, title heading first.
	Content string
	// Text is the whitespace normalized text of Content.
	Text string
	// Node is the container Content was rendered from.
	Node *html.Node
	// Failed marks an extraction that found nothing to show.
	Failed bool
}

// Extract returns the main content of the tree rooted at root. The input is
// not modified. When nothing readable is found, the extraction is repeated
// once with unlikely candidates kept and content hints ignored; if that also
// comes up empty the returned Article has Failed set and the error is
// ErrExtractionEmpty.
func Extract(root *html.Node, opts Options) (Article, error) {
	if root == nil {
		return Article{Failed: true}, ErrExtractionEmpty
	}
	art, ok := extractOnce(root, opts)
	if !ok && (!opts.PreserveUnlikely || !opts.IgnoreContentHints) {
		log.Info().Msg("no readable content, retrying on the whole body")
		retry := opts
		retry.PreserveUnlikely = true
		retry.IgnoreContentHints = true
		art, ok = extractOnce(root, retry)
	}
	if !ok {
		log.Warn().Str("title", art.Title).Msg("extraction produced no content")
		return Article{Title: art.Title, Byline: art.Byline, PublishedTime: art.PublishedTime, Failed: true}, ErrExtractionEmpty
	}
	return art, nil
}

// FromHTML parses r as HTML and extracts its main content.
func FromHTML(r io.Reader, opts Options) (Article, error) {
	root, err := html.Parse(r)
	if err != nil {
		return Article{Failed: true}, fmt.Errorf("parse html: %w", err)
	}
	return Extract(root, opts)
}

func extractOnce(root *html.Node, opts Options) (Article, bool) {
	doc, body := ensureDocument(cloneNode(root))
	art := Article{Title: documentTitle(doc)}
	art.Byline, art.PublishedTime = readMetadata(doc)

	prepDocument(doc, body, opts)
	content := grabArticle(body, opts)
	if strings.TrimSpace(textContent(content)) == "" {
		return art, false
	}

	if art.Title != "" {
		h1 := newElement("h1")
		h1.AppendChild(&html.Node{Type: html.TextNode, Data: art.Title})
		content.InsertBefore(h1, content.FirstChild)
	}
	sanitize(content, !opts.FlattenDivs)

	art.Node = content
	art.Content = renderInner(content)
	art.Text = innerText(content, true)
	return art, true
}

// readMetadata looks up the author and publication time the page declares.
func readMetadata(doc *html.Node) (byline, published string) {
	d := goquery.NewDocumentFromNode(doc)

	if v, ok := d.Find(`meta[name="author"]`).First().Attr("content"); ok {
		byline = strings.TrimSpace(v)
	}
	if byline == "" {
		if s := d.Find(`[rel="author"], .byline`).First(); s.Length() > 0 {
			byline = strings.TrimSpace(normalizeRe.ReplaceAllString(s.Text(), " "))
		}
	}

	if v, ok := d.Find(`meta[property="article:published_time"]`).First().Attr("content"); ok {
		published = strings.TrimSpace(v)
	}
	if published == "" {
		if v, ok := d.Find("time[datetime]").First().Attr("datetime"); ok {
			published = strings.TrimSpace(v)
		}
	}
	return byline, published
}
