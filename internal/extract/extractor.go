package extract

import (
    "bytes"
    "errors"
    "fmt"
    "net/url"
    "strings"

    goreadability "github.com/go-shiori/go-readability"

    "github.com/hyperifyio/readscroll/internal/readability"
)

// ErrNoContent is returned when a strategy finds nothing readable.
var ErrNoContent = errors.New("extract: no readable content")

// Extractor defines a minimal interface for content extraction strategies.
// Implementations can swap readability tactics without changing callers.
type Extractor interface {
    // Extract converts raw HTML bytes into a Document. A page without
    // readable content yields ErrNoContent.
    Extract(input []byte) (Document, error)
}

// HeuristicExtractor scores the page with the readability package.
type HeuristicExtractor struct {
    Options readability.Options
}

func (e HeuristicExtractor) Extract(input []byte) (Document, error) {
    art, err := readability.FromHTML(bytes.NewReader(input), e.Options)
    doc := Document{Title: art.Title, Byline: art.Byline, PublishedTime: art.PublishedTime}
    if errors.Is(err, readability.ErrExtractionEmpty) {
        return doc, fmt.Errorf("%w: %v", ErrNoContent, err)
    }
    if err != nil {
        return doc, err
    }
    doc.HTML = art.Content
    doc.Text = PlainText(art.Content)
    return doc, nil
}

// LibraryExtractor delegates to go-shiori/go-readability and restricts its
// output to the reader allow-list. PageURL, when set, lets the library
// resolve relative links.
type LibraryExtractor struct {
    PageURL *url.URL
}

func (e LibraryExtractor) Extract(input []byte) (Document, error) {
    if len(bytes.TrimSpace(input)) == 0 {
        return Document{}, ErrNoContent
    }
    art, err := goreadability.FromReader(bytes.NewReader(input), e.PageURL)
    if err != nil {
        return Document{}, fmt.Errorf("readability library: %w", err)
    }
    // The library keeps its own wrappers and attributes.
    content, err := readability.Sanitize(art.Content)
    if err != nil {
        return Document{}, fmt.Errorf("sanitize library output: %w", err)
    }
    doc := Document{
        Title:  strings.TrimSpace(art.Title),
        Byline: strings.TrimSpace(art.Byline),
        HTML:   content,
        Text:   PlainText(content),
    }
    if doc.Empty() {
        doc.Text = strings.TrimSpace(art.TextContent)
    }
    if doc.Empty() {
        return doc, ErrNoContent
    }
    return doc, nil
}

// New returns the extractor for a strategy name: "heuristic" or "library".
func New(strategy string, opts readability.Options, pageURL *url.URL) (Extractor, error) {
    switch strings.ToLower(strings.TrimSpace(strategy)) {
    case "", "heuristic":
        return HeuristicExtractor{Options: opts}, nil
    case "library":
        return LibraryExtractor{PageURL: pageURL}, nil
    }
    return nil, fmt.Errorf("unknown extraction strategy %q", strategy)
}
