package readability

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/net/html"
)

const storyText = "The council met on Tuesday evening, and after a long debate, it approved the new budget for parks and libraries."

func parseDoc(t *testing.T, s string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func render(t *testing.T, n *html.Node) string {
	t.Helper()
	var b strings.Builder
	if err := html.Render(&b, n); err != nil {
		t.Fatalf("render: %v", err)
	}
	return b.String()
}

func TestExtract_ContentHints(t *testing.T) {
	cases := []struct {
		name, open, close string
	}{
		{"article", "<article>", "</article>"},
		{"main", "<main>", "</main>"},
		{"story class", `<div class="story">`, "</div>"},
		{"story id", `<div id="story">`, "</div>"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			page := `<html><head><title>Budget News</title></head><body>
<div class="navbar"><a href="/">Home</a> <a href="/about">About</a></div>
<div class="promo">Buy now, buy now, everything is on sale today only</div>
` + tc.open + `<p>` + storyText + `</p><p>` + storyText + `</p>` + tc.close + `
<p>Copyright notice for the whole site goes here in the footer.</p>
</body></html>`
			art, err := FromHTML(strings.NewReader(page), Options{})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if art.Failed {
				t.Fatalf("expected success")
			}
			if !strings.Contains(art.Text, "approved the new budget") {
				t.Fatalf("missing story text: %q", art.Text)
			}
			if strings.Contains(art.Text, "Buy now") || strings.Contains(art.Text, "Copyright") {
				t.Fatalf("boilerplate leaked into content: %q", art.Text)
			}
			if !strings.HasPrefix(art.Content, "<h1>Budget News</h1>") {
				t.Fatalf("expected title heading first, got %q", art.Content)
			}
		})
	}
}

func TestExtract_PrunesUnlikelyCandidates(t *testing.T) {
	page := `<html><head><title>T</title></head><body>
<div id="sidebar"><p>Sidebar paragraph with plenty of words that count, for sure.</p></div>
<div class="content"><p>` + storyText + `</p><p>` + storyText + `</p></div>
<div class="comments"><p>Comment text long enough to be counted, surely, indeed.</p></div>
</body></html>`
	art, err := FromHTML(strings.NewReader(page), Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(art.Text, "approved the new budget") {
		t.Fatalf("missing story text: %q", art.Text)
	}
	if strings.Contains(art.Text, "Sidebar") || strings.Contains(art.Text, "Comment text") {
		t.Fatalf("unlikely nodes kept: %q", art.Text)
	}
	if strings.Contains(art.Content, "class=") {
		t.Fatalf("attributes should be stripped: %q", art.Content)
	}
}

func TestExtract_RetriesWithUnlikelyKept(t *testing.T) {
	page := `<html><head><title>T</title></head><body>
<div class="popup"><p>Only text lives in a popup, and it is long enough to count.</p></div>
</body></html>`
	art, err := FromHTML(strings.NewReader(page), Options{})
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if !strings.Contains(art.Text, "Only text lives in a popup") {
		t.Fatalf("unexpected text: %q", art.Text)
	}
}

func TestExtract_SkipsEmptyContentHint(t *testing.T) {
	page := `<html><head><title>T</title></head><body><main></main>
<div class="post"><p>` + storyText + `</p><p>` + storyText + `</p></div>
</body></html>`
	art, err := FromHTML(strings.NewReader(page), Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(art.Text, "approved the new budget") {
		t.Fatalf("missing story text: %q", art.Text)
	}
}

// A hint holding only pruned content must not hide the rest of the page.
func TestExtract_RetryIgnoresContentHints(t *testing.T) {
	page := `<html><head><title>T</title></head><body>
<main><div class="comments"><p>First comment says the budget was far too small for the parks.</p></div></main>
<div class="post"><p>` + storyText + `</p><p>` + storyText + `</p></div>
</body></html>`
	art, err := FromHTML(strings.NewReader(page), Options{})
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if !strings.Contains(art.Text, "approved the new budget") {
		t.Fatalf("missing story text: %q", art.Text)
	}
}

func TestExtract_EmptyDocumentFails(t *testing.T) {
	page := `<html><head><title>Empty</title></head><body><div class="menu"></div></body></html>`
	art, err := FromHTML(strings.NewReader(page), Options{})
	if !errors.Is(err, ErrExtractionEmpty) {
		t.Fatalf("expected ErrExtractionEmpty, got %v", err)
	}
	if !art.Failed {
		t.Fatalf("expected failed marker")
	}
	if art.Content != "" || art.Text != "" {
		t.Fatalf("failed extraction must not carry content: %+v", art)
	}
	if art.Title != "Empty" {
		t.Fatalf("title should still be reported, got %q", art.Title)
	}
}

func TestExtract_NilRoot(t *testing.T) {
	if _, err := Extract(nil, Options{}); !errors.Is(err, ErrExtractionEmpty) {
		t.Fatalf("expected ErrExtractionEmpty, got %v", err)
	}
}

func TestExtract_SynthesizesBody(t *testing.T) {
	doc := parseDoc(t, `<div><p>`+storyText+`</p></div>`)
	div := findFirst(doc, "div")
	detach(div)

	art, err := Extract(div, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(art.Text, "approved the new budget") {
		t.Fatalf("missing text: %q", art.Text)
	}
	if art.Title != "" || strings.Contains(art.Content, "<h1>") {
		t.Fatalf("no title expected: %+v", art)
	}
}

func TestExtract_DoesNotModifyInput(t *testing.T) {
	doc := parseDoc(t, `<html><head><title>T</title><script>x()</script></head><body>
<div class="share">Share this</div><div><p style="color:red">`+storyText+`</p></div></body></html>`)
	before := render(t, doc)
	if _, err := Extract(doc, Options{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if after := render(t, doc); after != before {
		t.Fatalf("input tree changed:\nbefore %s\nafter  %s", before, after)
	}
}

func TestExtract_Metadata(t *testing.T) {
	page := `<html><head><title>T</title>
<meta name="author" content="Jamie Doe">
<meta property="article:published_time" content="2024-03-01T10:00:00Z">
</head><body><article><p>` + storyText + `</p></article></body></html>`
	art, err := FromHTML(strings.NewReader(page), Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if art.Byline != "Jamie Doe" {
		t.Fatalf("byline: got %q", art.Byline)
	}
	if art.PublishedTime != "2024-03-01T10:00:00Z" {
		t.Fatalf("published: got %q", art.PublishedTime)
	}
}

func TestExtract_MetadataFallbacks(t *testing.T) {
	page := `<html><head><title>T</title></head><body><article>
<p class="byline">By   Sam Roe</p><time datetime="2023-12-24">Christmas Eve</time>
<p>` + storyText + `</p></article></body></html>`
	art, err := FromHTML(strings.NewReader(page), Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if art.Byline != "By Sam Roe" {
		t.Fatalf("byline: got %q", art.Byline)
	}
	if art.PublishedTime != "2023-12-24" {
		t.Fatalf("published: got %q", art.PublishedTime)
	}
}

func TestExtract_InlineTextBecomesSpan(t *testing.T) {
	page := `<html><body><div class="entry">Loose lead text before the paragraphs.<p>` + storyText + `</p></div></body></html>`
	art, err := FromHTML(strings.NewReader(page), Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(art.Content, "<span>Loose lead text before the paragraphs.</span>") {
		t.Fatalf("expected loose text as span: %q", art.Content)
	}
}

func TestExtract_VideoEmbedsBecomeFrames(t *testing.T) {
	page := `<html><head><title>Budget News</title></head><body><article>
<p>` + storyText + `</p><p>` + storyText + `</p>
<embed src="https://www.youtube.com/v/abc123" width="640" height="360">
<p>` + storyText + `</p>
<object data="https://vimeo.com/moogaloop.swf?clip_id=42"><param name="movie" value="https://vimeo.com/moogaloop.swf?clip_id=42"></object>
<object data="/banner.swf"></object>
</article></body></html>`
	art, err := FromHTML(strings.NewReader(page), Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{
		`<iframe src="https://www.youtube.com/v/abc123" width="640" height="360" allowfullscreen="">`,
		`<iframe src="https://vimeo.com/moogaloop.swf?clip_id=42" allowfullscreen="">`,
	} {
		if !strings.Contains(art.Content, want) {
			t.Fatalf("missing %s in %s", want, art.Content)
		}
	}
	if strings.Contains(art.Content, "banner.swf") || strings.Contains(art.Content, "<embed") || strings.Contains(art.Content, "<object") {
		t.Fatalf("embeds should be removed or converted: %s", art.Content)
	}
}

const busText = "The mayor spoke on Wednesday morning, and after a short pause, she promised new electric buses for every district."

// Two strong candidates under different parents: only MultiCandidate
// gathers the second one.
func TestExtract_MultiCandidate(t *testing.T) {
	column := func(text string) string {
		return "<div><div>" + strings.Repeat("<p>"+text+"</p>", 12) + "</div></div>"
	}
	page := `<html><head><title>T</title></head><body>` + column(storyText) + column(busText) + `</body></html>`

	single, err := FromHTML(strings.NewReader(page), Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(single.Text, "parks and libraries") || strings.Contains(single.Text, "electric buses") {
		t.Fatalf("single candidate should keep only the first column: %q", single.Text)
	}

	multi, err := FromHTML(strings.NewReader(page), Options{MultiCandidate: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(multi.Text, "parks and libraries") || !strings.Contains(multi.Text, "electric buses") {
		t.Fatalf("multi candidate should keep both columns: %q", multi.Text)
	}
}

func TestExtract_HTMLElementIsNotContent(t *testing.T) {
	page := `<html><head><title>Headline</title><meta name="description" content="x"></head>
<body class="has-widgets"><p>` + storyText + `</p><p>` + storyText + `</p></body></html>`
	art, err := FromHTML(strings.NewReader(page), Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := strings.Count(art.Content, "Headline"); n != 1 {
		t.Fatalf("title should appear once, in the heading, got %d: %s", n, art.Content)
	}
	if !strings.Contains(art.Text, "parks and libraries") {
		t.Fatalf("missing story text: %q", art.Text)
	}
}
