package readability

import (
	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"
)

// contentHintSelector matches containers that almost always hold the story.
const contentHintSelector = "article, main, .story, #story, div.story-content"

var phrasingTags = map[string]bool{
	"abbr": true, "audio": true, "b": true, "bdo": true, "br": true, "button": true,
	"cite": true, "code": true, "data": true, "datalist": true, "dfn": true, "em": true,
	"embed": true, "i": true, "img": true, "input": true, "kbd": true, "label": true,
	"mark": true, "math": true, "meter": true, "noscript": true, "object": true,
	"output": true, "progress": true, "q": true, "ruby": true, "samp": true,
	"select": true, "small": true, "span": true, "strong": true, "sub": true,
	"sup": true, "textarea": true, "time": true, "u": true, "var": true, "wbr": true,
}

// prepDocument strips scripts, styles and asides, renames font tags, and
// narrows the body to the largest content hint when the page has one.
// Without a hint, double line breaks become paragraph boundaries.
func prepDocument(doc, body *html.Node, opts Options) {
	for _, tag := range []string{"script", "style", "noscript", "aside"} {
		for _, n := range elementsByTag(doc, tag) {
			detach(n)
		}
	}
	for _, n := range elementsByTag(body, "font") {
		retag(n, "span")
	}

	if !opts.IgnoreContentHints {
		if hint := largestContentHint(body); hint != nil {
			log.Debug().Str("tag", hint.Data).Msg("narrowing body to content hint")
			for _, c := range children(body) {
				body.RemoveChild(c)
			}
			detach(hint)
			body.AppendChild(hint)
			return
		}
	}
	replaceBrs(body)
}

// largestContentHint returns the hint element with the most markup. Hints
// holding less than a short paragraph of text are skipped.
func largestContentHint(body *html.Node) *html.Node {
	var best *html.Node
	bestLen := -1
	goquery.NewDocumentFromNode(body).Find(contentHintSelector).Each(func(_ int, s *goquery.Selection) {
		n := s.Get(0)
		if textLength(innerText(n, true)) < minParagraphLength {
			return
		}
		if l := len(renderInner(n)); l > bestLen {
			best, bestLen = n, l
		}
	})
	return best
}

// replaceBrs turns each run of two or more <br> elements into a paragraph
// holding the phrasing content that follows the run.
func replaceBrs(root *html.Node) {
	for _, br := range elementsByTag(root, "br") {
		if br.Parent == nil {
			continue
		}
		next := br.NextSibling
		replaced := false
		for next = nextSignificant(next); isElement(next, "br"); next = nextSignificant(next) {
			replaced = true
			sibling := next.NextSibling
			detach(next)
			next = sibling
		}
		if !replaced {
			continue
		}

		p := newElement("p")
		parent := br.Parent
		parent.InsertBefore(p, br)
		parent.RemoveChild(br)

		next = p.NextSibling
		for next != nil {
			if isElement(next, "br") {
				if after := nextSignificant(next.NextSibling); isElement(after, "br") {
					break
				}
			}
			if !isPhrasing(next) {
				break
			}
			sibling := next.NextSibling
			parent.RemoveChild(next)
			p.AppendChild(next)
			next = sibling
		}
		for p.LastChild != nil && isWhitespace(p.LastChild) {
			p.RemoveChild(p.LastChild)
		}
		if isElement(parent, "p") {
			retag(parent, "div")
		}
	}
}

func nextSignificant(n *html.Node) *html.Node {
	for n != nil && isWhitespace(n) {
		n = n.NextSibling
	}
	return n
}

func isPhrasing(n *html.Node) bool {
	switch n.Type {
	case html.TextNode:
		return true
	case html.ElementNode:
		if phrasingTags[n.Data] {
			return true
		}
		if n.Data == "a" || n.Data == "del" || n.Data == "ins" {
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if !isPhrasing(c) {
					return false
				}
			}
			return true
		}
	}
	return false
}
