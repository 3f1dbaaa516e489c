package readability

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"
)

// prepArticle runs the fixed cleanup sequence over the gathered content.
func prepArticle(content *html.Node) {
	cleanStyles(content)
	replaceBrs(content)

	cleanTag(content, "form")
	cleanTag(content, "object")
	cleanTag(content, "embed")
	cleanTag(content, "iframe")
	cleanTag(content, "h1")
	if len(elementsByTag(content, "h2")) == 1 {
		cleanTag(content, "h2")
	}

	cleanConditionally(content, "table")
	cleanConditionally(content, "ul")
	cleanConditionally(content, "div")

	cleanHeaders(content)
	removeEmptyParagraphs(content)
	removeBreaksBeforeParagraphs(content)
}

// cleanStyles drops inline style attributes below n, leaving the styling of
// synthesized inline paragraphs in place.
func cleanStyles(n *html.Node) {
	for _, el := range elementsByTag(n, "*") {
		if getAttr(el, "class") != styledClass {
			removeAttr(el, "style")
		}
	}
}

// cleanTag removes every tag element below n. Embedded YouTube and Vimeo
// players are kept.
func cleanTag(n *html.Node, tag string) {
	embed := tag == "object" || tag == "embed"
	list := elementsByTag(n, tag)
	for i := len(list) - 1; i >= 0; i-- {
		el := list[i]
		if !isAttached(el, n) {
			continue
		}
		if embed && isVideoEmbed(el) {
			continue
		}
		detach(el)
	}
}

func isVideoEmbed(n *html.Node) bool {
	for _, a := range n.Attr {
		if videoRe.MatchString(a.Val) {
			return true
		}
	}
	return videoRe.MatchString(renderInner(n))
}

// cleanConditionally removes tag elements that look like boilerplate: a
// negative class weight, or, for elements with little comma separated text,
// too many images, list items, inputs, links or embeds for the text they hold.
func cleanConditionally(n *html.Node, tag string) {
	list := elementsByTag(n, tag)
	for i := len(list) - 1; i >= 0; i-- {
		el := list[i]
		if !isAttached(el, n) {
			continue
		}
		weight := classWeight(el)
		if weight < 0 {
			log.Debug().Str("tag", tag).Float64("weight", weight).Msg("removing negatively weighted node")
			detach(el)
			continue
		}
		if commaSegments(el) >= 10 {
			continue
		}
		if reason := conditionalReason(el, tag, weight); reason != "" {
			log.Debug().Str("tag", tag).Str("reason", reason).Msg("removing node conditionally")
			detach(el)
		}
	}
}

func conditionalReason(el *html.Node, tag string, weight float64) string {
	sel := goquery.NewDocumentFromNode(el).Selection
	p := sel.Find("p").Length()
	img := sel.Find("img").Length()
	li := sel.Find("li").Length() - 100
	input := sel.Find("input").Length()
	embeds := 0
	sel.Find("embed, object").Each(func(_ int, s *goquery.Selection) {
		if !isVideoEmbed(s.Get(0)) {
			embeds++
		}
	})
	density := linkDensity(el)
	length := textLength(innerText(el, true))

	switch {
	case img > p:
		return "images"
	case li > p && tag != "ul" && tag != "ol":
		return "list items"
	case input > p/3:
		return "inputs"
	case length < minParagraphLength && (img == 0 || img > 2):
		return "short"
	case weight < 25 && density > 0.2:
		return "links"
	case weight >= 25 && density > 0.5:
		return "links"
	case (embeds == 1 && length < 75) || embeds > 1:
		return "embeds"
	}
	return ""
}

// cleanHeaders removes headings that are negatively weighted or mostly links.
func cleanHeaders(n *html.Node) {
	for _, tag := range []string{"h1", "h2", "h3", "h4", "h5", "h6"} {
		list := elementsByTag(n, tag)
		for i := len(list) - 1; i >= 0; i-- {
			if classWeight(list[i]) < 0 || linkDensity(list[i]) > 0.33 {
				detach(list[i])
			}
		}
	}
}

func removeEmptyParagraphs(n *html.Node) {
	list := elementsByTag(n, "p")
	for i := len(list) - 1; i >= 0; i-- {
		p := list[i]
		if !isAttached(p, n) {
			continue
		}
		media := goquery.NewDocumentFromNode(p).Find("img, embed, object, iframe, video, audio").Length()
		if media == 0 && strings.TrimSpace(textContent(p)) == "" {
			detach(p)
		}
	}
}

// removeBreaksBeforeParagraphs drops a <br> whose next non-blank sibling is
// a paragraph.
func removeBreaksBeforeParagraphs(n *html.Node) {
	for _, br := range elementsByTag(n, "br") {
		if isElement(nextSignificant(br.NextSibling), "p") {
			detach(br)
		}
	}
}
