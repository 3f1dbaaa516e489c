package readability

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

var (
	unlikelyCandidatesRe   = regexp.MustCompile(`(?i)combx|comment|disqus|foot|menu|nav|rss|shoutbox|sidebar|sponsor|popup|signup|share|cCol`)
	okMaybeItsACandidateRe = regexp.MustCompile(`(?i)and|article|body|column|main|content|news|mod`)
	positiveRe             = regexp.MustCompile(`(?i)aCol|article|body|content|entry|hentry|page|pagination|post|text|story`)
	negativeRe             = regexp.MustCompile(`(?i)block|combx|comment|contact|foot|footer|footnote|link|media|meta|promo|related|scroll|shoutbox|sponsor|tags|widget|bio|alert|addInfo|slideshow|share|nocontent`)
	videoRe                = regexp.MustCompile(`(?i)https?://(www\.)?(youtube|vimeo)\.com`)
	normalizeRe            = regexp.MustCompile(`\s{2,}`)
	sentenceEndRe          = regexp.MustCompile(`\.( |$)`)
)

// divToPTags are the descendants that keep a div from being demoted to a
// paragraph.
var divToPTags = map[string]bool{
	"a": true, "blockquote": true, "dl": true, "div": true, "img": true,
	"ol": true, "p": true, "pre": true, "table": true, "ul": true,
}

// innerText returns the trimmed text content of n, with whitespace runs
// collapsed when normalize is set.
func innerText(n *html.Node, normalize bool) string {
	s := strings.TrimSpace(textContent(n))
	if normalize {
		s = normalizeRe.ReplaceAllString(s, " ")
	}
	return s
}

func textLength(s string) int {
	return utf8.RuneCountInString(s)
}

// commaSegments counts the comma separated segments of the normalized text.
func commaSegments(n *html.Node) int {
	return len(splitCommas(innerText(n, true)))
}

func splitCommas(s string) []string {
	return strings.Split(s, ",")
}

// linkDensity is the share of n's text that sits inside anchors.
func linkDensity(n *html.Node) float64 {
	total := textLength(innerText(n, true))
	if total == 0 {
		return 0
	}
	linked := 0
	for _, a := range elementsByTag(n, "a") {
		linked += textLength(innerText(a, true))
	}
	return float64(linked) / float64(total)
}

// matchClass is the class string used for keyword matching. Nodes without a
// class fall back to their itemprop, then their id.
func matchClass(n *html.Node) string {
	if c := getAttr(n, "class"); c != "" {
		return c
	}
	if p := getAttr(n, "itemprop"); p != "" {
		return p
	}
	return getAttr(n, "id")
}

// classWeight scores class and id against the positive and negative keyword
// patterns, 25 points per hit.
func classWeight(n *html.Node) float64 {
	weight := 0.0
	if class := matchClass(n); class != "" {
		if negativeRe.MatchString(class) {
			weight -= 25
		}
		if positiveRe.MatchString(class) {
			weight += 25
		}
	}
	if id := getAttr(n, "id"); id != "" {
		if negativeRe.MatchString(id) {
			weight -= 25
		}
		if positiveRe.MatchString(id) {
			weight += 25
		}
	}
	return weight
}

func hasBlockDescendant(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if divToPTags[c.Data] || hasBlockDescendant(c) {
			return true
		}
	}
	return false
}

func isWhitespace(n *html.Node) bool {
	return n.Type == html.TextNode && strings.TrimSpace(n.Data) == ""
}
