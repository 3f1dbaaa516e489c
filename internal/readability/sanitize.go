package readability

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

var allowedTags = map[string]bool{
	"p": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"img": true, "video": true, "audio": true, "iframe": true,
	"ul": true, "ol": true, "li": true, "blockquote": true, "pre": true, "code": true,
	"figure": true, "figcaption": true,
	"table": true, "thead": true, "tbody": true, "tr": true, "th": true, "td": true,
	"strong": true, "em": true, "b": true, "i": true, "u": true, "a": true,
	"span": true, "br": true,
}

// droppedTags are removed with their content rather than unwrapped.
var droppedTags = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true,
	"head": true, "title": true,
}

var mediaTags = map[string]bool{"img": true, "video": true, "audio": true, "iframe": true}

var mediaAttrs = map[string]bool{
	"src": true, "controls": true, "width": true, "height": true,
	"frameborder": true, "allow": true, "allowfullscreen": true, "poster": true,
}

// sanitize restricts the tree below n to the allowed tags in place.
// Disallowed elements are unwrapped, scripts and comments are dropped. Inline
// paragraphs made from loose text become spans.
func sanitize(n *html.Node, keepDivs bool) {
	for _, c := range children(n) {
		switch c.Type {
		case html.CommentNode, html.DoctypeNode:
			n.RemoveChild(c)
			continue
		case html.ElementNode:
			if droppedTags[c.Data] {
				n.RemoveChild(c)
				continue
			}
		default:
			continue
		}

		if (c.Data == "embed" || c.Data == "object") && isVideoEmbed(c) {
			if f := videoFrame(c); f != nil {
				f.Attr = filterAttrs(f)
				continue
			}
		}
		sanitize(c, keepDivs)

		if c.Data == "p" && getAttr(c, "class") == styledClass {
			c = retag(c, "span")
		}
		if !allowedTags[c.Data] && !(keepDivs && c.Data == "div") {
			for _, gc := range children(c) {
				c.RemoveChild(gc)
				n.InsertBefore(gc, c)
			}
			n.RemoveChild(c)
			continue
		}
		c.Attr = filterAttrs(c)
	}
}

func filterAttrs(n *html.Node) []html.Attribute {
	var out []html.Attribute
	for _, a := range n.Attr {
		if a.Namespace != "" {
			continue
		}
		key := strings.ToLower(a.Key)
		switch {
		case mediaTags[n.Data] && mediaAttrs[key]:
		case n.Data == "a" && key == "href":
		default:
			continue
		}
		out = append(out, a)
	}
	return out
}

// videoFrame replaces a YouTube or Vimeo embed or object with an iframe
// loading the same player. It returns nil when no player URL is found.
func videoFrame(n *html.Node) *html.Node {
	src := videoSource(n)
	if src == "" || n.Parent == nil {
		return nil
	}
	f := newElement("iframe")
	setAttr(f, "src", src)
	for _, k := range []string{"width", "height"} {
		if v := getAttr(n, k); v != "" {
			setAttr(f, k, v)
		}
	}
	setAttr(f, "allowfullscreen", "")
	n.Parent.InsertBefore(f, n)
	n.Parent.RemoveChild(n)
	return f
}

// videoSource looks for the player URL in src or data, then in nested
// param values and embeds.
func videoSource(n *html.Node) string {
	for _, k := range []string{"src", "data"} {
		if v := getAttr(n, k); videoRe.MatchString(v) {
			return v
		}
	}
	for _, el := range elementsByTag(n, "*") {
		for _, k := range []string{"value", "src", "data"} {
			if v := getAttr(el, k); videoRe.MatchString(v) {
				return v
			}
		}
	}
	return ""
}

// Sanitize restricts an HTML fragment to the reader allow-list: disallowed
// elements are unwrapped, attributes outside the media and link sets are
// dropped, and video embeds become iframes. Divs are kept.
func Sanitize(fragment string) (string, error) {
	container := newElement("div")
	nodes, err := html.ParseFragment(strings.NewReader(fragment), container)
	if err != nil {
		return "", fmt.Errorf("parse fragment: %w", err)
	}
	for _, n := range nodes {
		container.AppendChild(n)
	}
	sanitize(container, true)
	return renderInner(container), nil
}
