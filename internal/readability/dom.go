package readability

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// cloneNode returns a deep copy of n detached from any parent.
func cloneNode(n *html.Node) *html.Node {
	c := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
	}
	if len(n.Attr) > 0 {
		c.Attr = append([]html.Attribute(nil), n.Attr...)
	}
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		c.AppendChild(cloneNode(ch))
	}
	return c
}

func newElement(tag string) *html.Node {
	return &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
}

func isElement(n *html.Node, tags ...string) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	if len(tags) == 0 {
		return true
	}
	for _, t := range tags {
		if n.Data == t {
			return true
		}
	}
	return false
}

func getAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func setAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func removeAttr(n *html.Node, key string) {
	out := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Key != key {
			out = append(out, a)
		}
	}
	n.Attr = out
}

// children snapshots the direct children of n so callers can detach or
// replace nodes while iterating.
func children(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out
}

// elementsByTag returns descendants of root (root excluded) with the given
// tag in document order, like getElementsByTagName but as a snapshot.
func elementsByTag(root *html.Node, tag string) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && (tag == "*" || c.Data == tag) {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(root)
	return out
}

func findFirst(n *html.Node, tag string) *html.Node {
	if n == nil {
		return nil
	}
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if res := findFirst(c, tag); res != nil {
			return res
		}
	}
	return nil
}

// isAttached reports whether n is still reachable from root.
func isAttached(n, root *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p == root {
			return true
		}
	}
	return false
}

func detach(n *html.Node) {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// moveChildren moves every child of src to the end of dst.
func moveChildren(dst, src *html.Node) {
	for _, c := range children(src) {
		src.RemoveChild(c)
		dst.AppendChild(c)
	}
}

// retag replaces n with a fresh element of the given tag holding n's
// children. Attributes are dropped.
func retag(n *html.Node, tag string) *html.Node {
	repl := newElement(tag)
	moveChildren(repl, n)
	if n.Parent != nil {
		n.Parent.InsertBefore(repl, n)
		n.Parent.RemoveChild(n)
	}
	return repl
}

// ensureDocument returns a document node with html and body elements. Nodes
// that are not documents are wrapped; missing html or body elements are
// synthesized.
func ensureDocument(root *html.Node) (doc, body *html.Node) {
	doc = root
	if isElement(root, "html") {
		doc = &html.Node{Type: html.DocumentNode}
		detach(root)
		doc.AppendChild(root)
	} else if root.Type != html.DocumentNode {
		doc = &html.Node{Type: html.DocumentNode}
		htmlEl := newElement("html")
		doc.AppendChild(htmlEl)
		body = newElement("body")
		htmlEl.AppendChild(body)
		detach(root)
		if isElement(root, "body") {
			moveChildren(body, root)
		} else {
			body.AppendChild(root)
		}
		return doc, body
	}
	htmlEl := findFirst(doc, "html")
	if htmlEl == nil {
		htmlEl = newElement("html")
		moveChildren(htmlEl, doc)
		doc.AppendChild(htmlEl)
	}
	body = findFirst(htmlEl, "body")
	if body == nil {
		body = newElement("body")
		htmlEl.AppendChild(body)
	}
	return doc, body
}

func documentTitle(doc *html.Node) string {
	head := findFirst(doc, "head")
	if head == nil {
		return ""
	}
	t := findFirst(head, "title")
	if t == nil {
		return ""
	}
	return strings.TrimSpace(normalizeRe.ReplaceAllString(textContent(t), " "))
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(cur *html.Node) {
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				b.WriteString(c.Data)
				continue
			}
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func renderInner(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		_ = html.Render(&b, c)
	}
	return b.String()
}
