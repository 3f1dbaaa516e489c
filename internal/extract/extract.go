package extract

import (
    "strings"

    "golang.org/x/net/html"
    "golang.org/x/net/html/atom"
)

// Document is the reader view of a page: the cleaned HTML fragment plus a
// plain text rendering of it.
type Document struct {
    Title         string
    Byline        string
    PublishedTime string
    HTML          string
    Text          string
}

// Empty reports whether the document carries no readable text.
func (d Document) Empty() bool {
    return strings.TrimSpace(d.Text) == ""
}

// PlainText flattens an HTML fragment into text. Headings are prefixed with
// '#' marks by level, list items with "- ", and pre/code blocks keep their
// line breaks.
func PlainText(fragment string) string {
    ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
    nodes, err := html.ParseFragment(strings.NewReader(fragment), ctx)
    if err != nil {
        return ""
    }
    var b strings.Builder
    for _, n := range nodes {
        collectText(&b, n, false)
    }
    return normalizeWhitespace(b.String())
}

func collectText(b *strings.Builder, n *html.Node, inPre bool) {
    if n.Type == html.ElementNode {
        name := strings.ToLower(n.Data)
        switch name {
        case "script", "style", "noscript":
            return
        case "pre":
            inPre = true
            b.WriteString("\n")
        case "br", "hr":
            b.WriteString("\n")
        case "h1", "h2", "h3", "h4", "h5", "h6":
            b.WriteString("\n")
            b.WriteString(strings.Repeat("#", int(name[1]-'0')))
            b.WriteString(" ")
        case "li":
            b.WriteString("\n- ")
        case "p", "div", "blockquote", "ul", "ol", "table", "tr", "figure":
            // Add a newline before block starts to ensure separation
            b.WriteString("\n")
        case "td", "th":
            b.WriteString(" ")
        case "img":
            if alt := attr(n, "alt"); alt != "" {
                b.WriteString("[" + alt + "]")
            }
        }
    }

    if n.Type == html.TextNode {
        data := n.Data
        if !inPre {
            data = strings.ReplaceAll(data, "\t", " ")
            data = strings.ReplaceAll(data, "\r", " ")
            data = strings.ReplaceAll(data, "\n", " ")
        }
        b.WriteString(data)
    }

    for c := n.FirstChild; c != nil; c = c.NextSibling {
        collectText(b, c, inPre)
    }

    if n.Type == html.ElementNode {
        switch strings.ToLower(n.Data) {
        case "p", "h1", "h2", "h3", "h4", "h5", "h6", "blockquote", "figure":
            b.WriteString("\n\n")
        case "tr", "div":
            b.WriteString("\n")
        case "pre":
            b.WriteString("\n\n")
        }
    }
}

func attr(n *html.Node, key string) string {
    for _, a := range n.Attr {
        if a.Key == key {
            return a.Val
        }
    }
    return ""
}

func normalizeWhitespace(s string) string {
    // Collapse multiple spaces and blank lines
    lines := strings.Split(s, "\n")
    out := make([]string, 0, len(lines))
    for _, line := range lines {
        trimmed := strings.TrimSpace(line)
        if trimmed == "" {
            // Keep at most one consecutive blank
            if len(out) > 0 && out[len(out)-1] == "" {
                continue
            }
            out = append(out, "")
            continue
        }
        out = append(out, collapseSpaces(trimmed))
    }
    for len(out) > 0 && out[0] == "" {
        out = out[1:]
    }
    for len(out) > 0 && out[len(out)-1] == "" {
        out = out[:len(out)-1]
    }
    return strings.Join(out, "\n")
}

func collapseSpaces(s string) string {
    var b strings.Builder
    lastSpace := false
    for _, r := range s {
        if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
            if !lastSpace {
                b.WriteByte(' ')
                lastSpace = true
            }
            continue
        }
        b.WriteRune(r)
        lastSpace = false
    }
    return b.String()
}
