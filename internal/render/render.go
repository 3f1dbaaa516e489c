// Package render writes an extracted article as a standalone HTML document,
// plain text or PDF.
package render

import (
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/hyperifyio/readscroll/internal/extract"
	"github.com/hyperifyio/readscroll/internal/session"
)

// Output formats.
const (
	FormatHTML = "html"
	FormatText = "text"
	FormatPDF  = "pdf"
)

// ParseFormat normalizes a format name. Empty selects HTML.
func ParseFormat(s string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(s)); f {
	case "", FormatHTML:
		return FormatHTML, nil
	case FormatText, "txt":
		return FormatText, nil
	case FormatPDF:
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("unknown output format %q", s)
	}
}

// Write renders doc to w in format.
func Write(w io.Writer, format string, doc extract.Document, styles session.StylePreferences) error {
	switch format {
	case FormatHTML:
		return WriteHTML(w, doc, styles)
	case FormatText:
		return WriteText(w, doc)
	case FormatPDF:
		return WritePDF(w, doc)
	}
	return fmt.Errorf("unknown output format %q", format)
}

var page = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
body { margin: 0; background: {{.CSS.Background}}; color-scheme: {{.CSS.Scheme}}; }
.reader { max-width: 42em; margin: 2em auto; padding: 2em; font-size: {{.CSS.FontSize}}; font-weight: {{.CSS.FontWeight}};
  line-height: 1.6; color: {{.CSS.Color}}; box-shadow: 0 4px 12px {{.CSS.Shadow}}; }
.reader h1, .reader h2, .reader h3 { color: {{.CSS.Heading}}; border-bottom: 1px solid {{.CSS.Border}}; }
.reader a { color: {{.CSS.Link}}; }
.reader blockquote { border-left: 4px solid {{.CSS.Border}}; margin-left: 0; padding-left: 1em; }
.reader pre, .reader code { background: {{.CSS.Code}}; }
.reader pre { overflow-x: auto; padding: 1em; }
.reader img, .reader video { max-width: {{.CSS.ImageWidth}}; height: auto; display: block; margin: 1.5em auto; }
{{- if .Rainbow}}
.reader p:nth-child(6n+1) { color: #c0392b; } .reader p:nth-child(6n+2) { color: #d35400; }
.reader p:nth-child(6n+3) { color: #b7950b; } .reader p:nth-child(6n+4) { color: #1e8449; }
.reader p:nth-child(6n+5) { color: #1f618d; } .reader p:nth-child(6n) { color: #6c3483; }
{{- end}}
</style>
</head>
<body>
<main class="reader {{.ThemeName}}-theme">
{{- if .Byline}}
<p class="byline">{{.Byline}}</p>
{{- end}}
{{.Content}}
</main>
</body>
</html>
`))

type pageData struct {
	Title     string
	Byline    string
	Content   template.HTML
	ThemeName string
	Rainbow   bool
	CSS       cssVars
}

// cssVars are stylesheet values. They come from the theme table or from
// validated preferences, never from the page.
type cssVars struct {
	Background, Color, Shadow, Link, Heading, Border, Code template.CSS
	FontSize, FontWeight, ImageWidth, Scheme              template.CSS
}

// WriteHTML writes a themed standalone HTML document. The article markup is
// embedded as is; it was restricted to an allow-list during extraction.
func WriteHTML(w io.Writer, doc extract.Document, styles session.StylePreferences) error {
	styles = withValidStyles(styles)
	scheme := "light"
	if styles.Theme == session.ThemeDark {
		scheme = "dark"
	}
	t := ThemeFor(styles.Theme)
	return page.Execute(w, pageData{
		Title:     doc.Title,
		Byline:    doc.Byline,
		Content:   template.HTML(doc.HTML),
		ThemeName: styles.Theme,
		Rainbow:   styles.Theme == session.ThemeRainbow,
		CSS: cssVars{
			Background: template.CSS(t.Background),
			Color:      template.CSS(t.Color),
			Shadow:     template.CSS(t.Shadow),
			Link:       template.CSS(t.Link),
			Heading:    template.CSS(t.Heading),
			Border:     template.CSS(t.Border),
			Code:       template.CSS(t.Code),
			FontSize:   template.CSS(styles.FontSize),
			FontWeight: template.CSS(styles.FontWeight),
			ImageWidth: template.CSS(imageWidth(styles.ImageSize)),
			Scheme:     template.CSS(scheme),
		},
	})
}

// withValidStyles replaces invalid preferences with the defaults so nothing
// unchecked reaches the stylesheet.
func withValidStyles(s session.StylePreferences) session.StylePreferences {
	if s.Validate() != nil {
		return session.DefaultStyles()
	}
	return s
}

// WriteText writes the title, byline and flattened text.
func WriteText(w io.Writer, doc extract.Document) error {
	var b strings.Builder
	if doc.Title != "" && !strings.HasPrefix(doc.Text, "# "+doc.Title) {
		b.WriteString(doc.Title)
		b.WriteString("\n\n")
	}
	if doc.Byline != "" {
		b.WriteString(doc.Byline)
		b.WriteString("\n\n")
	}
	b.WriteString(strings.TrimSpace(doc.Text))
	b.WriteByte('\n')
	_, err := io.WriteString(w, b.String())
	return err
}
