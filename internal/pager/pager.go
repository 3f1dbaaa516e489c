// Package pager shows an extracted article on a terminal and lets a scroll
// controller advance through it. Lines are printed as they scroll into view,
// so the terminal's own scrollback acts as the page.
package pager

import (
	"fmt"
	"io"
	"math"
	"strings"
	"sync"

	"github.com/fatih/color"

	"github.com/hyperifyio/readscroll/internal/extract"
	"github.com/hyperifyio/readscroll/internal/scroll"
	"github.com/hyperifyio/readscroll/internal/session"
)

// Defaults for Options.
const (
	DefaultWidth      = 80
	DefaultRows       = 24
	DefaultLineHeight = 20.0
)

type Options struct {
	Width int
	Rows  int
	// LineHeight is the number of scroll pixels one text line takes.
	LineHeight float64
}

type line struct {
	text    string
	heading bool
}

// Pager is a session.Page, session.Presenter and scroll.Viewport backed by a
// writer.
type Pager struct {
	out    io.Writer
	source []byte
	opts   Options

	mu      sync.Mutex
	lines   []line
	y       float64
	printed int
	styles  session.StylePreferences
	rainbow int
}

func New(source []byte, out io.Writer, opts Options) *Pager {
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if opts.Rows <= 0 {
		opts.Rows = DefaultRows
	}
	if opts.LineHeight <= 0 {
		opts.LineHeight = DefaultLineHeight
	}
	return &Pager{out: out, source: source, opts: opts, styles: session.DefaultStyles()}
}

func (p *Pager) Source() ([]byte, error) {
	if len(p.source) == 0 {
		return nil, fmt.Errorf("pager: no page source")
	}
	return p.source, nil
}

func (p *Pager) ShowReader(doc extract.Document) error {
	var lines []line
	if doc.Title != "" && !strings.HasPrefix(doc.Text, "# "+doc.Title) {
		for _, l := range wrap(doc.Title, p.opts.Width) {
			lines = append(lines, line{text: l, heading: true})
		}
		lines = append(lines, line{})
	}
	if doc.Byline != "" {
		lines = append(lines, wrapped(doc.Byline, p.opts.Width)...)
		lines = append(lines, line{})
	}
	lines = append(lines, layout(doc.Text, p.opts.Width)...)
	return p.show(lines)
}

func (p *Pager) ShowMessage(msg string) error {
	return p.show(wrapped(msg, p.opts.Width))
}

// Restore leaves reader mode. The terminal keeps what was printed.
func (p *Pager) Restore() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lines = nil
	p.y = 0
	p.printed = 0
	_, err := fmt.Fprintln(p.out)
	return err
}

func (p *Pager) Viewport() scroll.Viewport { return p }

// ApplyStyles maps the reader theme and font weight to terminal colors.
// Font and image sizes have no terminal equivalent.
func (p *Pager) ApplyStyles(s session.StylePreferences) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.styles = s
	return nil
}

func (p *Pager) Metrics() scroll.Metrics {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.metrics()
}

func (p *Pager) metrics() scroll.Metrics {
	return scroll.Metrics{
		ScrollY:         p.y,
		ViewportHeight:  float64(p.opts.Rows) * p.opts.LineHeight,
		DocScrollHeight: float64(len(p.lines)) * p.opts.LineHeight,
	}
}

// ScrollBy moves the viewport down and prints the lines it uncovers.
func (p *Pager) ScrollBy(dy float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	m := p.metrics()
	p.y = math.Max(0, math.Min(p.y+dy, m.DocScrollHeight-m.ViewportHeight))
	// Write errors surface on the next Show call.
	_ = p.reveal()
}

// Position returns the number of lines printed and the total line count.
func (p *Pager) Position() (printed, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.printed, len(p.lines)
}

func (p *Pager) show(lines []line) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lines = lines
	p.y = 0
	p.printed = 0
	return p.reveal()
}

// reveal prints every line above the bottom of the viewport. Must hold mu.
func (p *Pager) reveal() error {
	bottom := int((p.y + float64(p.opts.Rows)*p.opts.LineHeight) / p.opts.LineHeight)
	if bottom > len(p.lines) {
		bottom = len(p.lines)
	}
	var b strings.Builder
	for ; p.printed < bottom; p.printed++ {
		b.WriteString(p.paint(p.lines[p.printed]))
		b.WriteByte('\n')
	}
	if b.Len() == 0 {
		return nil
	}
	_, err := io.WriteString(p.out, b.String())
	return err
}

var rainbowColors = []color.Attribute{color.FgRed, color.FgYellow, color.FgGreen, color.FgCyan, color.FgBlue, color.FgMagenta}

// paint colors one line for the current theme. Must hold mu.
func (p *Pager) paint(l line) string {
	if l.text == "" {
		return ""
	}
	var attrs []color.Attribute
	switch p.styles.Theme {
	case session.ThemeDark:
		attrs = append(attrs, color.FgHiWhite)
	case session.ThemeStarWars:
		attrs = append(attrs, color.FgHiYellow)
	case session.ThemeRainbow:
		attrs = append(attrs, rainbowColors[p.rainbow%len(rainbowColors)])
		p.rainbow++
	}
	if l.heading {
		attrs = append(attrs, color.Bold, color.Underline)
	} else if p.styles.FontWeight == "bold" {
		attrs = append(attrs, color.Bold)
	}
	if len(attrs) == 0 {
		return l.text
	}
	return color.New(attrs...).Sprint(l.text)
}

func wrapped(text string, width int) []line {
	var out []line
	for _, l := range wrap(text, width) {
		out = append(out, line{text: l})
	}
	return out
}

// layout wraps plain text paragraph by paragraph. Markdown-style heading
// markers produced by the text flattener mark heading lines; blank lines
// between paragraphs are kept, runs of them collapse to one.
func layout(text string, width int) []line {
	var out []line
	blank := true
	for _, para := range strings.Split(text, "\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			if !blank {
				out = append(out, line{})
				blank = true
			}
			continue
		}
		heading := strings.HasPrefix(para, "#")
		if heading {
			para = strings.TrimSpace(strings.TrimLeft(para, "#"))
		}
		indent := ""
		if strings.HasPrefix(para, "- ") {
			indent = "  "
		}
		for i, l := range wrap(para, width-len(indent)) {
			if i > 0 {
				l = indent + l
			}
			out = append(out, line{text: l, heading: heading})
		}
		blank = false
	}
	if n := len(out); n > 0 && out[n-1].text == "" {
		out = out[:n-1]
	}
	return out
}
