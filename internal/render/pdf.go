package render

import (
	"bufio"
	"io"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/hyperifyio/readscroll/internal/extract"
)

// WritePDF lays the flattened article text out on A4 pages. Lines starting
// with '#' become bold headings and "- " lines become bullets. The core fonts
// cover Latin-1; other runes are dropped by the translator.
func WritePDF(w io.Writer, doc extract.Document) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(doc.Title, true)
	if doc.Byline != "" {
		pdf.SetAuthor(doc.Byline, true)
	}
	pdf.SetFont("Helvetica", "", 11)
	pdf.AddPage()

	text := doc.Text
	if doc.Title != "" && !strings.HasPrefix(text, "# "+doc.Title) {
		text = "# " + doc.Title + "\n\n" + text
	}

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	blank := false
	for scanner.Scan() {
		s := strings.TrimSpace(scanner.Text())
		if s == "" {
			if !blank {
				pdf.Ln(4)
			}
			blank = true
			continue
		}
		blank = false
		if strings.HasPrefix(s, "#") {
			level := 0
			for level < len(s) && s[level] == '#' {
				level++
			}
			heading := strings.TrimSpace(s[level:])
			if heading == "" {
				continue
			}
			size := 16.0
			switch {
			case level == 2:
				size = 14
			case level >= 3:
				size = 12
			}
			pdf.SetFont("Helvetica", "B", size)
			pdf.MultiCell(0, size*0.5, tr(heading), "", "L", false)
			pdf.SetFont("Helvetica", "", 11)
			continue
		}
		if strings.HasPrefix(s, "- ") {
			pdf.SetX(pdf.GetX() + 4)
			pdf.MultiCell(0, 5, tr("• "+s[2:]), "", "L", false)
			continue
		}
		pdf.MultiCell(0, 5, tr(s), "", "L", false)
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return pdf.Output(w)
}
