package extract

import (
	"strings"
	"testing"
)

// Benchmark both extraction strategies on representative HTML sizes.
func BenchmarkExtract(b *testing.B) {
	small := []byte("<html><head><title>t</title></head><body><main><p>" + sampleText + "</p></main></body></html>")
	medium := makeHTML(50, 60)
	large := makeHTML(200, 200)

	strategies := map[string]Extractor{
		"heuristic": HeuristicExtractor{},
		"library":   LibraryExtractor{},
	}
	for name, ex := range strategies {
		for size, input := range map[string][]byte{"small": small, "medium": medium, "large": large} {
			b.Run(name+"/"+size, func(b *testing.B) {
				for i := 0; i < b.N; i++ {
					_, _ = ex.Extract(input)
				}
			})
		}
	}
}

// BenchmarkPlainText measures flattening of an already extracted fragment.
func BenchmarkPlainText(b *testing.B) {
	doc, err := HeuristicExtractor{}.Extract(makeHTML(100, 50))
	if err != nil {
		b.Fatalf("extract: %v", err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = PlainText(doc.HTML)
	}
}

func makeHTML(paras int, itemsPerList int) []byte {
    builder := new(strings.Builder)
	builder.WriteString("<html><head><title>demo</title></head><body><main>")
	for i := 0; i < paras; i++ {
		builder.WriteString("<h2>Heading</h2><p>")
		builder.WriteString(sampleText)
		builder.WriteString("</p>")
	}
	builder.WriteString("<ul>")
	for i := 0; i < itemsPerList; i++ {
		builder.WriteString("<li>")
		builder.WriteString(sampleText)
		builder.WriteString("</li>")
	}
	builder.WriteString("</ul></main></body></html>")
	return []byte(builder.String())
}

const sampleText = "Lorem ipsum dolor sit amet, consectetur adipiscing elit. Sed do eiusmod tempor incididunt ut labore et dolore magna aliqua."
