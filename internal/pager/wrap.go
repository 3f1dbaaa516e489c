package pager

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// wrap breaks text into lines no wider than width terminal cells. Words
// wider than a line are split.
func wrap(text string, width int) []string {
	if width <= 0 {
		width = DefaultWidth
	}
	var lines []string
	var cur strings.Builder
	curW := 0
	flush := func() {
		lines = append(lines, cur.String())
		cur.Reset()
		curW = 0
	}
	for _, word := range strings.Fields(text) {
		w := runewidth.StringWidth(word)
		if curW > 0 && curW+1+w <= width {
			cur.WriteByte(' ')
			cur.WriteString(word)
			curW += 1 + w
			continue
		}
		if curW > 0 {
			flush()
		}
		for w > width {
			head := runewidth.Truncate(word, width, "")
			if head == "" {
				// A single rune wider than the line.
				r := []rune(word)
				head = string(r[0])
			}
			lines = append(lines, head)
			word = word[len(head):]
			w = runewidth.StringWidth(word)
		}
		cur.WriteString(word)
		curW = w
	}
	if curW > 0 {
		flush()
	}
	return lines
}
