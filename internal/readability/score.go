package readability

import (
	"math"

	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"
)

// minParagraphLength is the shortest paragraph text that counts toward a
// candidate's score.
const minParagraphLength = 25

// CandidateScore is the score attached to one candidate during a pass.
type CandidateScore struct {
	ContentScore float64
	scaled       bool
}

// Scores maps candidate nodes to their score. It lives outside the tree and
// is discarded with the pass that built it.
type Scores map[*html.Node]*CandidateScore

// Of returns the content score of n and whether n was scored.
func (s Scores) Of(n *html.Node) (float64, bool) {
	cs, ok := s[n]
	if !ok {
		return 0, false
	}
	return cs.ContentScore, true
}

// Pass is one scoring pass over a tree. Scoring the same tree twice with one
// Pass never counts a paragraph or scales a candidate twice.
type Pass struct {
	scores     Scores
	candidates []*html.Node
	counted    map[*html.Node]bool
}

// NewPass starts an empty scoring pass.
func NewPass() *Pass {
	return &Pass{scores: Scores{}, counted: map[*html.Node]bool{}}
}

// Scores returns the scores collected so far.
func (p *Pass) Scores() Scores { return p.scores }

// Candidates returns the scored nodes in the order they were first seen.
func (p *Pass) Candidates() []*html.Node { return p.candidates }

// Score walks every paragraph under root, credits its parent and grandparent,
// then scales each new candidate by its link density. It returns the
// candidate list.
func (p *Pass) Score(root *html.Node) []*html.Node {
	for _, para := range elementsByTag(root, "p") {
		if p.counted[para] {
			continue
		}
		text := innerText(para, true)
		if textLength(text) < minParagraphLength {
			continue
		}
		p.counted[para] = true

		parent := para.Parent
		var grand *html.Node
		if parent != nil {
			grand = parent.Parent
		}
		if !isElement(parent) {
			parent = nil
		}
		if !isElement(grand) {
			grand = nil
		}
		if parent != nil {
			p.initialize(parent)
		}
		if grand != nil {
			p.initialize(grand)
		}

		inc := paragraphScore(text)
		if parent != nil {
			p.scores[parent].ContentScore += inc
		}
		if grand != nil {
			p.scores[grand].ContentScore += inc / 2
		}
	}

	for _, c := range p.candidates {
		cs := p.scores[c]
		if cs.scaled {
			continue
		}
		cs.ContentScore *= 1 - linkDensity(c)
		cs.scaled = true
		log.Debug().
			Str("tag", c.Data).
			Str("class", getAttr(c, "class")).
			Str("id", getAttr(c, "id")).
			Float64("score", cs.ContentScore).
			Msg("candidate scored")
	}
	return p.candidates
}

// initialize gives n its base score once per pass.
func (p *Pass) initialize(n *html.Node) {
	if _, ok := p.scores[n]; ok {
		return
	}
	p.scores[n] = &CandidateScore{ContentScore: tagWeight(n.Data) + classWeight(n)}
	p.candidates = append(p.candidates, n)
}

// Top returns the highest scoring candidate, the first one on ties.
func (p *Pass) Top() (*html.Node, float64) {
	var top *html.Node
	best := 0.0
	for _, c := range p.candidates {
		s := p.scores[c].ContentScore
		if top == nil || s > best {
			top, best = c, s
		}
	}
	return top, best
}

func paragraphScore(text string) float64 {
	score := 1.0
	score += float64(len(splitCommas(text)))
	score += math.Min(math.Floor(float64(textLength(text))/100), 3)
	return score
}

func tagWeight(tag string) float64 {
	switch tag {
	case "article":
		return 400
	case "div":
		return 5
	case "pre", "td", "blockquote":
		return 3
	case "address", "ol", "ul", "dl", "dd", "dt", "li", "form":
		return -3
	case "h1", "h2", "h3", "h4", "h5", "h6", "th":
		return -5
	}
	return 0
}
