package readability

import (
	"math"

	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"
)

const (
	// multiCandidateScore is the score above which a candidate contributes
	// its own siblings when Options.MultiCandidate is set.
	multiCandidateScore = 50
	siblingTextLength   = 80
)

// styledClass marks paragraphs synthesized from loose text inside a div.
const styledClass = "readability-styled"

// grabArticle prunes and normalizes the body, scores it and gathers the top
// candidate with its qualifying siblings into a fresh container. The
// container is cleaned before it is returned.
func grabArticle(body *html.Node, opts Options) *html.Node {
	normalizeBody(body, opts.PreserveUnlikely)

	pass := NewPass()
	pass.Score(body)

	top, topScore := pass.Top()
	if top == nil || top == body || isElement(top, "html") {
		log.Debug().Msg("no usable candidate, wrapping whole body")
		wrapper := newElement("div")
		moveChildren(wrapper, body)
		body.AppendChild(wrapper)
		pass.adopt(wrapper, 0)
		top, topScore = wrapper, 0
	}

	tops := []*html.Node{top}
	if opts.MultiCandidate {
		for _, c := range pass.Candidates() {
			if c == top || c == body {
				continue
			}
			if s, _ := pass.Scores().Of(c); s > multiCandidateScore {
				tops = append(tops, c)
			}
		}
	}

	container := newElement("div")
	threshold := math.Max(10, topScore*0.2)
	log.Debug().Float64("threshold", threshold).Int("tops", len(tops)).Msg("collecting siblings")
	for _, cand := range tops {
		if isAttached(cand, container) || cand.Parent == nil {
			continue
		}
		for _, sib := range children(cand.Parent) {
			if isAttached(sib, container) {
				continue
			}
			if sib == cand || includeSibling(sib, pass.Scores(), threshold) {
				detach(sib)
				container.AppendChild(sib)
			}
		}
	}

	prepArticle(container)
	return container
}

// normalizeBody removes unlikely candidates and turns divs into paragraphs
// where they hold no block content. Loose text in the remaining divs is
// wrapped in inline paragraphs.
func normalizeBody(body *html.Node, preserveUnlikely bool) {
	for _, n := range elementsByTag(body, "*") {
		if !isAttached(n, body) {
			continue
		}
		if !preserveUnlikely && isUnlikely(n) {
			log.Debug().Str("tag", n.Data).Str("match", getAttr(n, "class")+getAttr(n, "id")).Msg("removing unlikely candidate")
			detach(n)
			continue
		}
		if n.Data != "div" {
			continue
		}
		if !hasBlockDescendant(n) {
			retag(n, "p")
			continue
		}
		for _, c := range children(n) {
			if c.Type != html.TextNode || isWhitespace(c) {
				continue
			}
			p := newElement("p")
			setAttr(p, "class", styledClass)
			setAttr(p, "style", "display:inline")
			n.InsertBefore(p, c)
			n.RemoveChild(c)
			p.AppendChild(c)
		}
	}
}

func isUnlikely(n *html.Node) bool {
	if n.Data == "body" {
		return false
	}
	match := getAttr(n, "class") + getAttr(n, "id")
	return unlikelyCandidatesRe.MatchString(match) && !okMaybeItsACandidateRe.MatchString(match)
}

// includeSibling applies the sibling rules: a high enough score, a long
// paragraph with few links, or a short link-free sentence.
func includeSibling(n *html.Node, scores Scores, threshold float64) bool {
	if s, ok := scores.Of(n); ok && s >= threshold {
		return true
	}
	if !isElement(n, "p") {
		return false
	}
	density := linkDensity(n)
	text := innerText(n, true)
	length := textLength(text)
	if length > siblingTextLength && density < 0.25 {
		return true
	}
	return length <= siblingTextLength && density == 0 && sentenceEndRe.MatchString(text)
}

// adopt registers n as an already scaled candidate with the given score.
func (p *Pass) adopt(n *html.Node, score float64) {
	if _, ok := p.scores[n]; !ok {
		p.candidates = append(p.candidates, n)
	}
	p.scores[n] = &CandidateScore{ContentScore: score, scaled: true}
}
